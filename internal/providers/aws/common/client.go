package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is a resolved AWS configuration with its initialised service
// clients. A ProfileConfig is built per invocation and never shared across
// invocations.
type ProfileConfig struct {
	// ProfileName is the shared-config profile used, or "default".
	ProfileName string

	// Region is the region the clients are scoped to.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds service clients built from Config.
	Clients *ClientSet
}

// AWSClientProvider loads AWS configurations for the handler. It is the sole
// entry point for AWS credential management.
//
// Implementations must use the AWS SDK v2 only.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for the named profile.
	// Pass an empty string to use the default credential chain, which is
	// what the Lambda runtime provides.
	LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error)

	// AssumeRole exchanges base's credentials for those of roleARN and
	// returns a ProfileConfig whose clients act as that role. Failures are
	// scrubbed with evalerr.ScrubAssumeRoleError.
	AssumeRole(ctx context.Context, base *ProfileConfig, roleARN, sessionName string) (*ProfileConfig, error)
}
