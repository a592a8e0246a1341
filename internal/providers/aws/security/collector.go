package awssecurity

import (
	"context"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
)

// SecurityCollector collects raw account-level security data. It never
// applies business logic: comparing the data against rule parameters is the
// rule's job.
type SecurityCollector interface {
	// CollectAccountPublicAccess resolves the caller's account and returns
	// its S3 public access block. Errors are returned as reported by the
	// SDK, wrapped with context.
	CollectAccountPublicAccess(ctx context.Context) (*models.AccountPublicAccess, error)
}
