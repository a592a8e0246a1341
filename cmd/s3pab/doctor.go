package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/config"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
	awssecurity "github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/security"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/rules"
)

// DoctorResult is the structured output of s3pab doctor. It can be serialised
// to JSON via --format=json or rendered as a human-readable table (default).
type DoctorResult struct {
	Config struct {
		Valid bool   `json:"valid"`
		Error string `json:"error,omitempty"`
	} `json:"config"`

	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	S3Control struct {
		Readable   bool   `json:"readable"`
		Annotation string `json:"annotation,omitempty"`
		Error      string `json:"error,omitempty"`
	} `json:"s3control"`

	ConfigService struct {
		RuleName  string `json:"rule_name,omitempty"`
		Reachable bool   `json:"reachable"`
		Error     string `json:"error,omitempty"`
	} `json:"config_service"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Check that this environment can run the rule",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			ruleName, _ := cmd.Flags().GetString("config-rule")

			cfg, cfgErr := config.Load(a.v, a.configPath)
			if cfgErr != nil {
				cfg = config.Default()
			}
			result, err := runDoctor(cmd.Context(), a.newProvider(cfg), cfgErr, cmd.OutOrStdout(), format, profile, ruleName)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile to use (default: credential chain)")
	cmd.Flags().String("config-rule", "", "Config rule name whose compliance history should be readable (optional)")
	return cmd
}

// errUnhealthy makes doctor exit non-zero. main does not print it; the
// diagnostics already explain the failure.
var errUnhealthy = errors.New("environment unhealthy")

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy.
func runDoctor(ctx context.Context, provider common.AWSClientProvider, cfgErr error, w io.Writer, format, profile, ruleName string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, provider, cfgErr, profile, ruleName)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(ctx context.Context, provider common.AWSClientProvider, cfgErr error, profile, ruleName string) DoctorResult {
	var result DoctorResult

	if cfgErr != nil {
		result.Config.Error = cfgErr.Error()
	} else {
		result.Config.Valid = true
	}

	// AWS: credentials → STS account ID → public access block → Config history.
	// An empty profile string selects the default credential chain.
	result.AWS.Profile = profile
	result.ConfigService.RuleName = ruleName

	profileCfg, err := provider.LoadProfile(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
		return finish(result)
	}
	accountID, err := common.ResolveAccountID(ctx, profileCfg.Clients.STS)
	if err != nil {
		result.AWS.Error = err.Error()
		return finish(result)
	}
	result.AWS.Credentials = true
	result.AWS.AccountID = accountID

	access, err := awssecurity.NewDefaultSecurityCollector(profileCfg.Clients).CollectAccountPublicAccess(ctx)
	if err != nil {
		result.S3Control.Error = err.Error()
	} else {
		result.S3Control.Readable = true
		result.S3Control.Annotation = rules.Annotation(access.Block)
	}

	if ruleName != "" {
		paginator := configsvc.NewGetComplianceDetailsByConfigRulePaginator(profileCfg.Clients.Config,
			&configsvc.GetComplianceDetailsByConfigRuleInput{ConfigRuleName: aws.String(ruleName)},
			func(o *configsvc.GetComplianceDetailsByConfigRulePaginatorOptions) { o.Limit = 1 })
		if _, err := paginator.NextPage(ctx); err != nil {
			result.ConfigService.Error = err.Error()
		} else {
			result.ConfigService.Reachable = true
		}
	}

	return finish(result)
}

func finish(result DoctorResult) DoctorResult {
	result.OverallHealthy = result.Config.Valid &&
		result.AWS.Credentials &&
		result.S3Control.Readable &&
		(result.ConfigService.RuleName == "" || result.ConfigService.Reachable)
	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintln(w, "\nConfiguration:")
	if result.Config.Valid {
		doctorPrint(w, "Settings", "OK", "")
	} else {
		doctorPrint(w, "Settings", "FAIL", result.Config.Error)
	}

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "S3 Public Access Block", "FAIL", "skipped")
		if result.ConfigService.RuleName != "" {
			doctorPrint(w, "Config Compliance History", "FAIL", "skipped")
		}
		return
	}

	doctorPrint(w, "Credentials", "OK", "Account: "+result.AWS.AccountID)
	if result.S3Control.Readable {
		doctorPrint(w, "S3 Public Access Block", "OK", result.S3Control.Annotation)
	} else {
		doctorPrint(w, "S3 Public Access Block", "FAIL", result.S3Control.Error)
	}

	switch {
	case result.ConfigService.RuleName == "":
		doctorPrint(w, "Config Compliance History", "Not checked (pass --config-rule)", "")
	case result.ConfigService.Reachable:
		doctorPrint(w, "Config Compliance History", "OK", result.ConfigService.RuleName)
	default:
		doctorPrint(w, "Config Compliance History", "FAIL", result.ConfigService.Error)
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
