package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/config"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/engine"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/logging"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/output"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/rules"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/version"
)

const defaultRuleID = "S3_PUBLIC_ACCESS_SETTINGS_FOR_ACCOUNT"

// errInvocationFailed is returned by invoke after the error envelope has been
// rendered, so that the process exits non-zero.
var errInvocationFailed = errors.New("invocation failed")

// app carries what every subcommand shares: settings sources and the AWS
// provider constructor, which tests replace with fakes.
type app struct {
	v           *viper.Viper
	configPath  string
	logOut      io.Writer
	newProvider func(cfg config.Config) common.AWSClientProvider
	registry    *rules.DefaultRuleRegistry
}

func newApp() *app {
	return &app{
		v:      config.NewViper(),
		logOut: os.Stderr,
		newProvider: func(cfg config.Config) common.AWSClientProvider {
			return common.NewDefaultAWSClientProvider(common.ProviderOptions{
				Region:      cfg.Region,
				MaxAttempts: cfg.MaxAttempts,
			})
		},
		registry: rules.NewBuiltinRegistry(),
	}
}

// settings loads the configuration and builds the logger.
func (a *app) settings() (config.Config, log.Logger, error) {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(a.logOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// dispatcher wires a Dispatcher for ruleID.
func (a *app) dispatcher(ruleID, profile string) (*engine.Dispatcher, config.Config, error) {
	cfg, logger, err := a.settings()
	if err != nil {
		return nil, config.Config{}, err
	}
	factory, err := a.registry.Lookup(ruleID)
	if err != nil {
		return nil, config.Config{}, err
	}
	logStartup(log.With(logger, "rule", ruleID), cfg)
	d :=engine.NewDispatcher(a.newProvider(cfg), factory, cfg, logger, engine.WithProfile(profile))
	return d, cfg, nil
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithApp(newApp())
}

func newRootCmdWithApp(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "s3pab",
		Short: "AWS Config rule checking the account-level S3 public access block",
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file (default: environment only)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "", "Log format: logfmt or json")
	_ = a.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("log_format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(
		newLambdaCmd(a),
		newInvokeCmd(a),
		newDoctorCmd(a),
		newRulesCmd(a),
		newVersionCmd(),
	)
	return root
}

func newLambdaCmd(a *app) *cobra.Command {
	var ruleID string
	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Start the AWS Lambda runtime loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := a.dispatcher(ruleID, "")
			if err != nil {
				return err
			}
			lambda.Start(lambdaHandler(d))
			return nil
		},
	}
	cmd.Flags().StringVar(&ruleID, "rule", defaultRuleID, "Rule to evaluate")
	return cmd
}

// lambdaHandler adapts Dispatcher.Handle to the signature the Lambda
// runtime accepts. Failures travel in the response body, never as errors.
func lambdaHandler(d *engine.Dispatcher) func(context.Context, events.ConfigEvent) (engine.Response, error) {
	return func(ctx context.Context, event events.ConfigEvent) (engine.Response, error) {
		return d.Handle(ctx, event), nil
	}
}

func newInvokeCmd(a *app) *cobra.Command {
	var (
		eventPath   string
		ruleID      string
		profile     string
		format      string
		resultToken string
		testMode    bool
		colored     bool
	)

	cmd := &cobra.Command{
		Use:          "invoke",
		Short:        "Run one invocation locally from a Config event file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			event, err := readEvent(eventPath)
			if err != nil {
				return err
			}
			if resultToken != "" {
				event.ResultToken = resultToken
			}

			d, cfg, err := a.dispatcher(ruleID, profile)
			if err != nil {
				return err
			}
			if testMode {
				event.ResultToken = cfg.TestModeToken
			}

			resp := d.Handle(cmd.Context(), event)
			if err := output.Render(cmd.OutOrStdout(), f, resp, output.TableOptions{Colored: colored}); err != nil {
				return err
			}
			if resp.Stage.Failed() {
				return fmt.Errorf("%w: %s", errInvocationFailed, resp.Stage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&eventPath, "event", "", "Path to a JSON Config rule event")
	cmd.Flags().StringVar(&ruleID, "rule", defaultRuleID, "Rule to evaluate")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&format, "output", "table", "Output format: table, json or yaml")
	cmd.Flags().StringVar(&resultToken, "result-token", "", "Override the event's resultToken")
	cmd.Flags().BoolVar(&testMode, "test-mode", false, "Submit with the test-mode result token so Config records nothing")
	cmd.Flags().BoolVar(&colored, "color", false, "Colour compliance values in table output")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

// readEvent decodes a Lambda Config rule event from path.
func readEvent(path string) (events.ConfigEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return events.ConfigEvent{}, fmt.Errorf("read event file %q: %w", path, err)
	}
	var event events.ConfigEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return events.ConfigEvent{}, fmt.Errorf("decode event file %q: %w", path, err)
	}
	return event, nil
}

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rules this binary can evaluate",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range a.registry.IDs() {
				f, err := a.registry.Lookup(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s  %s\n", id, f(&common.ClientSet{}).Name())
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the s3pab version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// logStartup records the effective settings once per process.
func logStartup(logger log.Logger, cfg config.Config) {
	level.Info(logger).Log(
		"msg", "starting",
		"version", version.Version,
		"assume_role_mode", cfg.AssumeRoleMode,
		"max_history_pages", cfg.MaxHistoryPages,
	)
}
