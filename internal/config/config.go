package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the handler configuration.
// It is read from the environment of the Lambda function and, for local
// invocations, from an optional YAML file passed with --config.
type Config struct {
	// AssumeRoleMode, when true, makes the handler assume the event's
	// executionRoleArn before talking to AWS Config.
	AssumeRoleMode bool `mapstructure:"assume_role_mode" yaml:"assume_role_mode"`

	// DefaultResourceType is reported for account-level evaluations that
	// have no configuration item to describe.
	DefaultResourceType string `mapstructure:"default_resource_type" yaml:"default_resource_type" validate:"required"`

	// TestModeToken is the resultToken value that marks a test invocation.
	// Evaluations submitted with it are not recorded by Config.
	TestModeToken string `mapstructure:"test_mode_token" yaml:"test_mode_token" validate:"required"`

	// MaxHistoryPages caps compliance history pagination. Zero means no cap.
	MaxHistoryPages int `mapstructure:"max_history_pages" yaml:"max_history_pages" validate:"min=0"`

	// HistoryPageSize is the page size used for compliance history reads.
	HistoryPageSize int32 `mapstructure:"history_page_size" yaml:"history_page_size" validate:"min=1,max=100"`

	// RoleSessionName names the STS session opened in assume-role mode.
	RoleSessionName string `mapstructure:"role_session_name" yaml:"role_session_name" validate:"min=2,max=64"`

	// Region overrides the region resolved from the environment.
	Region string `mapstructure:"region" yaml:"region"`

	// MaxAttempts sets the SDK retryer's attempt count. Zero keeps the SDK
	// default.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=0,max=10"`

	LogLevel  string `mapstructure:"log_level"  yaml:"log_level"  validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=logfmt json"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		DefaultResourceType: "AWS::::Account",
		TestModeToken:       "TESTMODE",
		MaxHistoryPages:     1000,
		HistoryPageSize:     100,
		RoleSessionName:     "configLambdaExecution",
		LogLevel:            "info",
		LogFormat:           "logfmt",
	}
}

// NewViper returns a viper instance carrying the defaults and bound to the
// environment. Every key is read from the upper-cased variable of the same
// name; region is also read from AWS_REGION.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("assume_role_mode", d.AssumeRoleMode)
	v.SetDefault("default_resource_type", d.DefaultResourceType)
	v.SetDefault("test_mode_token", d.TestModeToken)
	v.SetDefault("max_history_pages", d.MaxHistoryPages)
	v.SetDefault("history_page_size", d.HistoryPageSize)
	v.SetDefault("role_session_name", d.RoleSessionName)
	v.SetDefault("region", d.Region)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	v.AutomaticEnv()
	_ = v.BindEnv("region", "REGION", "AWS_REGION")
	return v
}

// Load reads the optional config file at path into v, then unmarshals and
// validates the result. An empty path skips the file.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field constraint and reports all violations at once.
func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("config %s: failed %q check (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}
