// Package params validates and coerces the rule parameters supplied by the
// Config rule administrator.
package params

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/evalerr"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
)

// Parameter names, in validation order.
const (
	BlockPublicAcls       = "BlockPublicAcls"
	IgnorePublicAcls      = "IgnorePublicAcls"
	BlockPublicPolicy     = "BlockPublicPolicy"
	RestrictPublicBuckets = "RestrictPublicBuckets"
)

var (
	trueLiterals  = []string{"yes", "y", "true", "t", "1"}
	falseLiterals = []string{"no", "n", "false", "f", "0", ""}
)

// DecodeRuleParameters parses the ruleParameters JSON string of a Config
// event. An empty string yields an empty map.
func DecodeRuleParameters(raw string) (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &evalerr.InvalidParameterJSONError{Err: err}
	}
	if out == nil {
		// The literal "null".
		out = map[string]any{}
	}
	return out, nil
}

// EvaluateParameters checks that all four parameters are present and
// coerces each one to a bool. The first missing parameter, in declaration
// order, is reported.
func EvaluateParameters(raw map[string]any) (models.RuleParameterSet, error) {
	var set models.RuleParameterSet

	fields := []struct {
		name string
		dst  *bool
	}{
		{BlockPublicAcls, &set.BlockPublicAcls},
		{IgnorePublicAcls, &set.IgnorePublicAcls},
		{BlockPublicPolicy, &set.BlockPublicPolicy},
		{RestrictPublicBuckets, &set.RestrictPublicBuckets},
	}

	for _, f := range fields {
		if _, ok := raw[f.name]; !ok {
			return models.RuleParameterSet{}, &evalerr.MissingParameterError{Name: f.name}
		}
	}
	for _, f := range fields {
		v, err := ToBool(raw[f.name])
		if err != nil {
			return models.RuleParameterSet{}, err
		}
		*f.dst = v
	}
	return set, nil
}

// ToBool converts a parameter value into a bool.
//
// Strings are matched case-insensitively: "yes", "y", "true", "t" and "1" are
// true; "no", "n", "false", "f", "0" and "" are false. Any other string is an
// *evalerr.InvalidBooleanLiteralError. Values that are not strings use their
// truthiness: numbers are true when non-zero, nil is false, and collections
// are true when non-empty.
func ToBool(value any) (bool, error) {
	if s, ok := value.(string); ok {
		lower := strings.ToLower(s)
		for _, lit := range trueLiterals {
			if lower == lit {
				return true, nil
			}
		}
		for _, lit := range falseLiterals {
			if lower == lit {
				return false, nil
			}
		}
		return false, &evalerr.InvalidBooleanLiteralError{Value: s}
	}

	if value == nil {
		return false, nil
	}
	if b, err := cast.ToBoolE(value); err == nil {
		return b, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0, nil
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil(), nil
	}
	return true, nil
}
