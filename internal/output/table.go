package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/engine"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
)

// ANSI color codes for compliance output (used when Colored=true).
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[0;31m"
	ansiGreen  = "\033[0;32m"
	ansiYellow = "\033[0;33m"
)

// Format selects how a handler response is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want table, json or yaml)", s)
	}
}

// TableOptions controls how RenderTable colours and sizes its output.
type TableOptions struct {
	// Colored wraps compliance labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// AnnotationWidth caps the ANNOTATION column. Defaults to 90.
	AnnotationWidth int
}

// Render writes resp to w in format. JSON is exactly what the Lambda returns
// to the Config runtime.
func Render(w io.Writer, format Format, resp engine.Response, opts TableOptions) error {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		var doc any = resp.Evaluations
		if resp.Error != nil {
			doc = resp.Error
		} else if resp.Evaluations == nil {
			doc = models.EvaluationBatch{}
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode response as YAML: %w", err)
		}
		return enc.Close()
	case FormatTable, "":
		if resp.Error != nil {
			RenderError(w, resp.Error, resp.FailedAt)
			return nil
		}
		RenderTable(w, resp.Evaluations, opts)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// ColorCompliance wraps a compliance type with ANSI codes when colored is
// true. When colored is false the string is returned unchanged.
func ColorCompliance(ct models.ComplianceType, colored bool) string {
	return complianceCell(ct, 0, colored)
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// complianceCell returns ct padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func complianceCell(ct models.ComplianceType, width int, colored bool) string {
	text := string(ct)
	if !colored {
		return fmt.Sprintf("%-*s", width, text)
	}
	var code string
	switch ct {
	case models.ComplianceCompliant:
		code = ansiGreen
	case models.ComplianceNonCompliant:
		code = ansiRed
	case models.ComplianceNotApplicable:
		code = ansiYellow
	default:
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max runes for ID/label columns.
// A single-char ellipsis replaces the last rune when truncation occurs.
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// RenderTable writes a formatted evaluation table to w.
//
// Column order:
//
//	RESOURCE TYPE  RESOURCE ID  COMPLIANCE  ORDERING TIMESTAMP  ANNOTATION
func RenderTable(w io.Writer, batch models.EvaluationBatch, opts TableOptions) {
	if opts.AnnotationWidth <= 0 {
		opts.AnnotationWidth = 90
	}

	if len(batch) == 0 {
		fmt.Fprintln(w, "No evaluations.")
		return
	}

	const (
		wType       = 22
		wResource   = 24
		wCompliance = 14
		wTimestamp  = 24
	)

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %s",
		wType, "RESOURCE TYPE",
		wResource, "RESOURCE ID",
		wCompliance, "COMPLIANCE",
		wTimestamp, "ORDERING TIMESTAMP",
		"ANNOTATION",
	)
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, r := range batch {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wType, truncateField(string(r.ComplianceResourceType), wType)))
		rb.WriteString(fmt.Sprintf("  %-*s", wResource, truncateField(r.ComplianceResourceID, wResource)))
		rb.WriteString("  " + complianceCell(r.ComplianceType, wCompliance, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*s", wTimestamp, r.OrderingTimestamp.UTC().Format(time.RFC3339)))
		rb.WriteString("  " + ShortenMessage(r.Annotation, opts.AnnotationWidth))
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}
}

// RenderError writes the error envelope as aligned key/value lines.
func RenderError(w io.Writer, e *models.ErrorResponse, failedAt engine.Stage) {
	if failedAt != "" {
		fmt.Fprintf(w, "%-24s %s\n", "Failed during:", failedAt)
	}
	fmt.Fprintf(w, "%-24s %s\n", "Internal error message:", e.InternalErrorMessage)
	fmt.Fprintf(w, "%-24s %s\n", "Internal error details:", e.InternalErrorDetails)
	fmt.Fprintf(w, "%-24s %s\n", "Customer error code:", e.CustomerErrorCode)
	fmt.Fprintf(w, "%-24s %s\n", "Customer error message:", e.CustomerErrorMessage)
}
