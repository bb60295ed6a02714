// Package report writes validation results for people and machines.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"firewall-rule-engine/internal/engine"
	"firewall-rule-engine/internal/model"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Writer renders a set of document reports.
type Writer interface {
	Write(w io.Writer, reports []model.DocumentReport) error
	Format() Format
}

// ParseFormat accepts the format names and their common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "table", "console", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

func SupportedFormats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML), string(FormatCSV)}
}

func NewWriter(format string) (Writer, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatJSON:
		return jsonWriter{}, nil
	case FormatYAML:
		return yamlWriter{}, nil
	case FormatCSV:
		return csvWriter{}, nil
	default:
		return textWriter{}, nil
	}
}

// Document is the structured report shape shared by json and yaml.
type Document struct {
	Summary   engine.Summary         `json:"summary" yaml:"summary"`
	Documents []model.DocumentReport `json:"documents" yaml:"documents"`
}

func newDocument(reports []model.DocumentReport) Document {
	if reports == nil {
		reports = []model.DocumentReport{}
	}
	return Document{Summary: engine.Summarize(reports), Documents: reports}
}

type textWriter struct{}

func (textWriter) Format() Format { return FormatText }

func (textWriter) Write(w io.Writer, reports []model.DocumentReport) error {
	var b strings.Builder
	for _, r := range reports {
		if r.Result.Valid {
			fmt.Fprintf(&b, "%s: Valid! %d rules parsed successfully.\n", r.Name, r.Result.RuleCount)
			continue
		}
		fmt.Fprintf(&b, "%s: %d error(s) found\n", r.Name, len(r.Result.Errors))
		for _, e := range r.Result.Errors {
			fmt.Fprintf(&b, "  Line %d: %s\n", e.Line, e.Message)
		}
	}
	s := engine.Summarize(reports)
	fmt.Fprintf(&b, "%d document(s): %d valid, %d invalid, %d rule(s), %d error(s)\n",
		s.Documents, s.Valid, s.Invalid, s.Rules, s.Errors)

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonWriter struct{}

func (jsonWriter) Format() Format { return FormatJSON }

func (jsonWriter) Write(w io.Writer, reports []model.DocumentReport) error {
	data, err := json.MarshalIndent(newDocument(reports), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

type yamlWriter struct{}

func (yamlWriter) Format() Format { return FormatYAML }

func (yamlWriter) Write(w io.Writer, reports []model.DocumentReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(reports)); err != nil {
		return fmt.Errorf("failed to write YAML report: %w", err)
	}
	return enc.Close()
}

var csvHeader = []string{"document", "source", "valid", "rule_count", "line", "message"}

type csvWriter struct{}

func (csvWriter) Format() Format { return FormatCSV }

// Write emits one row per error; a valid document gets a single row with
// empty line and message.
func (csvWriter) Write(w io.Writer, reports []model.DocumentReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range reports {
		base := []string{r.Name, r.Source, strconv.FormatBool(r.Result.Valid), strconv.Itoa(r.Result.RuleCount)}
		if len(r.Result.Errors) == 0 {
			if err := cw.Write(append(base, "", "")); err != nil {
				return err
			}
			continue
		}
		for _, e := range r.Result.Errors {
			row := append(append([]string{}, base...), strconv.Itoa(e.Line), e.Message)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
