package engine

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"firewall-rule-engine/internal/model"
	"firewall-rule-engine/internal/parser"
)

// Validator checks many rule documents at once. Each document is validated
// independently, so the work fans out freely; reports keep input order.
type Validator struct {
	workers int
	logger  *slog.Logger
}

func NewValidator(workers int, logger *slog.Logger) *Validator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{workers: workers, logger: logger}
}

// ValidateAll returns one report per document. It stops early only when ctx
// is cancelled.
func (v *Validator) ValidateAll(ctx context.Context, docs []model.RuleDocument) ([]model.DocumentReport, error) {
	reports := make([]model.DocumentReport, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := parser.Validate(doc.Text)
			reports[i] = model.DocumentReport{Name: doc.Name, Source: doc.Source, Result: result}
			v.logger.Debug("Document validated",
				"name", doc.Name,
				"valid", result.Valid,
				"rules", result.RuleCount,
				"errors", len(result.Errors),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

type Summary struct {
	Documents int `json:"documents" yaml:"documents"`
	Valid     int `json:"valid" yaml:"valid"`
	Invalid   int `json:"invalid" yaml:"invalid"`
	Rules     int `json:"rules" yaml:"rules"`
	Errors    int `json:"errors" yaml:"errors"`
}

func Summarize(reports []model.DocumentReport) Summary {
	s := Summary{Documents: len(reports)}
	for _, r := range reports {
		if r.Result.Valid {
			s.Valid++
		} else {
			s.Invalid++
		}
		s.Rules += r.Result.RuleCount
		s.Errors += len(r.Result.Errors)
	}
	return s
}
