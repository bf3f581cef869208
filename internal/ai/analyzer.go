package ai

import (
	"context"
	"time"

	"pharma-catalog/internal/logger"
)

// Analyzer joins the requester and the parser and logs every failure with
// enough detail for the operator to tell the kinds apart.
type Analyzer struct {
	requester *Requester
	log       *logger.Logger
}

func NewAnalyzer(requester *Requester, log *logger.Logger) *Analyzer {
	return &Analyzer{requester: requester, log: log}
}

func (a *Analyzer) Draft(ctx context.Context, name, composition string) (Draft, error) {
	start := time.Now()
	raw, err := a.requester.RequestDraft(ctx, name, composition)
	if err != nil {
		a.logFailure(err, name, start)
		return nil, err
	}
	draft, err := Parse(raw)
	if err != nil {
		a.logFailure(err, name, start)
		return nil, err
	}
	a.log.Info("ai draft generated", "product", name, "keys", len(draft), "elapsed", time.Since(start))
	return draft, nil
}

func (a *Analyzer) logFailure(err error, name string, start time.Time) {
	fields := []interface{}{"product", name, "kind", KindOf(err), "elapsed", time.Since(start), "error", err}
	if e, ok := err.(*Error); ok {
		if e.Status != 0 {
			fields = append(fields, "status", e.Status, "body", e.Body)
		}
		if e.Excerpt != "" {
			fields = append(fields, "excerpt", e.Excerpt)
		}
	}
	if KindOf(err) == KindValidation {
		a.log.Debug("ai draft rejected", fields...)
		return
	}
	a.log.Error("ai draft failed", fields...)
}
