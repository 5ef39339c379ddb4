package posting

import (
	"context"
	"time"

	"pharmacy/internal/core/apperror"
)

// PeriodPolicy decides whether documents dated docDate may change stock.
type PeriodPolicy interface {
	CanPost(ctx context.Context, docDate time.Time) error
	CanUnpost(ctx context.Context, docDate time.Time) error
	ClosedUntil() time.Time
}

// ClosedPeriodPolicy forbids posting and unposting documents dated before
// closedUntil, e.g. after the monthly stock audit.
type ClosedPeriodPolicy struct {
	closedUntil time.Time
}

// NewClosedPeriodPolicy returns OpenPolicy for a zero closedUntil.
func NewClosedPeriodPolicy(closedUntil time.Time) PeriodPolicy {
	if closedUntil.IsZero() {
		return OpenPolicy{}
	}
	return &ClosedPeriodPolicy{closedUntil: closedUntil}
}

func (p *ClosedPeriodPolicy) CanPost(_ context.Context, docDate time.Time) error {
	if docDate.Before(p.closedUntil) {
		return apperror.NewPeriodClosed(p.closedUntil.Format("2006-01-02"))
	}
	return nil
}

func (p *ClosedPeriodPolicy) CanUnpost(ctx context.Context, docDate time.Time) error {
	return p.CanPost(ctx, docDate)
}

func (p *ClosedPeriodPolicy) ClosedUntil() time.Time { return p.closedUntil }

// OpenPolicy allows all dates.
type OpenPolicy struct{}

func (OpenPolicy) CanPost(context.Context, time.Time) error   { return nil }
func (OpenPolicy) CanUnpost(context.Context, time.Time) error { return nil }
func (OpenPolicy) ClosedUntil() time.Time                     { return time.Time{} }
