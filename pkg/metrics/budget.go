package metrics

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/vyaapaar/dashcore/pkg/model"
)

// Budget is the token allowance for one billing period. The period starts
// at the most recent tick of ResetCron.
type Budget struct {
	MonthlyLimit int64
	CostPerToken float64
	ResetCron    string
}

// DefaultBudget is 50k tokens a month at 0.002 per token, resetting at
// midnight on the 1st.
func DefaultBudget() Budget {
	return Budget{MonthlyLimit: 50000, CostPerToken: 0.002, ResetCron: "0 0 1 * *"}
}

// Validate checks the limit and the cron expression.
func (b Budget) Validate() error {
	if b.MonthlyLimit <= 0 {
		return &model.ConfigurationError{Component: "budget", Reason: "monthly limit must be positive"}
	}
	if b.CostPerToken < 0 {
		return &model.ConfigurationError{Component: "budget", Reason: "cost per token must not be negative"}
	}
	if !gronx.New().IsValid(b.ResetCron) {
		return &model.ConfigurationError{Component: "budget", Reason: fmt.Sprintf("invalid reset cron %q", b.ResetCron)}
	}
	return nil
}

// PeriodStart returns the start of the billing period containing now.
func (b Budget) PeriodStart(now time.Time) (time.Time, error) {
	start, err := gronx.PrevTickBefore(b.ResetCron, now, true)
	if err != nil {
		return time.Time{}, fmt.Errorf("usage period start: %w", err)
	}
	return start, nil
}

// Usage summarizes consumption against a Budget.
type Usage struct {
	Used          int64     `json:"used"`
	Limit         int64     `json:"limit"`
	Remaining     int64     `json:"remaining"`
	Percent       float64   `json:"percent"`
	EstimatedCost float64   `json:"estimated_cost"`
	PeriodStart   time.Time `json:"period_start"`
}

// Summarize computes usage figures for used tokens. Remaining never goes
// below zero; Percent may exceed 100.
func (b Budget) Summarize(used int64, periodStart time.Time) Usage {
	u := Usage{
		Used:          used,
		Limit:         b.MonthlyLimit,
		EstimatedCost: float64(used) * b.CostPerToken,
		PeriodStart:   periodStart,
	}
	if b.MonthlyLimit > 0 {
		u.Percent = float64(used) / float64(b.MonthlyLimit) * 100
	}
	if rem := b.MonthlyLimit - used; rem > 0 {
		u.Remaining = rem
	}
	return u
}
