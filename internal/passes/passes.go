// Package passes holds the pass plan catalogue and the validity window
// arithmetic shared by admin pass creation and application approval.
package passes

import (
	"fmt"
	"time"
)

type PlanDefinition struct {
	PlanType     string  `json:"plan_type"`
	Label        string  `json:"label"`
	DurationDays int     `json:"duration_days"`
	PriceRM      float64 `json:"price_rm"`
}

var plans = []PlanDefinition{
	{PlanType: "short_semester", Label: "Short Semester (50 days)", DurationDays: 50, PriceRM: 30.0},
	{PlanType: "long_semester", Label: "Long Semester (100 days)", DurationDays: 100, PriceRM: 50.0},
	{PlanType: "annual", Label: "Annual (365 days)", DurationDays: 365, PriceRM: 120.0},
}

func Plans() []PlanDefinition {
	out := make([]PlanDefinition, len(plans))
	copy(out, plans)
	return out
}

func Plan(planType string) (PlanDefinition, error) {
	for _, plan := range plans {
		if plan.PlanType == planType {
			return plan, nil
		}
	}
	return PlanDefinition{}, fmt.Errorf("unknown pass plan %q", planType)
}

// ValidityWindow computes [from, to) for the plan, starting at startsAt or
// now when zero.
func ValidityWindow(planType string, startsAt time.Time) (time.Time, time.Time, PlanDefinition, error) {
	plan, err := Plan(planType)
	if err != nil {
		return time.Time{}, time.Time{}, PlanDefinition{}, err
	}
	start := startsAt
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return start, start.AddDate(0, 0, plan.DurationDays), plan, nil
}
