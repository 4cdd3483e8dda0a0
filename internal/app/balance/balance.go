// Package balance evaluates left/right axle readings. Everything here is
// stateless and recomputed from the latest readings on every call.
package balance

import (
	"math"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

const (
	DefaultMinValidWeight   = 10.0
	DefaultBalanceThreshold = 2.0
)

// DefaultThresholds returns the rig's stock limits.
func DefaultThresholds() ports.Thresholds {
	return ports.Thresholds{
		MinValidWeight:   DefaultMinValidWeight,
		BalanceThreshold: DefaultBalanceThreshold,
	}
}

// Ratio is heavier/lighter side. ok is false unless both sides are positive.
func Ratio(left, right float64) (ratio float64, ok bool) {
	if !(left > 0) || !(right > 0) || math.IsInf(left, 0) || math.IsInf(right, 0) {
		return 0, false
	}
	return math.Max(left, right) / math.Min(left, right), true
}

func Imbalanced(left, right, threshold float64) bool {
	r, ok := Ratio(left, right)
	return ok && r >= threshold
}

func Validate(weight, minValid float64) domain.Validation {
	if weight >= minValid {
		return domain.ValidationPass
	}
	return domain.ValidationFail
}

// LeftPercent is the left side's share of the total, 0 when the total is not positive.
func LeftPercent(left, right float64) float64 {
	total := left + right
	if !(total > 0) || math.IsInf(total, 0) {
		return 0
	}
	return left / total * 100
}

type Result struct {
	Ratio           float64
	RatioOK         bool
	Imbalance       bool
	LeftValidation  domain.Validation
	RightValidation domain.Validation
	Status          domain.BalanceStatus
}

func Evaluate(left, right float64, th ports.Thresholds) Result {
	res := Result{
		LeftValidation:  Validate(left, th.MinValidWeight),
		RightValidation: Validate(right, th.MinValidWeight),
	}
	res.Ratio, res.RatioOK = Ratio(left, right)
	switch {
	case !res.RatioOK:
		res.Status = domain.BalanceNotTested
	case res.Ratio >= th.BalanceThreshold:
		res.Imbalance = true
		res.Status = domain.BalanceWarning
	default:
		res.Status = domain.BalancePass
	}
	return res
}
