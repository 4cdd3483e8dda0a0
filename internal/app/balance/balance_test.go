package balance

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/shubhamavl/axleweigh/internal/domain"
)

func TestEvaluateImbalancedAxle(t *testing.T) {
	res := Evaluate(15, 45, DefaultThresholds())
	if !res.RatioOK || res.Ratio != 3.0 {
		t.Fatalf("expected ratio 3.0, got %v (%v)", res.Ratio, res.RatioOK)
	}
	if !res.Imbalance || res.Status != domain.BalanceWarning {
		t.Fatalf("expected imbalance warning, got %+v", res)
	}
	if res.LeftValidation != domain.ValidationPass || res.RightValidation != domain.ValidationPass {
		t.Fatalf("expected both channels to pass, got %+v", res)
	}
}

func TestEvaluateUnloadedSide(t *testing.T) {
	res := Evaluate(5, 0, DefaultThresholds())
	if res.LeftValidation != domain.ValidationFail || res.RightValidation != domain.ValidationFail {
		t.Fatalf("expected both channels to fail, got %+v", res)
	}
	if res.Status != domain.BalanceNotTested || res.Imbalance || res.RatioOK {
		t.Fatalf("expected NotTested, got %+v", res)
	}
}

func TestImbalanceBoundaryIsInclusive(t *testing.T) {
	if !Imbalanced(10, 20, DefaultBalanceThreshold) {
		t.Fatalf("ratio exactly 2.0 must be flagged")
	}
	if Imbalanced(10, 19.99, DefaultBalanceThreshold) {
		t.Fatalf("ratio below 2.0 must not be flagged")
	}
	if res := Evaluate(20, 20, DefaultThresholds()); res.Status != domain.BalancePass {
		t.Fatalf("expected balanced axle to pass, got %+v", res)
	}
}

func TestValidateThreshold(t *testing.T) {
	cases := []struct {
		weight float64
		want   domain.Validation
	}{
		{9.99, domain.ValidationFail},
		{10, domain.ValidationPass},
		{250, domain.ValidationPass},
		{-3, domain.ValidationFail},
	}
	for _, tc := range cases {
		if got := Validate(tc.weight, DefaultMinValidWeight); got != tc.want {
			t.Fatalf("Validate(%v) = %v, want %v", tc.weight, got, tc.want)
		}
	}
}

func TestLeftPercent(t *testing.T) {
	if got := LeftPercent(25, 75); got != 25 {
		t.Fatalf("expected 25%%, got %v", got)
	}
	if got := LeftPercent(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty axle, got %v", got)
	}
}

func TestRatioIsSymmetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Float64Range(1e-3, 1e5).Draw(rt, "a")
		b := rapid.Float64Range(1e-3, 1e5).Draw(rt, "b")

		ab, ok1 := Ratio(a, b)
		ba, ok2 := Ratio(b, a)
		if !ok1 || !ok2 || ab != ba {
			rt.Fatalf("Ratio(%v,%v)=%v but Ratio(%v,%v)=%v", a, b, ab, b, a, ba)
		}
		if ab < 1 {
			rt.Fatalf("ratio below 1: %v", ab)
		}
		if self, _ := Ratio(a, a); self != 1.0 {
			rt.Fatalf("Ratio(a,a) = %v", self)
		}
	})
}
