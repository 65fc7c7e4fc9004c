package normalize

import (
	"testing"

	"github.com/dobbobalina2/Crypto-US-yields/models"
)

func TestConvertsAtInclusiveBoundary(t *testing.T) {
	values := []*float64{models.Float(0.05), nil, models.Float(1.5)}
	out := MaybeConvertPercent(values, "boundary")
	if out[0] == nil || *out[0] != 5.0 {
		t.Fatalf("expected 5.0, got %v", out[0])
	}
	if out[1] != nil {
		t.Fatalf("expected missing value to stay missing")
	}
	if out[2] == nil || *out[2] != 150.0 {
		t.Fatalf("expected 150.0, got %v", out[2])
	}
}

func TestLeavesPercentSeriesAlone(t *testing.T) {
	values := []*float64{models.Float(0.05), models.Float(1.50001)}
	out := MaybeConvertPercent(values, "percent")
	if *out[0] != 0.05 || *out[1] != 1.50001 {
		t.Fatalf("expected unchanged series, got %v %v", *out[0], *out[1])
	}
}

func TestNegativeMagnitudeCounts(t *testing.T) {
	values := []*float64{models.Float(-2.0), models.Float(0.5)}
	out := MaybeConvertPercent(values, "negative")
	if *out[0] != -2.0 || *out[1] != 0.5 {
		t.Fatalf("expected unchanged series, got %v %v", *out[0], *out[1])
	}
}

func TestAllMissingUnchanged(t *testing.T) {
	out := MaybeConvertPercent([]*float64{nil, nil}, "empty")
	if len(out) != 2 || out[0] != nil || out[1] != nil {
		t.Fatalf("expected all-missing series unchanged, got %v", out)
	}
}

func TestInputNotMutated(t *testing.T) {
	v := 0.1
	values := []*float64{&v}
	MaybeConvertPercent(values, "copy")
	if v != 0.1 {
		t.Fatalf("input was mutated: %v", v)
	}
}
