package analysis

import (
	"math"
	"testing"

	"github.com/eikonal-bridge/dee/internal/merit"
)

func TestThroughFocusMinimumAtFocus(t *testing.T) {
	sys := parabolaMirror()
	points, err := ThroughFocus(sys, 0, merit.GridSample(5), FocusOffsets(3, 0.5))
	if err != nil {
		t.Fatalf("ThroughFocus() error = %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
	if points[3].Offset != 0 {
		t.Fatalf("center offset = %g, want 0", points[3].Offset)
	}
	if points[3].RMS > 1e-8 {
		t.Errorf("RMS at focus = %g, want ~0", points[3].RMS)
	}
	for i := 0; i < 3; i++ {
		if points[i].RMS <= points[i+1].RMS {
			t.Errorf("RMS should fall toward focus: %g then %g", points[i].RMS, points[i+1].RMS)
		}
		if points[6-i].RMS <= points[5-i].RMS {
			t.Errorf("RMS should rise past focus: %g then %g", points[5-i].RMS, points[6-i].RMS)
		}
	}
	// Geometric defocus blur: marginal slope is a quarter, so a half
	// millimetre of defocus costs about an eighth in radius.
	if math.Abs(points[4].RMS) < 0.01 {
		t.Errorf("defocused RMS = %g, expected visible blur", points[4].RMS)
	}
}

func TestThroughFocusLeavesSystemAlone(t *testing.T) {
	sys := parabolaMirror()
	before := sys.Elements[0].Thick.Val
	if _, err := ThroughFocus(sys, 0, merit.GridSample(3), []float64{-1, 1}); err != nil {
		t.Fatalf("ThroughFocus() error = %v", err)
	}
	if sys.Elements[0].Thick.Val != before {
		t.Errorf("thickness changed from %g to %g", before, sys.Elements[0].Thick.Val)
	}
}

func TestFocusOffsets(t *testing.T) {
	got := FocusOffsets(2, 0.25)
	want := []float64{-0.5, -0.25, 0, 0.25, 0.5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}
