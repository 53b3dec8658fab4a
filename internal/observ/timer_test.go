package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestMeasureRecordsFailure(t *testing.T) {
	tm := NewTimer()
	_ = tm.Measure("load", func() error { return nil })
	err := tm.Measure("expand", func() error { return errors.New("boom") })
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Measure must return fn's error, got %v", err)
	}

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("got %d phases", len(r.Phases))
	}
	if r.Phases[0].Note != "" || r.Phases[1].Note != "failed" {
		t.Fatalf("unexpected notes %+v", r.Phases)
	}
	if !strings.Contains(tm.Summary(), "expand") {
		t.Fatalf("summary misses phase:\n%s", tm.Summary())
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	idx := tm.Begin("x")
	tm.End(idx, "")
	if len(tm.Report().Phases) != 0 {
		t.Fatalf("nil timer reported phases")
	}
}
