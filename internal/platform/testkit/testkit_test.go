package testkit

import (
	"testing"
	"time"
)

var seamFn = func() string { return "real" }

func TestPanics(t *testing.T) {
	MustPanic(t, func() { panic("boom") })
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	MustContain(t, "alpha beta gamma", "beta")
}

func TestApprox(t *testing.T) {
	Approx(t, "sum", 0.1+0.2, 0.3, 1e-12)
}

func TestHour(t *testing.T) {
	got := Hour(t, "2024-01-01T03")
	want := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Hour = %v, want %v", got, want)
	}
}

func TestSwapRestores(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Serial(t)
		Swap(t, &seamFn, func() string { return "fake" })
		if seamFn() != "fake" {
			t.Fatalf("swap not applied")
		}
	})
	if seamFn() != "real" {
		t.Fatalf("swap not restored")
	}
}
