package export

import (
	"context"
	"testing"
)

func TestConcurrencyGate_AcquireWithinCapacitySucceeds(t *testing.T) {
	gate := NewConcurrencyGate(2, 1)
	a, err := gate.Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("expected admission, got error: %v", err)
	}
	a.Release()
}

func TestConcurrencyGate_TotalSaturationFailsFast(t *testing.T) {
	gate := NewConcurrencyGate(1, 1)
	a, err := gate.Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("expected first admission to succeed: %v", err)
	}
	defer a.Release()

	_, err = gate.Acquire(context.Background(), false)
	if err == nil {
		t.Fatal("expected second acquire to fail once total capacity is saturated")
	}
	if KindFromError(err) != KindBackpressure {
		t.Fatalf("expected KindBackpressure, got %v", KindFromError(err))
	}
}

func TestConcurrencyGate_LargeSaturationReleasesTotalToken(t *testing.T) {
	gate := NewConcurrencyGate(2, 1)
	a, err := gate.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("expected first large admission to succeed: %v", err)
	}
	defer a.Release()

	_, err = gate.Acquire(context.Background(), true)
	if err == nil {
		t.Fatal("expected second large acquire to fail once large capacity is saturated")
	}

	// A non-large acquire should still succeed: the failed large acquire
	// must have given back the total-capacity token it grabbed first.
	b, err := gate.Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("expected non-large acquire to succeed after large saturation: %v", err)
	}
	b.Release()
}

func TestConcurrencyGate_ReleaseIsNilSafe(t *testing.T) {
	var a *admission
	a.Release()
}

func TestConcurrencyGate_ZeroCapacityDisablesBound(t *testing.T) {
	gate := NewConcurrencyGate(0, 0)
	a, err := gate.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("expected unbounded gate to always admit, got: %v", err)
	}
	a.Release()
}

func TestConcurrencyGate_CancelledContextFailsAcquire(t *testing.T) {
	gate := NewConcurrencyGate(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gate.Acquire(ctx, false)
	if err == nil {
		t.Fatal("expected acquire on cancelled context to fail")
	}
}
