package common

import (
	"errors"
	"math"
	"testing"
)

func TestCheckQuotaActionLimit(t *testing.T) {
	q := Quota{MaxActionsPerEpoch: 10}
	prev := QuotaNow{EpochID: 1}

	next, err := CheckQuota(q, 1, prev, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Actions != 10 {
		t.Fatalf("unexpected action count: %d", next.Actions)
	}

	denied, err := CheckQuota(q, 1, next, 1, 0)
	if !errors.Is(err, ErrQuotaActionsExceeded) {
		t.Fatalf("expected ErrQuotaActionsExceeded, got %v", err)
	}
	if denied != next {
		t.Fatalf("expected counters to remain unchanged on denial")
	}

	rollover, err := CheckQuota(q, 2, next, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error after epoch rollover: %v", err)
	}
	if rollover.EpochID != 2 || rollover.Actions != 1 {
		t.Fatalf("unexpected rollover counters: %+v", rollover)
	}
}

func TestCheckQuotaSpendCap(t *testing.T) {
	q := Quota{MaxSpendPerEpoch: 100}
	next, err := CheckQuota(q, 5, QuotaNow{}, 1, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := CheckQuota(q, 5, next, 1, 41); !errors.Is(err, ErrQuotaSpendExceeded) {
		t.Fatalf("expected ErrQuotaSpendExceeded, got %v", err)
	}
}

func TestCheckQuotaOverflow(t *testing.T) {
	prev := QuotaNow{Spent: math.MaxUint64 - 1}
	if _, err := CheckQuota(Quota{}, 0, prev, 0, 2); !errors.Is(err, ErrQuotaCounterOverflow) {
		t.Fatalf("expected overflow error, got %v", err)
	}
}

func TestQuotaEpoch(t *testing.T) {
	q := Quota{EpochSeconds: 3600}
	if got := q.Epoch(7200); got != 2 {
		t.Fatalf("unexpected epoch: %d", got)
	}
	if got := (Quota{}).Epoch(7200); got != 0 {
		t.Fatalf("expected single epoch without EpochSeconds, got %d", got)
	}
}

func TestGuard(t *testing.T) {
	pauses := Pauses{ModuleMarket: true}
	if err := Guard(pauses, ModuleMarket); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused market, got %v", err)
	}
	if err := Guard(pauses, ModuleFleet); err != nil {
		t.Fatalf("fleet should not be paused: %v", err)
	}
	if err := Guard(nil, ModuleFleet); err != nil {
		t.Fatalf("nil pause view should never block: %v", err)
	}
}
