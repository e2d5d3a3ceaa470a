package common

import (
	"errors"
	"math"
)

var (
	ErrQuotaActionsExceeded = errors.New("quota actions exceeded")
	ErrQuotaSpendExceeded   = errors.New("quota spend cap exceeded")
	ErrQuotaCounterOverflow = errors.New("quota counter overflow")
)

// QuotaNow captures the current quota usage counters for an address.
type QuotaNow struct {
	Actions uint32
	Spent   uint64
	EpochID uint64
}

// Quota defines the limits enforced for a module interaction per address.
// Zero limits disable the corresponding check.
type Quota struct {
	MaxActionsPerEpoch uint32
	MaxSpendPerEpoch   uint64
	EpochSeconds       uint32
}

// Epoch maps a unix timestamp onto the quota epoch. A zero EpochSeconds puts
// every timestamp in the same epoch.
func (q Quota) Epoch(now int64) uint64 {
	if q.EpochSeconds == 0 || now <= 0 {
		return 0
	}
	return uint64(now) / uint64(q.EpochSeconds)
}

// Enabled reports whether any limit is configured.
func (q Quota) Enabled() bool {
	return q.MaxActionsPerEpoch > 0 || q.MaxSpendPerEpoch > 0
}

// CheckQuota verifies whether the additional action and spend fit within the
// configured quota. The returned QuotaNow reflects the updated counters when the
// quota is not exceeded.
func CheckQuota(q Quota, nowEpoch uint64, prev QuotaNow, addActions uint32, addSpend uint64) (QuotaNow, error) {
	next := prev
	if prev.EpochID != nowEpoch {
		next = QuotaNow{EpochID: nowEpoch}
	}

	if addActions > 0 {
		if next.Actions > math.MaxUint32-addActions {
			return prev, ErrQuotaCounterOverflow
		}
		next.Actions += addActions
	}
	if q.MaxActionsPerEpoch > 0 && next.Actions > q.MaxActionsPerEpoch {
		return prev, ErrQuotaActionsExceeded
	}

	if addSpend > 0 {
		if next.Spent > math.MaxUint64-addSpend {
			return prev, ErrQuotaCounterOverflow
		}
		next.Spent += addSpend
	}
	if q.MaxSpendPerEpoch > 0 && next.Spent > q.MaxSpendPerEpoch {
		return prev, ErrQuotaSpendExceeded
	}

	return next, nil
}
