package metrics

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	nativecommon "github.com/cemleme/GRB-contracts/native/common"
)

// GameMetrics tracks facade calls and the resources flowing through them.
type GameMetrics struct {
	calls            *prometheus.CounterVec
	callLatency      *prometheus.HistogramVec
	resourceFlow     *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	shipsMinted      prometheus.Counter
	activeExplores   prometheus.Gauge
}

var (
	gameOnce     sync.Once
	gameRegistry *GameMetrics
)

// Game returns the process wide game metrics registry.
func Game() *GameMetrics {
	gameOnce.Do(func() {
		gameRegistry = &GameMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "game_calls_total",
				Help: "Count of game operations by module, operation and outcome.",
			}, []string{"module", "op", "outcome"}),
			callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "game_call_duration_seconds",
				Help:    "Latency of game operations including commit.",
				Buckets: prometheus.DefBuckets,
			}, []string{"module", "op"}),
			resourceFlow: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "game_resource_flow_total",
				Help: "Whole units of each resource credited or debited by direction.",
			}, []string{"kind", "direction"}),
			providerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "game_provider_failures_total",
				Help: "Count of calls aborted because an external provider failed.",
			}, []string{"module"}),
			shipsMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "game_ships_minted_total",
				Help: "Count of ships minted.",
			}),
			activeExplores: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "game_active_explorations",
				Help: "Fleets currently out exploring.",
			}),
		}
		prometheus.MustRegister(
			gameRegistry.calls,
			gameRegistry.callLatency,
			gameRegistry.resourceFlow,
			gameRegistry.providerFailures,
			gameRegistry.shipsMinted,
			gameRegistry.activeExplores,
		)
	})
	return gameRegistry
}

// Outcome classifies an error into a stable label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, nativecommon.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, nativecommon.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, nativecommon.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, nativecommon.ErrPriceMismatch):
		return "price_mismatch"
	case errors.Is(err, nativecommon.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, nativecommon.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, nativecommon.ErrNotFound):
		return "not_found"
	case errors.Is(err, nativecommon.ErrModulePaused):
		return "paused"
	case errors.Is(err, nativecommon.ErrQuotaActionsExceeded), errors.Is(err, nativecommon.ErrQuotaSpendExceeded):
		return "quota_exceeded"
	default:
		return "error"
	}
}

// ObserveCall records one facade call.
func (m *GameMetrics) ObserveCall(module, op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(module, op, Outcome(err)).Inc()
	m.callLatency.WithLabelValues(module, op).Observe(elapsed.Seconds())
	if errors.Is(err, nativecommon.ErrProviderUnavailable) {
		m.providerFailures.WithLabelValues(module).Inc()
	}
}

var unit = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// RecordFlow adds amount (18 decimal fixed point for wei-scaled kinds) to the
// flow counter. Amounts are recorded in whole units when scaled is true.
func (m *GameMetrics) RecordFlow(kind, direction string, amount *big.Int, scaled bool) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	value := new(big.Float).SetInt(amount)
	if scaled {
		value.Quo(value, unit)
	}
	f, _ := value.Float64()
	m.resourceFlow.WithLabelValues(kind, direction).Add(f)
}

// ShipMinted counts a minted ship.
func (m *GameMetrics) ShipMinted() {
	if m == nil {
		return
	}
	m.shipsMinted.Inc()
}

// ExplorationStarted and ExplorationCompleted track fleets in flight.
func (m *GameMetrics) ExplorationStarted() {
	if m == nil {
		return
	}
	m.activeExplores.Inc()
}

func (m *GameMetrics) ExplorationCompleted() {
	if m == nil {
		return
	}
	m.activeExplores.Dec()
}

// CallsVec exposes the call counter for tests.
func (m *GameMetrics) CallsVec() *prometheus.CounterVec { return m.calls }

// FlowVec exposes the resource flow counter for tests.
func (m *GameMetrics) FlowVec() *prometheus.CounterVec { return m.resourceFlow }
