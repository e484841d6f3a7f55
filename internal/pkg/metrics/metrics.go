package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels shared by the ledger counters.
const (
	ResultCharged      = "charged"
	ResultFree         = "free"
	ResultInsufficient = "insufficient"
	ResultRejected     = "rejected"
	ResultError        = "error"
	ResultSuccess      = "success"
	ResultHit          = "hit"
	ResultMiss         = "miss"
)

// LedgerMetrics groups the fuel ledger collectors.
type LedgerMetrics struct {
	DeductTotal    *prometheus.CounterVec // by action, result
	DeductAmount   *prometheus.CounterVec // by credit_type
	DeductDuration prometheus.Histogram

	RedeemTotal  *prometheus.CounterVec // by result (success or failure reason)
	GrantedTotal *prometheus.CounterVec // by source

	LockAcquireTotal    *prometheus.CounterVec // by result
	LockAcquireDuration prometheus.Histogram

	BalanceCacheTotal *prometheus.CounterVec // by result
	RefilledRowsTotal prometheus.Counter
}

var (
	once     sync.Once
	instance *LedgerMetrics
)

// Get returns the process-wide collectors, registering them on first use.
func Get() *LedgerMetrics {
	once.Do(func() {
		instance = newLedgerMetrics()
	})
	return instance
}

func newLedgerMetrics() *LedgerMetrics {
	return &LedgerMetrics{
		DeductTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuel_deduct_total",
				Help: "Deduction requests by action and outcome",
			},
			[]string{"action", "result"},
		),
		DeductAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuel_deducted_credits_total",
				Help: "Credits deducted by pool",
			},
			[]string{"credit_type"},
		),
		DeductDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fuel_deduct_duration_seconds",
				Help:    "Duration of deduction requests",
				Buckets: prometheus.DefBuckets,
			},
		),
		RedeemTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuel_promo_redeem_total",
				Help: "Promo redemption attempts by outcome",
			},
			[]string{"result"},
		),
		GrantedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuel_granted_credits_total",
				Help: "Permanent credits granted by source",
			},
			[]string{"source"},
		),
		LockAcquireTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuel_lock_acquire_total",
				Help: "Per-user ledger lock acquisitions by outcome",
			},
			[]string{"result"},
		),
		LockAcquireDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fuel_lock_acquire_duration_seconds",
				Help:    "Time spent waiting for per-user ledger locks",
				Buckets: prometheus.DefBuckets,
			},
		),
		BalanceCacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuel_balance_cache_total",
				Help: "Balance cache lookups by outcome",
			},
			[]string{"result"},
		),
		RefilledRowsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fuel_refilled_rows_total",
				Help: "Balances reset by the daily refill sweep",
			},
		),
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
