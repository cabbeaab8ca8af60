package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the raffle service.
type Metrics struct {
	EntriesTotal         prometheus.Counter
	EntriesRejected      *prometheus.CounterVec
	UpkeepChecks         *prometheus.CounterVec
	SettlementsRequested prometheus.Counter
	RoundsSettled        prometheus.Counter
	SettlementFailures   prometheus.Counter
	PoolBalance          prometheus.Gauge
	Players              prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EntriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raffled_entries_total",
			Help: "Total number of admitted raffle entries",
		}),
		EntriesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "raffled_entries_rejected_total",
			Help: "Rejected raffle entries by reason",
		}, []string{"reason"}),
		UpkeepChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "raffled_upkeep_checks_total",
			Help: "Upkeep eligibility checks by outcome",
		}, []string{"eligible"}),
		SettlementsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raffled_settlements_requested_total",
			Help: "Randomness requests issued",
		}),
		RoundsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raffled_rounds_settled_total",
			Help: "Rounds settled with a winner paid out",
		}),
		SettlementFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "raffled_settlement_failures_total",
			Help: "Settlements aborted because the winner payout failed",
		}),
		PoolBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "raffled_pool_balance_base_units",
			Help: "Current pool balance in base units (float approximation)",
		}),
		Players: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "raffled_players",
			Help: "Participants registered in the current round",
		}),
	}
}

// ObservePool updates the balance and player gauges after a mutation.
// Balances beyond float64 precision degrade gracefully; the gauge is for
// dashboards, not accounting.
func (m *Metrics) ObservePool(balance *big.Int, players int) {
	if balance != nil {
		f, _ := new(big.Float).SetInt(balance).Float64()
		m.PoolBalance.Set(f)
	}
	m.Players.Set(float64(players))
}
