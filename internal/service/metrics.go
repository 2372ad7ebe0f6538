package service

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	PushSent   prometheus.Counter
	PushFailed prometheus.Counter
	WarsOpened prometheus.Counter
	WarsClosed prometheus.Counter
	Responses  *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PushSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clanhub_push_sent_total",
			Help: "Push notifications accepted by the gateway",
		}),
		PushFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clanhub_push_failed_total",
			Help: "Push notifications that could not be delivered",
		}),
		WarsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clanhub_siege_war_opened_total",
			Help: "Siege War periods opened",
		}),
		WarsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clanhub_siege_war_closed_total",
			Help: "Siege War periods deactivated",
		}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clanhub_siege_war_responses_total",
			Help: "Siege War responses stored, by response type",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.PushSent, m.PushFailed, m.WarsOpened, m.WarsClosed, m.Responses)
	}
	return m
}
