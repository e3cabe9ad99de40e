package usage

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/janekbaraniewski/tokencat/internal/usageapi"
)

// Metrics are optional; a nil *Metrics records nothing.
type Metrics struct {
	// Polls counts completed usage polls by outcome.
	Polls *prometheus.CounterVec
	// Recoveries counts reauthentication attempts after a 401 by result.
	Recoveries *prometheus.CounterVec
	// SessionUtilization is the last reported rolling-window utilization.
	SessionUtilization prometheus.Gauge
	// WeeklyUtilization is the last reported weekly utilization.
	WeeklyUtilization prometheus.Gauge
	// MockMode is 1 while the engine shows mock data.
	MockMode prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokencat_polls_total",
				Help: "Usage polls completed, by outcome",
			},
			[]string{"outcome"},
		),
		Recoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokencat_reauth_total",
				Help: "Credential re-resolutions after an unauthorized poll, by result",
			},
			[]string{"result"},
		),
		SessionUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokencat_session_utilization_percent",
			Help: "Current rolling session window utilization",
		}),
		WeeklyUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokencat_weekly_utilization_percent",
			Help: "Current weekly window utilization",
		}),
		MockMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokencat_mock_mode",
			Help: "1 while no credential is available and mock data is shown",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Polls, m.Recoveries, m.SessionUtilization, m.WeeklyUtilization, m.MockMode)
	}
	return m
}

func (m *Metrics) observePoll(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = usageapi.KindOf(err).String()
	}
	m.Polls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRecovery(result string) {
	if m == nil {
		return
	}
	m.Recoveries.WithLabelValues(result).Inc()
}

func (m *Metrics) observeSnapshot(s Snapshot) {
	if m == nil {
		return
	}
	m.SessionUtilization.Set(s.SessionUtilization)
	m.WeeklyUtilization.Set(s.WeeklyUtilization)
	if s.UsingMockData {
		m.MockMode.Set(1)
	} else {
		m.MockMode.Set(0)
	}
}
