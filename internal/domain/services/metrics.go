package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 业务指标
type Metrics struct {
	PassesCreated    *prometheus.CounterVec
	PassesExpired    prometheus.Counter
	PassesCancelled  prometheus.Counter
	PassRedemptions  *prometheus.CounterVec
	ReportsGenerated *prometheus.CounterVec
	Invitations      *prometheus.CounterVec
}

// NewMetrics 注册业务指标，重复注册时复用已有的收集器
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		PassesCreated: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_passes_created_total",
			Help: "Access passes issued, by access type.",
		}, []string{"access_type"})),
		PassesExpired: registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "access_passes_expired_total",
			Help: "Access passes flipped to expired on read.",
		})),
		PassesCancelled: registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "access_passes_cancelled_total",
			Help: "Access passes cancelled by their owner.",
		})),
		PassRedemptions: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_pass_redemptions_total",
			Help: "Gate redemption attempts, by result.",
		}, []string{"result"})),
		ReportsGenerated: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incident_reports_generated_total",
			Help: "Incident report generation attempts, by result.",
		}, []string{"result"})),
		Invitations: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "user_invitations_total",
			Help: "User invitations, by result.",
		}, []string{"result"})),
	}
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) passCreated(t string) {
	if m != nil {
		m.PassesCreated.WithLabelValues(t).Inc()
	}
}

func (m *Metrics) passExpired() {
	if m != nil {
		m.PassesExpired.Inc()
	}
}

func (m *Metrics) passCancelled() {
	if m != nil {
		m.PassesCancelled.Inc()
	}
}

func (m *Metrics) redemption(result string) {
	if m != nil {
		m.PassRedemptions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) report(result string) {
	if m != nil {
		m.ReportsGenerated.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) invitation(result string) {
	if m != nil {
		m.Invitations.WithLabelValues(result).Inc()
	}
}
