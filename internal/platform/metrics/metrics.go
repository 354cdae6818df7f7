package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	OTPIssued            prometheus.Counter
	OTPConsumed          prometheus.Counter
	StudentsOnboarded    prometheus.Counter
	CollegeRegistrations prometheus.Counter
	CollegeDecisions     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		OTPIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collegenet_otps_issued_total",
			Help: "Total number of verification codes issued (including resends)",
		}),
		OTPConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collegenet_otps_consumed_total",
			Help: "Total number of verification codes successfully consumed",
		}),
		StudentsOnboarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collegenet_students_onboarded_total",
			Help: "Total number of student accounts created via OTP verification",
		}),
		CollegeRegistrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collegenet_college_registrations_total",
			Help: "Total number of college registrations submitted",
		}),
		CollegeDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "collegenet_college_decisions_total",
			Help: "Total number of college registration decisions",
		}, []string{"decision"}),
	}
}
