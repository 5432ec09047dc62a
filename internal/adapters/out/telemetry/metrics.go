// Package telemetry exposes onboarding metrics to Prometheus.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bnema/gatekeeper/internal/domain"
)

const namespace = "gatekeeper"

// Metrics holds the gatekeeper-specific Prometheus collectors.
type Metrics struct {
	// Uploads
	UploadsTotal *prometheus.CounterVec
	UploadBytes  prometheus.Counter

	// Onboarding
	OnboardingsTotal *prometheus.CounterVec

	// Image builds
	BuildsTotal   *prometheus.CounterVec
	BuildDuration prometheus.Histogram
}

// NewMetrics creates all collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "package_uploads_total",
			Help:      "Total package uploads by result.",
		}, []string{"result"}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "package_upload_bytes_total",
			Help:      "Total bytes of stored package archives.",
		}),
		OnboardingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onboardings_total",
			Help:      "Total onboarding runs by final state and result.",
		}, []string{"state", "result"}),
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_builds_total",
			Help:      "Total image builds by result.",
		}, []string{"result"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_build_duration_seconds",
			Help:      "Image build duration in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 900, 1800},
		}),
	}

	for _, c := range []prometheus.Collector{
		m.UploadsTotal, m.UploadBytes, m.OnboardingsTotal, m.BuildsTotal, m.BuildDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// PackageUploaded records one upload attempt.
func (m *Metrics) PackageUploaded(ok bool, size int64) {
	m.UploadsTotal.WithLabelValues(result(ok)).Inc()
	if ok {
		m.UploadBytes.Add(float64(size))
	}
}

// OnboardingFinished records the end of one onboarding run.
func (m *Metrics) OnboardingFinished(state domain.OnboardingState, ok bool) {
	m.OnboardingsTotal.WithLabelValues(string(state), result(ok)).Inc()
}

// ImageBuilt records one image build attempt.
func (m *Metrics) ImageBuilt(ok bool, d time.Duration) {
	m.BuildsTotal.WithLabelValues(result(ok)).Inc()
	m.BuildDuration.Observe(d.Seconds())
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
