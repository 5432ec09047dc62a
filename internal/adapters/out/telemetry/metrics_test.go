package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gatekeeper/internal/domain"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	// a second set on the same registry collides
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_Record(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.PackageUploaded(true, 2048)
	m.PackageUploaded(false, 0)
	m.OnboardingFinished(domain.StateOnboarded, true)
	m.OnboardingFinished(domain.StateUnpacked, false)
	m.ImageBuilt(true, 3*time.Second)
	m.ImageBuilt(false, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("failure")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.UploadBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OnboardingsTotal.WithLabelValues("onboarded", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OnboardingsTotal.WithLabelValues("unpacked", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BuildDuration))
}
