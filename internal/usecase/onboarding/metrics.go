package onboarding

import (
	"time"

	"github.com/bnema/gatekeeper/internal/domain"
)

// Metrics receives onboarding measurements.
type Metrics interface {
	PackageUploaded(ok bool, size int64)
	OnboardingFinished(state domain.OnboardingState, ok bool)
	ImageBuilt(ok bool, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) PackageUploaded(bool, int64)                     {}
func (noopMetrics) OnboardingFinished(domain.OnboardingState, bool) {}
func (noopMetrics) ImageBuilt(bool, time.Duration)                  {}
