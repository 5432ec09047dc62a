package domain

// OnboardingState is the last pipeline step a service completed.
type OnboardingState string

const (
	StateUploaded                  OnboardingState = "uploaded"
	StateUnpacked                  OnboardingState = "unpacked"
	StateManifestLoaded            OnboardingState = "manifest_loaded"
	StateServiceDescriptorLoaded   OnboardingState = "service_descriptor_loaded"
	StateFunctionDescriptorsLoaded OnboardingState = "function_descriptors_loaded"
	StateBuildArtifactsResolved    OnboardingState = "build_artifacts_resolved"
	StateImagesBuilt               OnboardingState = "images_built"
	StateOnboarded                 OnboardingState = "onboarded"
)

var stateOrder = []OnboardingState{
	StateUploaded,
	StateUnpacked,
	StateManifestLoaded,
	StateServiceDescriptorLoaded,
	StateFunctionDescriptorsLoaded,
	StateBuildArtifactsResolved,
	StateImagesBuilt,
	StateOnboarded,
}

// OnboardingStates lists every state in pipeline order.
func OnboardingStates() []OnboardingState {
	out := make([]OnboardingState, len(stateOrder))
	copy(out, stateOrder)
	return out
}

// Rank returns the position of s in the pipeline, or -1 for unknown states.
func (s OnboardingState) Rank() int {
	for i, st := range stateOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the state that follows s.
func (s OnboardingState) Next() (OnboardingState, bool) {
	r := s.Rank()
	if r < 0 || r == len(stateOrder)-1 {
		return "", false
	}
	return stateOrder[r+1], true
}

// Valid reports whether s is a known state.
func (s OnboardingState) Valid() bool {
	return s.Rank() >= 0
}

func (s OnboardingState) String() string {
	return string(s)
}
