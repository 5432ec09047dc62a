package onboarding

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/bnema/gatekeeper/internal/domain"
)

type fakeRuntime struct {
	mu       sync.Mutex
	requests []domain.BuildRequest
	fail     map[string]error
	output   []string
	block    bool
	onBuild  func()
}

func (f *fakeRuntime) BuildImage(ctx context.Context, req domain.BuildRequest, onLine func(string)) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	err := f.fail[req.Tag]
	f.mu.Unlock()

	if f.onBuild != nil {
		f.onBuild()
	}
	for _, line := range f.output {
		onLine(line)
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeRuntime) tags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		tags = append(tags, r.Tag)
	}
	return tags
}

type fakeLogSink struct {
	mu   sync.Mutex
	logs map[string]*bytes.Buffer
	err  error
}

func (f *fakeLogSink) Open(serviceUUID string) (io.WriteCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.logs == nil {
		f.logs = make(map[string]*bytes.Buffer)
	}
	buf := &bytes.Buffer{}
	f.logs[serviceUUID] = buf
	return nopWriteCloser{buf}, nil
}

func (f *fakeLogSink) text(serviceUUID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if buf, ok := f.logs[serviceUUID]; ok {
		return buf.String()
	}
	return ""
}

type fakeMetrics struct {
	mu          sync.Mutex
	uploads     []bool
	onboardings map[domain.OnboardingState][]bool
	builds      []bool
}

func (f *fakeMetrics) PackageUploaded(ok bool, _ int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, ok)
}

func (f *fakeMetrics) OnboardingFinished(state domain.OnboardingState, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onboardings == nil {
		f.onboardings = make(map[domain.OnboardingState][]bool)
	}
	f.onboardings[state] = append(f.onboardings[state], ok)
}

func (f *fakeMetrics) ImageBuilt(ok bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds = append(f.builds, ok)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.EventType
	states []domain.OnboardingState
	err    error

	// onPublish runs after recording, outside the lock.
	onPublish func(domain.PackageEventPayload)
}

func (f *fakePublisher) Publish(eventType domain.EventType, payload any) error {
	f.mu.Lock()
	f.events = append(f.events, eventType)
	p, ok := payload.(domain.PackageEventPayload)
	if ok {
		f.states = append(f.states, p.Record.State)
	}
	hook, err := f.onPublish, f.err
	f.mu.Unlock()

	if ok && hook != nil {
		hook(p)
	}
	return err
}

var errBoom = errors.New("boom")
