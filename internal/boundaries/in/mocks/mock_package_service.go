// Package mocks provides testify mocks for the inbound ports.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/gatekeeper/internal/domain"
)

// MockPackageService is a mock of in.PackageService.
type MockPackageService struct {
	mock.Mock
}

// NewMockPackageService creates a mock that asserts its expectations on cleanup.
func NewMockPackageService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPackageService {
	m := &MockPackageService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPackageService) Upload(ctx context.Context, filename string, content io.Reader) (*domain.Service, error) {
	args := m.Called(ctx, filename, content)
	svc, _ := args.Get(0).(*domain.Service)
	return svc, args.Error(1)
}

func (m *MockPackageService) Onboard(ctx context.Context, serviceUUID string) (*domain.Service, error) {
	args := m.Called(ctx, serviceUUID)
	svc, _ := args.Get(0).(*domain.Service)
	return svc, args.Error(1)
}

func (m *MockPackageService) ListPackages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockPackageService) GetPackage(ctx context.Context, serviceUUID string) (*domain.Service, error) {
	args := m.Called(ctx, serviceUUID)
	svc, _ := args.Get(0).(*domain.Service)
	return svc, args.Error(1)
}

func (m *MockPackageService) History(ctx context.Context) ([]domain.PackageRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.PackageRecord)
	return records, args.Error(1)
}
