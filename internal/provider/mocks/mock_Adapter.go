// Package mocks provides test doubles for provider adapters.
package mocks

import (
	"context"

	provider "github.com/sells-group/versus-cli/internal/provider"
	mock "github.com/stretchr/testify/mock"
)

// MockAdapter is a mock type for the Adapter interface.
type MockAdapter struct {
	mock.Mock
}

// Name provides a mock function with no fields
func (_m *MockAdapter) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Name")
	}

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// Configured provides a mock function with no fields
func (_m *MockAdapter) Configured() bool {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Configured")
	}

	var r0 bool
	if rf, ok := ret.Get(0).(func() bool); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(bool)
	}

	return r0
}

// Invoke provides a mock function with given fields: ctx, req
func (_m *MockAdapter) Invoke(ctx context.Context, req provider.Request) provider.Outcome {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Invoke")
	}

	var r0 provider.Outcome
	if rf, ok := ret.Get(0).(func(context.Context, provider.Request) provider.Outcome); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(provider.Outcome)
	}

	return r0
}

// NewMockAdapter creates a new instance of MockAdapter. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAdapter {
	m := &MockAdapter{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
