// Package mocks provides test doubles for the resolver collaborators.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/staff-finder/internal/model"
)

// MockGateway is a mock type for the Gateway interface.
type MockGateway struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, query
func (_m *MockGateway) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 []model.SearchHit
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]model.SearchHit, error)); ok {
		return rf(ctx, query)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []model.SearchHit); ok {
		r0 = rf(ctx, query)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.SearchHit)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, query)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockGateway creates a new instance of MockGateway. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
