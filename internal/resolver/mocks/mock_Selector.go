package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/staff-finder/internal/model"
)

// MockSelector is a mock type for the Selector interface.
type MockSelector struct {
	mock.Mock
}

// Select provides a mock function with given fields: ctx, school, candidates
func (_m *MockSelector) Select(ctx context.Context, school model.SchoolRecord, candidates []model.Candidate) (model.Decision, error) {
	ret := _m.Called(ctx, school, candidates)

	if len(ret) == 0 {
		panic("no return value specified for Select")
	}

	var r0 model.Decision
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.SchoolRecord, []model.Candidate) (model.Decision, error)); ok {
		return rf(ctx, school, candidates)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.SchoolRecord, []model.Candidate) model.Decision); ok {
		r0 = rf(ctx, school, candidates)
	} else {
		r0 = ret.Get(0).(model.Decision)
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.SchoolRecord, []model.Candidate) error); ok {
		r1 = rf(ctx, school, candidates)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockSelector creates a new instance of MockSelector. It also registers
// a cleanup function to assert the mocks expectations.
func NewMockSelector(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSelector {
	m := &MockSelector{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
