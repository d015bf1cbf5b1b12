// Package mocks provides test doubles for the store package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/grant-review/internal/model"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// GetCriteria provides a mock function with given fields: ctx, orgID, formID
func (_m *MockStore) GetCriteria(ctx context.Context, orgID string, formID string) ([]model.Criterion, error) {
	ret := _m.Called(ctx, orgID, formID)

	if len(ret) == 0 {
		panic("no return value specified for GetCriteria")
	}

	var r0 []model.Criterion
	if rf, ok := ret.Get(0).(func(context.Context, string, string) []model.Criterion); ok {
		r0 = rf(ctx, orgID, formID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Criterion)
	}

	return r0, ret.Error(1)
}

// GetForm provides a mock function with given fields: ctx, orgID, formID
func (_m *MockStore) GetForm(ctx context.Context, orgID string, formID string) (*model.Form, error) {
	ret := _m.Called(ctx, orgID, formID)

	if len(ret) == 0 {
		panic("no return value specified for GetForm")
	}

	var r0 *model.Form
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *model.Form); ok {
		r0 = rf(ctx, orgID, formID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Form)
	}

	return r0, ret.Error(1)
}

// GetAnswers provides a mock function with given fields: ctx, formID, userID
func (_m *MockStore) GetAnswers(ctx context.Context, formID string, userID string) ([]model.Answer, error) {
	ret := _m.Called(ctx, formID, userID)

	if len(ret) == 0 {
		panic("no return value specified for GetAnswers")
	}

	var r0 []model.Answer
	if rf, ok := ret.Get(0).(func(context.Context, string, string) []model.Answer); ok {
		r0 = rf(ctx, formID, userID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Answer)
	}

	return r0, ret.Error(1)
}

// SaveEvaluation provides a mock function with given fields: ctx, score
func (_m *MockStore) SaveEvaluation(ctx context.Context, score *model.AggregatedScore) error {
	ret := _m.Called(ctx, score)

	if len(ret) == 0 {
		panic("no return value specified for SaveEvaluation")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *model.AggregatedScore) error); ok {
		return rf(ctx, score)
	}
	return ret.Error(0)
}

// GetLatestEvaluation provides a mock function with given fields: ctx, formID, userID
func (_m *MockStore) GetLatestEvaluation(ctx context.Context, formID string, userID string) (*model.AggregatedScore, error) {
	ret := _m.Called(ctx, formID, userID)

	if len(ret) == 0 {
		panic("no return value specified for GetLatestEvaluation")
	}

	var r0 *model.AggregatedScore
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *model.AggregatedScore); ok {
		r0 = rf(ctx, formID, userID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.AggregatedScore)
	}

	return r0, ret.Error(1)
}

// SaveForm provides a mock function with given fields: ctx, form
func (_m *MockStore) SaveForm(ctx context.Context, form *model.Form) error {
	ret := _m.Called(ctx, form)

	if len(ret) == 0 {
		panic("no return value specified for SaveForm")
	}

	return ret.Error(0)
}

// SaveCriteria provides a mock function with given fields: ctx, orgID, formID, criteria
func (_m *MockStore) SaveCriteria(ctx context.Context, orgID string, formID string, criteria []model.Criterion) error {
	ret := _m.Called(ctx, orgID, formID, criteria)

	if len(ret) == 0 {
		panic("no return value specified for SaveCriteria")
	}

	return ret.Error(0)
}

// SaveAnswers provides a mock function with given fields: ctx, formID, userID, answers
func (_m *MockStore) SaveAnswers(ctx context.Context, formID string, userID string, answers []model.Answer) error {
	ret := _m.Called(ctx, formID, userID, answers)

	if len(ret) == 0 {
		panic("no return value specified for SaveAnswers")
	}

	return ret.Error(0)
}

// Ping provides a mock function with given fields: ctx
func (_m *MockStore) Ping(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Ping")
	}

	return ret.Error(0)
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	return ret.Error(0)
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	return ret.Error(0)
}

// NewMockStore creates a new instance of MockStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
