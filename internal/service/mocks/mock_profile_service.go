package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finassist/internal/model"
	"finassist/internal/service"
)

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Update(ctx context.Context, usr *model.User, form model.Profile, doc *service.Upload) (*service.ProfileResult, error) {
	args := m.Called(ctx, usr, form, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileResult), args.Error(1)
}

func (m *MockProfileService) UpdateAccount(ctx context.Context, usr *model.User, in service.AccountInput) (*model.User, error) {
	args := m.Called(ctx, usr, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProfileService) DocumentURL(ctx context.Context, usr *model.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}
