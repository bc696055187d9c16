package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
)

type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheProvider) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func TestCacheWarmingService_WarmCache(t *testing.T) {
	ctx := context.Background()

	t.Run("stores doctor listing", func(t *testing.T) {
		repo := new(MockDoctorRepository)
		cache := new(MockCacheProvider)
		svc := services.NewCacheWarmingService(repo, cache)

		repo.On("ListAll", ctx).Return([]*entities.DoctorProfile{{ID: "d1", Name: "Dr. Rao"}}, nil)

		var stored []byte
		cache.On("Set", ctx, providers.DoctorsListCacheKey, mock.Anything, 300).
			Run(func(args mock.Arguments) { stored = args.Get(2).([]byte) }).
			Return(nil)

		require.NoError(t, svc.WarmCache(ctx))

		var doctors []*entities.DoctorProfile
		require.NoError(t, json.Unmarshal(stored, &doctors))
		require.Len(t, doctors, 1)
		assert.Equal(t, "Dr. Rao", doctors[0].Name)
	})

	t.Run("repository failure leaves cache alone", func(t *testing.T) {
		repo := new(MockDoctorRepository)
		cache := new(MockCacheProvider)
		svc := services.NewCacheWarmingService(repo, cache)

		repo.On("ListAll", ctx).Return(nil, errors.New("db down"))

		assert.Error(t, svc.WarmCache(ctx))
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
