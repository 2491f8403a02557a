package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"civireport/internal/storage"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, bucket, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo); ok {
		return f(ctx, bucket, key, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}
