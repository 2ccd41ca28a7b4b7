// Package storage loads dataset snapshots that seed the offline provider.
package storage

import (
	"context"
	"errors"
)

// Dataset returns the raw bytes of a snapshot.
type Dataset interface {
	Load(ctx context.Context) ([]byte, error)
}

// ErrDatasetNotFound is returned by TestDataset when it is configured to fail.
var ErrDatasetNotFound = errors.New("dataset not found")

// TestDataset is an in-memory Dataset for tests and embedded fixtures.
type TestDataset struct {
	data []byte
	err  error
}

func NewTestDataset(data []byte) *TestDataset {
	return &TestDataset{data: data}
}

func NewTestDatasetWithError() *TestDataset {
	return &TestDataset{err: ErrDatasetNotFound}
}

func (t *TestDataset) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
