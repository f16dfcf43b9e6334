package remock

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/remock/internal/canon"
	"github.com/roach88/remock/internal/config"
	"github.com/roach88/remock/internal/fixture"
)

// newTestRegistry builds a quiet registry with a pinned mode and the
// given writable roots, immune to the ambient command line and config.
func newTestRegistry(t *testing.T, mode Mode, roots ...string) *Registry {
	t.Helper()
	opts := []RegistryOption{
		WithConfig(config.Default()),
		WithLogger(DiscardLogger()),
		WithDefaultMode(mode),
		withArgs([]string{}),
	}
	for _, root := range roots {
		opts = append(opts, WithWritableRoot(root))
	}
	return NewRegistry(opts...)
}

// writeStoreFile persists records as a fixture file for replay tests.
func writeStoreFile(t *testing.T, path string, records map[string][]fixture.Record) {
	t.Helper()
	data, err := fixture.Encode(records)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func intRecord(output int64, inputs ...int64) fixture.Record {
	arr := make(canon.Array, len(inputs))
	for i, v := range inputs {
		arr[i] = canon.Int(v)
	}
	return fixture.Record{Input: arr, Output: canon.Int(output)}
}

// sumOriginal and mulOriginal are distinct top-level functions so tests
// exercising occurrence indices get distinct function identities.
func sumOriginal(_ context.Context, args ...any) (any, error) {
	total := int64(0)
	for _, a := range args {
		total += int64(a.(int))
	}
	return total, nil
}

func mulOriginal(_ context.Context, args ...any) (any, error) {
	product := int64(1)
	for _, a := range args {
		product *= int64(a.(int))
	}
	return product, nil
}

// neverCalled fails the test if the harness ever invokes the original in
// replay mode.
func neverCalled(t *testing.T) Func {
	return func(_ context.Context, _ ...any) (any, error) {
		t.Error("original function invoked in replay mode")
		return nil, nil
	}
}
