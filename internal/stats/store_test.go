package stats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func buildAndSave(t *testing.T, dir, corpus string, length int) *Table {
	t.Helper()
	table, err := Build(strings.NewReader(corpus), length)
	require.NoError(t, err)
	require.NoError(t, Save(dir, table))
	return table
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := buildAndSave(t, dir, "1234\n4321\n1111\n", 4)

	assert.DirExists(t, filepath.Join(dir, "four_symbols"))
	assert.True(t, Exists(dir, 4))

	got, err := Load(dir, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Length)
	assert.True(t, mat.Equal(want.Frequency, got.Frequency))
	assert.True(t, mat.Equal(want.IndexProb, got.IndexProb))
	assert.True(t, mat.Equal(want.Markov, got.Markov))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir(), 5)
	assert.True(t, errors.Is(err, ErrUnsupportedPinLength))
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	buildAndSave(t, dir, "1234\n", 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "four_symbols", markovFile), []byte("junk"), 0644))

	_, err := Load(dir, 4)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedPinLength))
}

func TestLengths(t *testing.T) {
	dir := t.TempDir()
	buildAndSave(t, dir, "12345\n", 5)
	buildAndSave(t, dir, "1234\n", 4)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "six_symbols"), 0755)) // empty, ignored

	got, err := Lengths(dir)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{4, 5}, got); diff != "" {
		t.Errorf("Lengths mismatch (-want +got):\n%s", diff)
	}

	none, err := Lengths(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ConcurrentLengths(t *testing.T) {
	dir := t.TempDir()
	buildAndSave(t, dir, "1234\n2345\n", 4)
	buildAndSave(t, dir, "12345\n23456\n", 5)

	store := NewStore(dir)

	var wg sync.WaitGroup
	results := make([]*Table, 64)
	errs := make([]error, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.Table(4 + i%2)
		}(i)
	}
	wg.Wait()

	for i, tbl := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 4+i%2, tbl.Length)
		assert.Same(t, results[i%2], tbl, "cached table differs for call %d", i)
	}
}

func TestStore_MissingLength(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.False(t, store.Has(6))
	_, err := store.Table(6)
	assert.True(t, errors.Is(err, ErrUnsupportedPinLength))
}

func TestStore_BuildReplacesCache(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	first, err := store.Build(strings.NewReader("1111\n"), 4)
	require.NoError(t, err)
	assert.True(t, store.Has(4))

	cached, err := store.Table(4)
	require.NoError(t, err)
	assert.Same(t, first, cached)

	second, err := store.Build(strings.NewReader(strings.Repeat("2222\n", 5)), 4)
	require.NoError(t, err)
	cached, err = store.Table(4)
	require.NoError(t, err)
	assert.Same(t, second, cached)
	assert.Greater(t, cached.IndexProbOf(2, 0), cached.IndexProbOf(1, 0))

	reloaded, err := NewStore(dir).Table(4)
	require.NoError(t, err)
	assert.True(t, mat.Equal(second.IndexProb, reloaded.IndexProb))
}
