package stats

import (
	"encoding"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	frequencyFile = "frequencies.gonum"
	indexFile     = "prob_by_index.gonum"
	markovFile    = "markov_transitions.gonum"
)

// Save writes the three tables under <dir>/<DirName(length)>/.
func Save(dir string, t *Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	path := filepath.Join(dir, DirName(t.Length))
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create stats dir: %w", err)
	}

	files := []struct {
		name string
		m    encoding.BinaryMarshaler
	}{
		{frequencyFile, t.Frequency},
		{indexFile, t.IndexProb},
		{markovFile, t.Markov},
	}
	for _, f := range files {
		data, err := f.m.MarshalBinary()
		if err != nil {
			return fmt.Errorf("marshal %s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(path, f.name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the tables of a PIN length from dir. A missing directory
// yields ErrUnsupportedPinLength.
func Load(dir string, length int) (*Table, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, DirName(length))

	t := &Table{
		Length:    length,
		Frequency: &mat.VecDense{},
		IndexProb: &mat.Dense{},
		Markov:    &mat.Dense{},
	}
	files := []struct {
		name string
		m    encoding.BinaryUnmarshaler
	}{
		{frequencyFile, t.Frequency},
		{indexFile, t.IndexProb},
		{markovFile, t.Markov},
	}
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(path, f.name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no %s for length %d in %s: %w", f.name, length, dir, ErrUnsupportedPinLength)
		}
		if err != nil {
			return nil, err
		}
		if err := f.m.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", f.name, err)
		}
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tables in %s: %w", path, err)
	}
	return t, nil
}

// Exists reports whether tables for a PIN length are present in dir.
func Exists(dir string, length int) bool {
	path := filepath.Join(dir, DirName(length))
	for _, name := range []string{frequencyFile, indexFile, markovFile} {
		if _, err := os.Stat(filepath.Join(path, name)); err != nil {
			return false
		}
	}
	return true
}

// Lengths lists the PIN lengths with tables in dir, ascending.
func Lengths(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lengths []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, ok := lengthFromDirName(e.Name()); ok && Exists(dir, n) {
			lengths = append(lengths, n)
		}
	}
	sort.Ints(lengths)
	return lengths, nil
}
