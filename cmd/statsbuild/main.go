// Command statsbuild builds PIN statistics from a single corpus file and
// reports the lengths now available.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"smudge-pin/internal/config"
	"smudge-pin/internal/stats"
	"smudge-pin/pkg/log"
)

func main() {
	corpus := flag.String("c", "", "Corpus file, one PIN per line")
	length := flag.Int("n", 0, "PIN length of the corpus")
	outDir := flag.String("o", "", "Statistics directory (default from config)")
	configPath := flag.String("config", "", "Path to YAML config")
	flag.Parse()

	if *corpus == "" || *length == 0 {
		fmt.Println("Usage: statsbuild -c <corpus.txt> -n <length> [-o <dir>]")
		os.Exit(1)
	}

	if err := run(*configPath, *corpus, *outDir, *length); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(configPath, corpus, outDir string, length int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.NewLogger(cfg.LogOptions())

	dir := cfg.Stats.Dir
	if outDir != "" {
		dir = outDir
	}

	f, err := os.Open(corpus)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	store := stats.NewStore(dir)
	t, err := store.Build(f, length)
	if err != nil {
		var ce *stats.CorpusError
		if errors.As(err, &ce) && len(ce.Lines) > 0 {
			fmt.Fprintf(os.Stderr, "Corpus has %d malformed lines, first at line %d\n", len(ce.Lines), ce.Lines[0])
		}
		return fmt.Errorf("build: %w", err)
	}

	best, bestP := 0, 0.0
	for i := 0; i < t.Frequency.Len(); i++ {
		if p := t.Frequency.AtVec(i); p > bestP {
			best, bestP = i, p
		}
	}
	fmt.Printf("=== Built %d-digit statistics in %s ===\n", t.Length, filepath.Join(dir, stats.DirName(t.Length)))
	fmt.Printf("most frequent PIN: %0*d (p=%.5f)\n", t.Length, best, bestP)

	lengths, err := store.Lengths()
	if err != nil {
		return fmt.Errorf("list lengths: %w", err)
	}
	fmt.Printf("available lengths: %v\n", lengths)
	return nil
}
