// Package pipeline runs the calibration and query flows end to end on top
// of the analysis packages and the two stores.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"smudge-pin/internal/calibration"
	"smudge-pin/internal/cipher"
	"smudge-pin/internal/config"
	"smudge-pin/internal/guess"
	"smudge-pin/internal/imageio"
	"smudge-pin/internal/keypad"
	"smudge-pin/internal/quad"
	"smudge-pin/internal/stats"
	"smudge-pin/pkg/geometry"
	"smudge-pin/pkg/log"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
)

// Pipeline wires configuration, storage and the ordering engine together.
// Safe for concurrent use.
type Pipeline struct {
	cfg    *config.Config
	refs   *calibration.Store
	stats  *stats.Store
	engine *guess.Engine
}

// New returns a pipeline over the given stores.
func New(cfg *config.Config, refs *calibration.Store, statsStore *stats.Store) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		refs:   refs,
		stats:  statsStore,
		engine: guess.NewEngine(statsStore, cfg.GuessParams()),
	}
}

// Open builds a pipeline from cfg, opening the calibration database.
// Close releases it.
func Open(cfg *config.Config) (*Pipeline, error) {
	refs, err := calibration.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open calibration store: %w", err)
	}
	return New(cfg, refs, stats.NewStore(cfg.Stats.Dir)), nil
}

// Close closes the calibration database.
func (p *Pipeline) Close() error {
	return p.refs.Close()
}

// References exposes the calibration store.
func (p *Pipeline) References() *calibration.Store {
	return p.refs
}

// Rectify refines the phone outline and warps img onto the configured
// canonical size. A nil polygon only resizes. The caller closes the Mat.
func (p *Pipeline) Rectify(img gocv.Mat, polygon []geometry.Point2D) (gocv.Mat, *quad.Result, error) {
	w, h := p.cfg.Image.Width, p.cfg.Image.Height
	if polygon == nil {
		return imageio.Resize(img, w, h), nil, nil
	}

	q, err := quad.Refine(polygon, p.cfg.QuadParams())
	if err != nil {
		return gocv.NewMat(), nil, err
	}
	rectified, err := quad.Rectify(img, q, w, h)
	if err != nil {
		return gocv.NewMat(), nil, err
	}
	return rectified, q, nil
}

// Calibration is the outcome of a calibration run.
type Calibration struct {
	Reference *calibration.Reference `json:"reference"`
	Layout    *keypad.Layout         `json:"-"`
	Quad      *quad.Result           `json:"-"`
}

// Calibrate infers the keypad of a calibration photo and stores it under
// ref, replacing any previous reference of that name. An empty ref gets a
// generated name. polygon is the phone outline from the segmentation model;
// nil means img is already the screen.
func (p *Pipeline) Calibrate(ctx context.Context, ref string, img gocv.Mat, polygon []geometry.Point2D) (*Calibration, error) {
	rectified, q, err := p.Rectify(img, polygon)
	if err != nil {
		return nil, err
	}
	defer rectified.Close()

	layout, err := keypad.Extract(rectified, p.cfg.KeypadParams())
	if err != nil {
		return nil, err
	}

	saved, err := p.refs.Save(ctx, ref, layout.Boxes)
	if err != nil {
		return nil, err
	}

	log.Info(log.Fields{"ref": saved.Ref, "key_w": layout.KeyWidth, "key_h": layout.KeyHeight}, "calibration complete")
	return &Calibration{Reference: saved, Layout: layout, Quad: q}, nil
}

// Query is one PIN inference request for smudges detected on a rectified photo.
type Query struct {
	Ref        string                 `json:"ref"`
	Detected   []geometry.BoundingBox `json:"detected"`
	Length     int                    `json:"length"`
	Positional []int                  `json:"positional,omitempty"`
	Algorithms []string               `json:"algorithms,omitempty"`
	TopN       int                    `json:"top_n,omitempty"`
}

// Answer is the ranked outcome of a Query.
type Answer struct {
	Ref     string                 `json:"ref"`
	Guesses []cipher.Guess         `json:"guesses"`
	Result  *guess.Result          `json:"result"`
	Boxes   []geometry.BoundingBox `json:"boxes"` // Boxes of the best candidate, in entry order
}

// Best returns the top candidate PIN, or "" when none survived.
func (a *Answer) Best() string {
	if a.Result == nil || len(a.Result.Candidates) == 0 {
		return ""
	}
	return a.Result.Candidates[0].PIN
}

// Guess matches the detected smudges against the stored reference and
// ranks candidate PINs.
func (p *Pipeline) Guess(ctx context.Context, q Query) (*Answer, error) {
	ref, err := p.refs.Get(ctx, q.Ref)
	if err != nil {
		return nil, err
	}
	if err := p.checkLength(q.Length); err != nil {
		return nil, err
	}

	guesses := cipher.Match(q.Detected, ref.Boxes)
	res, err := p.engine.Guess(guess.Request{
		Ciphers:    guesses,
		Length:     q.Length,
		Positional: q.Positional,
		Algorithms: q.Algorithms,
		TopN:       q.TopN,
	})
	if err != nil {
		return nil, err
	}

	ans := &Answer{Ref: ref.Ref, Guesses: guesses, Result: res}
	if len(res.Candidates) > 0 {
		ans.Boxes = cipher.SelectBoxes(res.Candidates[0].Digits, guesses, q.Detected, ref.Boxes)
	}

	log.Info(log.Fields{"ref": ref.Ref, "detected": len(q.Detected), "best": ans.Best()}, "query ranked")
	return ans, nil
}

// GuessFromSequence ranks a digit sequence the user corrected by hand.
// Every digit is taken with full confidence and drawn on its reference box.
func (p *Pipeline) GuessFromSequence(ctx context.Context, ref string, sequence []int, q Query) (*Answer, error) {
	stored, err := p.refs.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	length := q.Length
	if length == 0 {
		length = len(sequence)
	}
	if err := p.checkLength(length); err != nil {
		return nil, err
	}

	guesses := cipher.FromSequence(sequence)
	res, err := p.engine.Guess(guess.Request{
		Ciphers:    guesses,
		Length:     length,
		Positional: q.Positional,
		Algorithms: q.Algorithms,
		TopN:       q.TopN,
	})
	if err != nil {
		return nil, err
	}

	ans := &Answer{Ref: stored.Ref, Guesses: guesses, Result: res}
	if len(res.Candidates) > 0 {
		ans.Boxes = cipher.SelectBoxes(res.Candidates[0].Digits, nil, nil, stored.Boxes)
	}
	return ans, nil
}

// GuessBatch runs independent queries in parallel. Answers keep the order
// of queries; the first error cancels the rest.
func (p *Pipeline) GuessBatch(ctx context.Context, queries []Query) ([]*Answer, error) {
	answers := make([]*Answer, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ans, err := p.Guess(ctx, q)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			answers[i] = ans
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

// checkLength fails with stats.ErrUnsupportedPinLength when no statistics
// can serve length.
func (p *Pipeline) checkLength(length int) error {
	if !p.cfg.SupportsLength(length) {
		return fmt.Errorf("length %d outside configured %d..%d: %w",
			length, p.cfg.Stats.MinLength, p.cfg.Stats.MaxLength, stats.ErrUnsupportedPinLength)
	}
	if !p.stats.Has(length) {
		return fmt.Errorf("no statistics built for length %d: %w", length, stats.ErrUnsupportedPinLength)
	}
	return nil
}

// NeedsStatistics reports whether length is supported but its tables have
// not been built yet.
func (p *Pipeline) NeedsStatistics(length int) bool {
	return p.cfg.SupportsLength(length) && !p.stats.Has(length)
}

// BuildStatistics builds and stores the tables for length from a corpus of
// known PINs.
func (p *Pipeline) BuildStatistics(r io.Reader, length int) (*stats.Table, error) {
	if !p.cfg.SupportsLength(length) {
		return nil, fmt.Errorf("length %d outside configured %d..%d: %w",
			length, p.cfg.Stats.MinLength, p.cfg.Stats.MaxLength, stats.ErrUnsupportedPinLength)
	}
	t, err := p.stats.Build(r, length)
	if err != nil {
		var ce *stats.CorpusError
		if errors.As(err, &ce) {
			log.Warn(log.Fields{"length": length, "bad_lines": len(ce.Lines)}, "corpus rejected")
		}
		return nil, err
	}
	return t, nil
}

// Algorithms lists the ordering algorithms that can be requested.
func (p *Pipeline) Algorithms() []string {
	return guess.Algorithms()
}
