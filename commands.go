package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"smudge-pin/internal/config"
	"smudge-pin/internal/guess"
	"smudge-pin/internal/imageio"
	"smudge-pin/internal/pipeline"
	"smudge-pin/internal/render"
	"smudge-pin/internal/stats"
	"smudge-pin/internal/version"
	"smudge-pin/pkg/geometry"
)

func runCalibrate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	imagePath := fs.String("image", "", "Calibration photo of the keypad")
	polygonPath := fs.String("polygon", "", "Phone outline JSON [{\"x\":..,\"y\":..}]; omit if the photo is already rectified")
	ref := fs.String("ref", "", "Reference name (generated when empty)")
	overlay := fs.String("overlay", "", "Write the rectified photo with keypad boxes to this PNG")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" {
		fs.Usage()
		return flag.ErrHelp
	}

	img, err := imageio.LoadMat(*imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	var polygon []geometry.Point2D
	if *polygonPath != "" {
		if err := readJSON(*polygonPath, &polygon); err != nil {
			return err
		}
	}

	p, err := pipeline.Open(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	cal, err := p.Calibrate(context.Background(), *ref, img, polygon)
	if err != nil {
		return err
	}

	if *overlay != "" {
		rectified, _, err := p.Rectify(img, polygon)
		if err != nil {
			return err
		}
		defer rectified.Close()
		drawn := render.Reference(rectified, cal.Reference.Boxes)
		defer drawn.Close()
		if err := render.WritePNG(*overlay, drawn); err != nil {
			return err
		}
	}

	return printJSON(cal.Reference)
}

func runRectify(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("rectify", flag.ContinueOnError)
	imagePath := fs.String("image", "", "Phone photo")
	polygonPath := fs.String("polygon", "", "Phone outline JSON [{\"x\":..,\"y\":..}]")
	out := fs.String("out", "", "Rectified output image (.png, .jpg, .tiff, .bmp)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" || *polygonPath == "" || *out == "" {
		fs.Usage()
		return flag.ErrHelp
	}

	var polygon []geometry.Point2D
	if err := readJSON(*polygonPath, &polygon); err != nil {
		return err
	}
	img, err := imageio.LoadMat(*imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	p, err := pipeline.Open(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	rectified, q, err := p.Rectify(img, polygon)
	if err != nil {
		return err
	}
	defer rectified.Close()
	if err := imageio.Save(*out, rectified); err != nil {
		return err
	}
	return printJSON(map[string]interface{}{"out": *out, "corners": q.Corners})
}

func runGuess(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("guess", flag.ContinueOnError)
	ref := fs.String("ref", "", "Calibration reference name")
	boxesPath := fs.String("boxes", "", "Detected smudges JSON [{\"x\":..,\"y\":..,\"w\":..,\"h\":..}]")
	sequence := fs.String("sequence", "", "Digits corrected by hand, e.g. 142536; replaces -boxes")
	queriesPath := fs.String("queries", "", "Batch of queries JSON [{\"ref\":..,\"detected\":[..],\"length\":..}], ranked in parallel")
	length := fs.Int("length", cfg.Stats.DefaultLength, "PIN length")
	pattern := fs.String("positional", "", "Known digits per position, '?' for unknown, e.g. 1????6")
	algorithms := fs.String("algorithms", "", "Comma-separated ordering algorithms (default from config)")
	top := fs.Int("top", 0, "Number of candidates (default from config)")
	imagePath := fs.String("image", "", "Rectified query photo, for -overlay")
	overlay := fs.String("overlay", "", "Write the best candidate's boxes over -image to this PNG")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *queriesPath != "" {
		return runGuessBatch(cfg, *queriesPath)
	}
	if *ref == "" || (*boxesPath == "") == (*sequence == "") {
		fmt.Fprintln(os.Stderr, "guess needs -queries, or -ref and exactly one of -boxes or -sequence")
		fs.Usage()
		return flag.ErrHelp
	}

	q := pipeline.Query{Ref: *ref, Length: *length, TopN: *top}
	if *pattern != "" {
		positional, err := guess.ParsePattern(*pattern)
		if err != nil {
			return err
		}
		q.Positional = positional
	}
	if *algorithms != "" {
		q.Algorithms = strings.Split(*algorithms, ",")
	}

	p, err := pipeline.Open(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	var ans *pipeline.Answer
	if *sequence != "" {
		digits, err := parseDigits(*sequence)
		if err != nil {
			return err
		}
		ans, err = p.GuessFromSequence(context.Background(), *ref, digits, q)
		if err != nil {
			return err
		}
	} else {
		if err := readJSON(*boxesPath, &q.Detected); err != nil {
			return err
		}
		ans, err = p.Guess(context.Background(), q)
		if err != nil {
			return err
		}
	}

	if *overlay != "" && *imagePath != "" && len(ans.Result.Candidates) > 0 {
		img, err := imageio.LoadMat(*imagePath)
		if err != nil {
			return err
		}
		defer img.Close()
		drawn := render.Sequence(img, ans.Boxes, ans.Result.Candidates[0].Digits)
		defer drawn.Close()
		if err := render.WritePNG(*overlay, drawn); err != nil {
			return err
		}
	}

	return printJSON(ans)
}

// runGuessBatch ranks every query of a JSON file. Queries without a length
// use the configured default.
func runGuessBatch(cfg *config.Config, path string) error {
	var queries []pipeline.Query
	if err := readJSON(path, &queries); err != nil {
		return err
	}
	for i := range queries {
		if queries[i].Length == 0 {
			queries[i].Length = cfg.Stats.DefaultLength
		}
	}

	p, err := pipeline.Open(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	answers, err := p.GuessBatch(context.Background(), queries)
	if err != nil {
		return err
	}
	return printJSON(answers)
}

func runRefs(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	p, err := pipeline.Open(cfg)
	if err != nil {
		return err
	}
	defer p.Close()
	store := p.References()
	ctx := context.Background()

	switch args[0] {
	case "list":
		refs, err := store.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(refs)
	case "get", "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: refs %s <ref>", args[0])
		}
		if args[0] == "delete" {
			return store.Delete(ctx, args[1])
		}
		ref, err := store.Get(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(ref)
	default:
		return fmt.Errorf("unknown refs action %q (list, get, delete)", args[0])
	}
}

func runBuildStats(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("build-stats", flag.ContinueOnError)
	corpus := fs.String("corpus", "", "Corpus of known PINs, one per line")
	length := fs.Int("length", cfg.Stats.DefaultLength, "PIN length of the corpus")
	force := fs.Bool("force", false, "Rebuild even if statistics exist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *corpus == "" {
		fs.Usage()
		return flag.ErrHelp
	}

	p, err := pipeline.Open(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if !*force && !p.NeedsStatistics(*length) && cfg.SupportsLength(*length) {
		return printJSON(map[string]interface{}{"length": *length, "built": false, "dir": cfg.Stats.Dir})
	}

	f, err := os.Open(*corpus)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := p.BuildStatistics(f, *length); err != nil {
		return err
	}
	return printJSON(map[string]interface{}{"length": *length, "built": true, "dir": cfg.Stats.Dir + "/" + stats.DirName(*length)})
}

func runAlgorithms(_ *config.Config, _ []string) error {
	return printJSON(guess.Algorithms())
}

func runVersion(_ *config.Config, _ []string) error {
	return printJSON(version.Get())
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func parseDigits(s string) ([]int, error) {
	digits := make([]int, 0, len(s))
	for _, r := range s {
		d, err := strconv.Atoi(string(r))
		if err != nil {
			return nil, fmt.Errorf("%q is not a digit sequence", s)
		}
		digits = append(digits, d)
	}
	return digits, nil
}
