// Command quadtest refines a phone outline, rectifies the photo and writes
// both the corner overlay and the rectified result.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"smudge-pin/internal/config"
	"smudge-pin/internal/imageio"
	"smudge-pin/internal/quad"
	"smudge-pin/internal/render"
	"smudge-pin/pkg/geometry"
	"smudge-pin/pkg/log"
)

func main() {
	imagePath := flag.String("i", "", "Path to phone photo")
	polygonPath := flag.String("p", "", "Path to outline JSON [{\"x\":..,\"y\":..}]")
	outDir := flag.String("o", ".", "Output directory")
	noJitter := flag.Bool("nojitter", false, "Disable the edge jitter pass")
	configPath := flag.String("config", "", "Path to YAML config")
	flag.Parse()

	if *imagePath == "" || *polygonPath == "" {
		fmt.Println("Usage: quadtest -i <image> -p <polygon.json> [-o <dir>] [-nojitter]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log.NewLogger(cfg.LogOptions())

	data, err := os.ReadFile(*polygonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read polygon: %v\n", err)
		os.Exit(1)
	}
	var polygon []geometry.Point2D
	if err := json.Unmarshal(data, &polygon); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse polygon: %v\n", err)
		os.Exit(1)
	}

	img, err := imageio.LoadMat(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()
	fmt.Printf("=== Image: %dx%d, outline: %d points ===\n", img.Cols(), img.Rows(), len(polygon))

	params := cfg.QuadParams()
	if *noJitter {
		params = params.WithoutJitter()
	}
	q, err := quad.Refine(polygon, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Refine failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("epsilon=%.2f samples=%d\n", q.Epsilon, q.Samples)
	for i, c := range q.Corners {
		fmt.Printf("  corner %d: (%.1f, %.1f)  coarse (%.1f, %.1f)\n", i, c.X, c.Y, q.Coarse[i].X, q.Coarse[i].Y)
	}

	overlay := render.Quad(img, q.Corners)
	defer overlay.Close()
	if err := render.WritePNG(*outDir+"/quad_overlay.png", overlay); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write overlay: %v\n", err)
		os.Exit(1)
	}

	rectified, err := quad.Rectify(img, q, cfg.Image.Width, cfg.Image.Height)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rectify failed: %v\n", err)
		os.Exit(1)
	}
	defer rectified.Close()
	if err := render.WritePNG(*outDir+"/rectified.png", rectified); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write rectified image: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nWrote %s/quad_overlay.png and %s/rectified.png\n", *outDir, *outDir)
}
