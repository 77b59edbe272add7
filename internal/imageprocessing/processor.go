package imageprocessing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rmitchellscott/qdither/internal/config"
	"github.com/rmitchellscott/qdither/internal/dither"
	"github.com/rmitchellscott/qdither/internal/kmeans"
	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/progress"
)

// PaletteSource records where the palette of a run came from
type PaletteSource string

const (
	SourceFile    PaletteSource = "file"
	SourceDefault PaletteSource = "default"
	SourceKMeans  PaletteSource = "kmeans"
)

// ProcessingOptions allows customization of the image processing pipeline
type ProcessingOptions struct {
	PalettePath         string
	Colors              int
	KMeansThreshold     float64
	KMeansMaxIterations int
	// Seed makes palette derivation reproducible; zero seeds from the clock
	Seed           uint64
	FrameThreshold int
}

// DefaultProcessingOptions returns sensible defaults for image processing
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		PalettePath:     config.NoPalette,
		Colors:          config.DefaultColors,
		KMeansThreshold: config.DefaultKMeansThreshold,
		FrameThreshold:  config.DefaultFrameThreshold,
	}
}

// OptionsFromConfig maps run options onto pipeline options
func OptionsFromConfig(o config.Options) ProcessingOptions {
	return ProcessingOptions{
		PalettePath:         o.PalettePath,
		Colors:              o.Colors,
		KMeansThreshold:     o.KMeansThreshold,
		KMeansMaxIterations: o.KMeansMaxIterations,
		Seed:                o.Seed,
		FrameThreshold:      o.FrameThreshold,
	}
}

func (o ProcessingOptions) hasPalette() bool {
	p := strings.TrimSpace(o.PalettePath)
	return p != "" && p != config.NoPalette
}

// Result describes a finished run. Buffer holds the dithered pixels.
type Result struct {
	Buffer     *dither.Buffer
	Palette    palette.Palette
	Source     PaletteSource
	Iterations int
	Stats      dither.Stats
	Elapsed    time.Duration
}

// Process selects a palette and dithers buf in place against it.
// Progress is published to cell when it is non-nil; the cell ends in the Done state.
func Process(ctx context.Context, buf *dither.Buffer, options ProcessingOptions, cell *progress.Cell) (Result, error) {
	if err := buf.Validate(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := time.Now()

	pal, source, iterations, err := ChoosePalette(buf, options)
	if err != nil {
		return Result{}, err
	}
	logging.InfoWithComponent(logging.ComponentPalette, "Palette selected",
		"source", source, "colors", len(pal), "iterations", iterations)

	var obs dither.Observer
	if cell != nil {
		cell.SetPalette(pal)
		obs = cell
	}

	ditherer := dither.NewFloydSteinberg()
	ditherer.FrameThreshold = options.FrameThreshold

	stats, err := ditherer.Dither(buf, pal, obs)
	if err != nil {
		return Result{}, fmt.Errorf("dithering failed: %w", err)
	}

	result := Result{
		Buffer:     buf,
		Palette:    pal,
		Source:     source,
		Iterations: iterations,
		Stats:      stats,
		Elapsed:    time.Since(start),
	}
	logging.InfoWithComponent(logging.ComponentPipeline, "Dithering complete",
		"pixels", stats.Pixels, "diffusions", stats.Diffusions, "publishes", stats.Publishes, "elapsed", result.Elapsed)

	return result, nil
}

// ChoosePalette loads the requested palette file, falling back to k-means clustering of buf.
// A readable file with no valid lines yields the default palette.
func ChoosePalette(buf *dither.Buffer, options ProcessingOptions) (palette.Palette, PaletteSource, int, error) {
	if options.hasPalette() {
		pal, ok, err := palette.Load(options.PalettePath)
		switch {
		case err == nil && ok:
			return pal, SourceFile, 0, nil
		case err == nil:
			logging.WarnWithComponent(logging.ComponentPalette, "No valid colors found, using default palette",
				"path", options.PalettePath)
			return pal, SourceDefault, 0, nil
		default:
			logging.WarnWithComponent(logging.ComponentPalette, "Could not read palette, clustering instead",
				"path", options.PalettePath, "error", err)
		}
	}

	kopts := kmeans.Options{
		Threshold:     options.KMeansThreshold,
		MaxIterations: options.KMeansMaxIterations,
	}
	if options.Seed != 0 {
		kopts.Rand = rand.New(rand.NewPCG(options.Seed, options.Seed))
	}

	res, err := kmeans.Cluster(buf.Pix, options.Colors, kopts)
	if err != nil {
		if errors.Is(err, kmeans.ErrInvalidK) {
			return nil, "", 0, fmt.Errorf("cannot derive a palette of %d colors: %w", options.Colors, err)
		}
		return nil, "", 0, err
	}
	return res.Centroids, SourceKMeans, res.Iterations, nil
}

