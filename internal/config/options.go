package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// NoPalette is the palette argument meaning "derive the palette from the image"
const NoPalette = "NONE"

// Defaults for options that are not set through the environment
const (
	DefaultColors          = 32
	DefaultOutputPath      = "./dither.png"
	DefaultFrameThreshold  = 1_000_000
	DefaultKMeansThreshold = 4.0
)

// Options is the full configuration of a run
type Options struct {
	ImagePath   string `validate:"required"`
	PalettePath string
	Colors      int    `validate:"min=1,max=255"`
	OutputPath  string `validate:"required"`

	MaxDimension        int     `validate:"min=0"`
	FrameThreshold      int     `validate:"min=0"`
	KMeansThreshold     float64 `validate:"gt=0"`
	KMeansMaxIterations int     `validate:"min=0"`
	Seed                uint64

	PreviewAddr     string
	PreviewInterval time.Duration `validate:"min=0"`
	PreviewLinger   time.Duration `validate:"min=0"`
	ReportInterval  time.Duration `validate:"min=0"`

	History bool

	LogLevel  string `validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `validate:"omitempty,oneof=text json"`
}

// Load reads options from the environment. Positional arguments are applied by the caller.
func Load() Options {
	return Options{
		PalettePath:         Get("QDITHER_PALETTE", NoPalette),
		Colors:              GetInt("QDITHER_COLORS", DefaultColors),
		OutputPath:          Get("QDITHER_OUTPUT", DefaultOutputPath),
		MaxDimension:        GetInt("QDITHER_MAX_DIMENSION", 0),
		FrameThreshold:      GetInt("QDITHER_FRAME_THRESHOLD", DefaultFrameThreshold),
		KMeansThreshold:     GetFloat("QDITHER_KMEANS_THRESHOLD", DefaultKMeansThreshold),
		KMeansMaxIterations: GetInt("QDITHER_KMEANS_MAX_ITER", 0),
		Seed:                GetUint64("QDITHER_SEED", 0),
		PreviewAddr:         Get("QDITHER_PREVIEW_ADDR", ""),
		PreviewInterval:     GetDuration("QDITHER_PREVIEW_INTERVAL", 100*time.Millisecond),
		PreviewLinger:       GetDuration("QDITHER_PREVIEW_LINGER", 0),
		ReportInterval:      GetDuration("QDITHER_REPORT_INTERVAL", time.Second),
		History:             GetBool("QDITHER_HISTORY", false),
		LogLevel:            Get("LOG_LEVEL", "info"),
		LogFormat:           Get("LOG_FORMAT", "text"),
	}
}

// ApplyArgs sets the positional arguments IMG [PAL] [NUM]
func (o *Options) ApplyArgs(args []string) error {
	if len(args) == 0 {
		return errors.New("an image path is required")
	}
	if len(args) > 3 {
		return fmt.Errorf("too many arguments: %q", args[3:])
	}

	o.ImagePath = args[0]
	if len(args) > 1 {
		o.PalettePath = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(strings.TrimSpace(args[2]))
		if err != nil {
			return fmt.Errorf("number of colors must be an integer, got %q", args[2])
		}
		o.Colors = n
	}
	return nil
}

// HasPalette reports whether a palette file was requested
func (o Options) HasPalette() bool {
	p := strings.TrimSpace(o.PalettePath)
	return p != "" && p != NoPalette
}

var validate = validator.New()

// Validate checks the options and returns a user-facing error
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.New(ValidationMessage(err))
	}
	return nil
}

// ValidationMessage returns a user-friendly message for a validation error
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			switch ve.Field() {
			case "ImagePath":
				return "an image path is required"
			case "OutputPath":
				return "an output path is required"
			case "Colors":
				return fmt.Sprintf("number of colors must be between 1 and 255, got %v", ve.Value())
			case "KMeansThreshold":
				return "k-means threshold must be greater than 0"
			case "LogLevel":
				return fmt.Sprintf("unknown log level %q", ve.Value())
			case "LogFormat":
				return fmt.Sprintf("unknown log format %q", ve.Value())
			default:
				return fmt.Sprintf("invalid value for %s: %v", ve.Field(), ve.Value())
			}
		}
	}
	return err.Error()
}
