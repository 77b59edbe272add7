package main

import (
	// standard library
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	// third-party
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	// internal
	"github.com/rmitchellscott/qdither/internal/config"
	"github.com/rmitchellscott/qdither/internal/database"
	"github.com/rmitchellscott/qdither/internal/imageprocessing"
	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/pollers"
	"github.com/rmitchellscott/qdither/internal/preview"
	"github.com/rmitchellscott/qdither/internal/progress"
	"github.com/rmitchellscott/qdither/internal/version"
)

const usage = `Usage: qdither [flags] IMG [PAL] [NUM]

  IMG  input image (png, jpeg, gif, bmp, tiff, webp)
  PAL  palette file with one RRGGBB per line, or NONE to derive one (default NONE)
  NUM  number of colors to derive when no palette is given (default 32)

Flags:
`

func main() {
	_ = godotenv.Load()

	opts := config.Load()

	fs := flag.NewFlagSet("qdither", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.OutputPath, "o", opts.OutputPath, "output path; the extension selects png, jpeg or bmp")
	fs.IntVar(&opts.MaxDimension, "max", opts.MaxDimension, "downscale so neither side exceeds this many pixels (0 keeps the original size)")
	fs.StringVar(&opts.PreviewAddr, "preview", opts.PreviewAddr, "serve a live preview on this address, e.g. :8080")
	fs.Uint64Var(&opts.Seed, "seed", opts.Seed, "seed for palette derivation (0 picks a random seed)")
	showHistory := fs.Bool("history", false, "print recent runs from the history database and exit")
	showVersion := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if *showVersion {
		fmt.Println(version.Long())
		os.Exit(0)
	}

	logging.Setup(os.Stderr, opts.LogFormat, opts.LogLevel)

	if *showHistory {
		os.Exit(printHistory())
	}

	if err := opts.ApplyArgs(fs.Args()); err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, err.Error())
		fs.Usage()
		os.Exit(2)
	}
	if err := opts.Validate(); err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Invalid options", "error", err)
		os.Exit(2)
	}

	logging.DebugWithComponent(logging.ComponentStartup, "Starting qdither", "version", version.String())
	os.Exit(run(opts))
}

// run executes the pipeline and returns the process exit code
func run(opts config.Options) int {
	img, format, err := imageprocessing.LoadImage(opts.ImagePath)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentPipeline, "Could not open image", "error", err)
		return 1
	}
	img = imageprocessing.ResizeToFit(img, opts.MaxDimension)
	buf := imageprocessing.ToBuffer(img)
	logging.InfoWithComponent(logging.ComponentPipeline, "Loaded image",
		"path", opts.ImagePath, "format", format, "width", buf.Width, "height", buf.Height)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cell := progress.NewCell()
	manager := pollers.NewManager()

	var waiters []interface{ Wait() }
	if opts.ReportInterval > 0 {
		reporter := progress.NewReporter(cell, opts.ReportInterval)
		manager.Register(reporter)
		waiters = append(waiters, reporter)
	}

	var server *preview.Server
	if opts.PreviewAddr != "" {
		if mode := config.Get("GIN_MODE", ""); mode != "" {
			gin.SetMode(mode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		previewOpts := preview.DefaultOptions(opts.PreviewAddr)
		previewOpts.OutputPath = opts.OutputPath
		previewOpts.Interval = opts.PreviewInterval

		server = preview.New(cell, previewOpts)
		if err := server.Start(ctx); err != nil {
			logging.ErrorWithComponent(logging.ComponentPreview, "Could not start preview server", "error", err)
			return 1
		}
		manager.Register(server.StatusPoller())
		waiters = append(waiters, server.StatusPoller())
	}

	if err := manager.Start(ctx); err != nil {
		logging.WarnWithComponent(logging.ComponentStartup, "Failed to start pollers", "error", err)
	}

	result, err := imageprocessing.Process(ctx, buf, imageprocessing.OptionsFromConfig(opts), cell)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentPipeline, "Processing failed", "error", err)
		manager.Stop()
		shutdownPreview(server)
		return 1
	}

	// Let pollers observe the final state before stopping them
	for _, w := range waiters {
		w.Wait()
	}
	manager.Stop()

	saved := true
	var saveErr error
	if _, saveErr = imageprocessing.WriteResult(ctx, opts.OutputPath, result.Buffer, result.Palette); saveErr != nil {
		saved = false
		logging.ErrorWithComponent(logging.ComponentStorage, "Couldn't save image buffer", "path", opts.OutputPath, "error", saveErr)
	} else {
		logging.InfoWithComponent(logging.ComponentPipeline, "Saved to "+opts.OutputPath)
	}

	if server != nil {
		server.Complete(saveErr)
	}

	if opts.History {
		recordRun(ctx, opts, result, saved, saveErr)
	}

	if server != nil {
		linger(server, opts.PreviewLinger)
		shutdownPreview(server)
	}

	return 0
}

// linger keeps the preview server up until the timeout elapses or a signal arrives
func linger(server *preview.Server, timeout time.Duration) {
	if timeout <= 0 {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.InfoWithComponent(logging.ComponentPreview, "Preview still available",
		"address", server.Addr(), "for", timeout)

	select {
	case <-ctx.Done():
	case <-time.After(timeout):
	}
}

func shutdownPreview(server *preview.Server) {
	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.ErrorWithComponent(logging.ComponentShutdown, "Preview server forced to shutdown", "error", err)
	}
}

// recordRun stores the run in the history database. Failures never fail the run.
func recordRun(ctx context.Context, opts config.Options, result imageprocessing.Result, saved bool, saveErr error) {
	if err := database.Initialize(); err != nil {
		logging.WarnWithComponent(logging.ComponentDatabase, "History unavailable", "error", err)
		return
	}
	defer database.Close()

	run := &database.Run{
		ImagePath:     opts.ImagePath,
		OutputPath:    opts.OutputPath,
		Width:         result.Buffer.Width,
		Height:        result.Buffer.Height,
		PaletteSource: string(result.Source),
		Iterations:    result.Iterations,
		Diffusions:    int64(result.Stats.Diffusions),
		DurationMS:    result.Elapsed.Milliseconds(),
		Saved:         saved,
	}
	if saveErr != nil {
		run.Error = saveErr.Error()
	}
	if err := run.SetPalette(result.Palette.Hex()); err != nil {
		logging.WarnWithComponent(logging.ComponentDatabase, "Could not encode palette", "error", err)
	}

	if err := database.NewRunService(database.DB).Record(ctx, run); err != nil {
		logging.WarnWithComponent(logging.ComponentDatabase, "Could not record run", "error", err)
	}
}

// printHistory lists recent runs and totals from the history database
func printHistory() int {
	if err := database.Initialize(); err != nil {
		logging.ErrorWithComponent(logging.ComponentDatabase, "History unavailable", "error", err)
		return 1
	}
	defer database.Close()

	ctx := context.Background()
	svc := database.NewRunService(database.DB)

	runs, err := svc.Recent(ctx, 20)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentDatabase, "Could not list runs", "error", err)
		return 1
	}
	stats, err := svc.Stats(ctx)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentDatabase, "Could not compute stats", "error", err)
		return 1
	}

	for _, r := range runs {
		status := "saved"
		if !r.Saved {
			status = "unsaved"
		}
		fmt.Printf("%s  %-7s  %3d colors  %5dx%-5d  %6dms  %s -> %s (%s)\n",
			r.CreatedAt.Format(time.DateTime), r.PaletteSource, r.Colors, r.Width, r.Height,
			r.DurationMS, r.ImagePath, r.OutputPath, status)
	}
	fmt.Printf("\n%d runs, %d saved, average %.0fms\n", stats.TotalRuns, stats.SavedRuns, stats.AvgDurationMS)
	for source, n := range stats.BySource {
		fmt.Printf("  %s: %d\n", source, n)
	}
	return 0
}
