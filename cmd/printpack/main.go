// Command printpack renders a print-ready folder for one artwork, or for
// every image dropped into a watched folder.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"print-packager/internal/app"
	"print-packager/internal/config"
	"print-packager/internal/domain"
	"print-packager/internal/usecase/export"
	"print-packager/internal/usecase/processor/operations"
	"print-packager/internal/watcher"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	var (
		configPath  = flag.String("config", "", "path to config.yaml (defaults to CONFIG_PATH or config/config.yaml)")
		input       = flag.String("in", "", "source image")
		outDir      = flag.String("out", "", "output folder (defaults to export.output_dir)")
		watchDir    = flag.String("watch", "", "folder to watch for new images")
		debounce    = flag.Duration("debounce", watcher.DefaultDebounce, "quiet period before a watched file is processed")
		shop        = flag.String("shop", "", "shop name")
		title       = flag.String("title", "", "art title (defaults to the file name)")
		license     = flag.String("license", "", "license text")
		text        = flag.String("watermark", "", "watermark text")
		position    = flag.String("position", "", "watermark position")
		noWatermark = flag.Bool("no-watermark", false, "render watermarked variants without a watermark")
		dpi         = flag.Int("dpi", 0, "default DPI")
		quality     = flag.Float64("quality", 0, "JPEG quality in (0, 1]")
		preview     = flag.Bool("preview", true, "write preview.jpg")
		thumbnails  = flag.Bool("thumbnails", false, "write thumbnails of the final images")
	)
	flag.Parse()

	if *configPath != "" {
		os.Setenv("CONFIG_PATH", *configPath)
	}
	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	pipeline, err := app.NewPipeline(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to build pipeline")
	}
	packager := export.NewPackager(pipeline.Catalog, pipeline.Generator, pipeline.Previewer, &zlog.Logger)

	base := export.Request{
		OutputDir:  firstNonEmpty(*outDir, cfg.Export.OutputDir),
		Watermark:  cfg.WatermarkSpec(),
		Processing: cfg.ProcessingSettings(),
		Export:     cfg.ExportOptions(),
		Preview:    *preview,
		Thumbnails: *thumbnails,
	}
	base.Export.ShopName = firstNonEmpty(*shop, base.Export.ShopName)
	base.Export.ArtTitle = firstNonEmpty(*title, base.Export.ArtTitle)
	base.Export.LicenseText = firstNonEmpty(*license, base.Export.LicenseText)
	if *text != "" {
		base.Watermark.Text = *text
		base.Watermark.Enabled = true
	}
	if *position != "" {
		base.Watermark.Position = domain.WatermarkPosition(*position)
	}
	if *noWatermark {
		base.Watermark.Enabled = false
	}
	if *dpi > 0 {
		base.Processing.DefaultDPI = *dpi
	}
	if *quality > 0 {
		base.Processing.JPEGQuality = *quality
	}

	v := operations.NewValidator()
	if err := v.Struct(base.Watermark); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Invalid watermark settings")
	}
	if err := v.Struct(base.Processing); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Invalid processing settings")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *watchDir != "":
		err = watch(ctx, packager, base, *watchDir, *debounce)
	case *input != "":
		err = run(ctx, packager, base, *input, base.OutputDir)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("printpack failed")
	}
}

func run(ctx context.Context, p *export.Packager, req export.Request, path, outDir string) error {
	req.SourcePath = path
	req.OutputDir = outDir
	if req.Export.ArtTitle == "" {
		req.Export.ArtTitle = stem(path)
	}

	start := time.Now()
	report, err := p.Package(ctx, req)
	if err != nil {
		return err
	}

	zlog.Logger.Info().
		Str("source", path).
		Str("out", outDir).
		Int("saved", report.Saved).
		Int("failed", report.Failed).
		Int("skipped_sizes", len(report.Failures)).
		Str("manifest", report.Manifest).
		Dur("duration", time.Since(start)).
		Msg("Package written")

	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "skipped %s\n", f)
	}
	return nil
}

// watch packages each settled image into <out>/<file stem>/.
func watch(ctx context.Context, p *export.Packager, req export.Request, dir string, debounce time.Duration) error {
	w, err := watcher.New(dir, debounce, func(ctx context.Context, path string) error {
		return run(ctx, p, req, path, filepath.Join(req.OutputDir, stem(path)))
	}, &zlog.Logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
