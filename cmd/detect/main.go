// Package main is a command line client that runs one waste detection on a local
// image and writes the annotated result to disk.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"wastedetect/internal/config"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
	"wastedetect/internal/service"
	"wastedetect/internal/service/ai"
	"wastedetect/internal/service/codec"
	"wastedetect/internal/service/gallery"
	"wastedetect/internal/service/overlay"
)

const (
	// Flags.
	flagGallery    = "gallery"
	flagImage      = "image"
	flagExample    = "example"
	flagConfidence = "confidence"
	flagOverlap    = "overlap"
	flagOut        = "out"
	flagDetectURL  = "detect-url"
	flagModel      = "model"
	flagFont       = "font"
)

func main() {
	if err := newApp(config.Load()).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:            "detect",
		Usage:           "find waste in satellite images",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagGallery,
				Value: cfg.GalleryDirectory,
				Usage: "directory with the example images",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "examples",
				Usage:  "list the example images",
				Action: examplesAction,
			},
			{
				Name:  "run",
				Usage: "detect waste in an image and write the annotated copy",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagImage,
						Aliases: []string{"i"},
						Usage:   "JPEG or PNG `FILE` to analyze, wins over --example",
					},
					&cli.IntFlag{
						Name:  flagExample,
						Usage: "index of the example image to analyze",
					},
					&cli.IntFlag{
						Name:  flagConfidence,
						Value: cfg.DefaultConfidence,
						Usage: "minimum confidence percentage, 0-100",
					},
					&cli.IntFlag{
						Name:  flagOverlap,
						Value: cfg.DefaultOverlap,
						Usage: "maximum overlap percentage, 0-100",
					},
					&cli.StringFlag{
						Name:    flagOut,
						Aliases: []string{"o"},
						Value:   "annotated.jpg",
						Usage:   "where to write the annotated JPEG",
					},
					&cli.StringFlag{
						Name:  flagDetectURL,
						Value: cfg.DetectURL,
						Usage: "base URL of the detection service",
					},
					&cli.StringFlag{
						Name:  flagModel,
						Value: cfg.DetectModel,
						Usage: "model id and version",
					},
					&cli.StringFlag{
						Name:  flagFont,
						Value: cfg.FontPath,
						Usage: "TrueType font for labels, built-in font when empty",
					},
				},
				Action: func(c *cli.Context) error {
					return runAction(c, cfg)
				},
			},
		},
	}
}

func examplesAction(c *cli.Context) error {
	g, err := gallery.Load(c.String(flagGallery), logger.NewNop())
	if err != nil {
		return err
	}
	for _, ex := range g.Examples() {
		fmt.Fprintf(c.App.Writer, "%d\t%s\n", ex.Index, ex.Name)
	}
	return nil
}

func runAction(c *cli.Context, cfg *config.Config) error {
	g, err := gallery.Load(c.String(flagGallery), logger.NewNop())
	if err != nil {
		return err
	}

	renderer, err := overlay.NewRenderer(c.String(flagFont))
	if err != nil {
		return errors.Wrap(err, "failed to load font")
	}

	detectCfg := *cfg
	detectCfg.DetectURL = c.String(flagDetectURL)
	detectCfg.DetectModel = c.String(flagModel)
	detector := ai.NewDetectorService(&detectCfg, config.EnvSecretStore{}, logger.NewNop())

	manager := service.NewManager(detector, renderer, g, nil, model.RenderConfig{}, logger.NewNop())

	src := service.Source{Example: c.Int(flagExample)}
	if path := c.String(flagImage); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		src.HasUpload = true
		src.Upload = data
		src.UploadName = filepath.Base(path)
	}

	img, name, err := manager.Resolve(src)
	if err != nil {
		return err
	}

	renderCfg := model.RenderConfig{Confidence: c.Int(flagConfidence), Overlap: c.Int(flagOverlap)}
	result, err := manager.Analyze(c.Context, name, img, renderCfg)
	if err != nil {
		return err
	}

	out, err := os.Create(c.String(flagOut))
	if err != nil {
		return err
	}
	defer out.Close()
	if err := codec.WriteDisplayJPEG(out, result.Annotated); err != nil {
		return errors.Wrapf(err, "failed to write %s", c.String(flagOut))
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Image:     %s\n", name)
	for _, d := range result.Response.Predictions {
		r := d.Rect()
		fmt.Fprintf(w, "  %-6s %s (%.0f,%.0f)-(%.0f,%.0f)\n", overlay.Label(d.Confidence), d.Class, r.X1, r.Y1, r.X2, r.Y2)
	}
	fmt.Fprintf(w, "Objects:   %d\n", len(result.Response.Predictions))
	fmt.Fprintf(w, "Coverage:  %d%%\n", result.Summary.CoveragePercent)
	fmt.Fprintf(w, "Latency:   %d ms\n", result.Summary.LatencyMS)
	fmt.Fprintf(w, "Annotated: %s\n", c.String(flagOut))
	return out.Close()
}
