package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	cfgPkg "github.com/xhad/citedoc/pkg/config"
	"github.com/xhad/citedoc/pkg/extractor"
	"github.com/xhad/citedoc/pkg/llm"
	"github.com/xhad/citedoc/pkg/logger"
	"github.com/xhad/citedoc/pkg/packager"
	"github.com/xhad/citedoc/pkg/scraper"
	"github.com/xhad/citedoc/pkg/service"
	"github.com/xhad/citedoc/server"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "citedoc",
		Usage: "Generate cited documents from files and web pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Usage: "Listen port (overrides config)"},
				},
			},
			generateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*cfgPkg.Config, error) {
	cfg, err := cfgPkg.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate reports every config problem at once.
func validate(cfg *cfgPkg.Config) error {
	errs := cfg.Validate()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
}

// buildService wires the in-process pipeline from config.
func buildService(ctx context.Context, cfg *cfgPkg.Config, log *zap.Logger) (*service.Service, error) {
	synth, err := llm.NewWithConfig(ctx, llm.SynthesizerConfig{
		ProviderConfig: llm.ProviderConfig{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			BaseURL:  cfg.LLM.BaseURL,
			APIKey:   cfg.LLM.APIKey,
		},
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		MaxContextChars: cfg.Synthesizer.ContextLimit(),
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize synthesizer: %w", err)
	}

	links := scraper.NewWithConfig(scraper.ScraperConfig{
		RateLimit:    cfg.Scraper.RateLimit,
		Timeout:      cfg.Scraper.Timeout,
		UserAgent:    cfg.Scraper.UserAgent,
		MaxBodyBytes: cfg.Scraper.MaxBodyBytes,
		Readability:  cfg.Scraper.Readability,
		Logger:       log,
	})

	return service.NewWithConfig(service.ServiceConfig{
		Extractor:   extractor.NewWithConfig(extractor.ExtractorConfig{Logger: log}),
		Links:       links,
		Synthesizer: synth,
		Packager:    packager.New(),
		Parallelism: cfg.Extraction.Parallelism,
		Logger:      log,
	})
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if port := c.Int("port"); port != 0 {
		cfg.Server.Port = port
	}
	if err := validate(cfg); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:           cfg.Server.Addr(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		Logger:         log,
	}, svc)
	if err != nil {
		return err
	}

	color.Cyan("citedoc listening on %s (provider %s)", cfg.Server.Addr(), cfg.LLM.Provider)
	return srv.Run(ctx)
}

func getProgressBar(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
