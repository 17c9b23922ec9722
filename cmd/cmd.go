package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/internal/types"
	"github.com/xhad/citedoc/pkg/client"
	"github.com/xhad/citedoc/pkg/extractor"
	"github.com/xhad/citedoc/pkg/orchestrator"
	"go.uber.org/zap"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:   "generate",
		Usage:  "Extract files and links, then write a cited document",
		Action: generateAction,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "citedoc server URL (defaults to client.server_url)"},
			&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "File to include (repeatable)"},
			&cli.StringSliceFlag{Name: "link", Aliases: []string{"l"}, Usage: "Web page to include (repeatable)"},
			&cli.StringFlag{Name: "format", Value: "markdown", Usage: "Output format: text, markdown or docx"},
			&cli.StringFlag{Name: "instruction", Aliases: []string{"i"}, Usage: "What the document should be"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "Output directory"},
			&cli.BoolFlag{Name: "local", Usage: "Run the pipeline in process instead of calling a server"},
			&cli.DurationFlag{Name: "timeout", Usage: "Request timeout (defaults to client.timeout)"},
		},
	}
}

func generateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	format, err := models.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	var collab types.Collaborator
	if c.Bool("local") {
		if err := validate(cfg); err != nil {
			return err
		}
		svc, err := buildService(c.Context, cfg, zap.NewNop())
		if err != nil {
			return err
		}
		collab = svc
	} else {
		serverURL := c.String("server")
		if serverURL == "" {
			serverURL = cfg.Client.ServerURL
		}
		timeout := c.Duration("timeout")
		if timeout == 0 {
			timeout = cfg.Client.Timeout
		}
		cl, err := client.NewWithConfig(client.ClientConfig{
			BaseURL: serverURL,
			Timeout: timeout,
		})
		if err != nil {
			return err
		}
		collab = cl
	}

	bar := getProgressBar("Preparing...")
	orch, err := orchestrator.NewWithConfig(orchestrator.OrchestratorConfig{
		Collaborator: collab,
		OnProgress: func(p orchestrator.Progress) {
			bar.Describe(color.BlueString(p.Message))
			bar.Set(int(p.Fraction * 100))
		},
	})
	if err != nil {
		return err
	}

	for _, path := range c.StringSlice("file") {
		src, err := readSource(path)
		if err != nil {
			return err
		}
		orch.AddFile(src)
	}
	for _, link := range c.StringSlice("link") {
		if err := orch.AddLink(link); err != nil {
			return fmt.Errorf("%s: %w", link, err)
		}
	}

	start := time.Now()
	artifact, err := orch.Generate(c.Context, format, c.String("instruction"))
	bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := filepath.Join(outDir, artifact.Filename)
	if err := os.WriteFile(outPath, artifact.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	color.Green("✓ Wrote %s (%d bytes) in %s", outPath, len(artifact.Data), time.Since(start).Round(time.Millisecond))
	return nil
}

// readSource loads a file from disk. Plain-text files are read here and
// sent as already-extracted text; the server decodes everything else.
func readSource(path string) (models.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	mediaType := extractor.MediaTypeFor(name)
	src := models.Source{
		Name:      name,
		MediaType: mediaType,
		Content:   data,
	}
	switch mediaType {
	case extractor.MediaText, extractor.MediaMarkdown, extractor.MediaCSV:
		src.Text = string(data)
	}
	return src, nil
}
