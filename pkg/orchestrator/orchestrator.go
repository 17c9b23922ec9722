// Package orchestrator drives one document-generation attempt on the client
// side: every file is extracted, then every link, then the collected texts
// are sent for synthesis. Steps run one at a time and the first failure
// ends the attempt without an artifact.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/internal/types"
	"github.com/xhad/citedoc/pkg/logger"
	"github.com/xhad/citedoc/pkg/scraper"
	"go.uber.org/zap"
)

var (
	ErrInvalidURL        = scraper.ErrInvalidURL
	ErrNoSources         = models.ErrNoSources
	ErrAttemptInProgress = errors.New("a generation attempt is already running")
)

type State int

const (
	Idle State = iota
	ExtractingFiles
	ExtractingLinks
	Synthesizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ExtractingFiles:
		return "extracting_files"
	case ExtractingLinks:
		return "extracting_links"
	case Synthesizing:
		return "synthesizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Progress is reported at every state change and before each item.
type Progress struct {
	State    State
	Fraction float64
	// Item is the file name or URL being processed, if any.
	Item    string
	Message string
	Err     error
}

type OrchestratorConfig struct {
	Collaborator types.Collaborator
	OnProgress   func(Progress)
	Logger       *zap.Logger
}

type Orchestrator struct {
	config OrchestratorConfig
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	running bool
	files   []models.Source
	links   []string
}

func NewWithConfig(config OrchestratorConfig) (*Orchestrator, error) {
	if config.Collaborator == nil {
		return nil, fmt.Errorf("collaborator is required")
	}
	if config.OnProgress == nil {
		config.OnProgress = func(Progress) {}
	}

	return &Orchestrator{
		config: config,
		logger: logger.OrNop(config.Logger),
	}, nil
}

func (o *Orchestrator) AddFile(src models.Source) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files = append(o.files, src)
}

func (o *Orchestrator) AddFiles(srcs ...models.Source) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files = append(o.files, srcs...)
}

// AddLink queues a link after checking it is an absolute http(s) URL.
// Nothing is fetched here.
func (o *Orchestrator) AddLink(raw string) error {
	u, err := scraper.ValidateURL(raw)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links = append(o.links, u.String())
	return nil
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Sources returns the number of queued files and links.
func (o *Orchestrator) Sources() (files, links int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.files), len(o.links)
}

// Generate runs one attempt. Only one attempt may run at a time.
func (o *Orchestrator) Generate(ctx context.Context, format models.OutputFormat, instruction string) (*models.Artifact, error) {
	format, err := models.ParseFormat(string(format))
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrAttemptInProgress
	}
	if len(o.files) == 0 && len(o.links) == 0 {
		o.mu.Unlock()
		return nil, ErrNoSources
	}
	o.running = true
	files := append([]models.Source(nil), o.files...)
	links := append([]string(nil), o.links...)
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	artifact, err := o.run(ctx, files, links, format, instruction)
	if err != nil {
		o.logger.Warn("generation attempt failed", zap.Error(err))
		o.emit(Progress{State: Failed, Message: err.Error(), Err: err})
		o.setState(Idle)
		return nil, err
	}

	o.emit(Progress{State: Done, Fraction: 1, Item: artifact.Filename, Message: "Document ready"})
	return artifact, nil
}

func (o *Orchestrator) run(ctx context.Context, files []models.Source, links []string, format models.OutputFormat, instruction string) (*models.Artifact, error) {
	total := float64(len(files) + len(links) + 1)
	collab := o.config.Collaborator
	sources := make([]models.ExtractedText, 0, len(files)+len(links))
	step := 0

	for _, f := range files {
		step++
		o.emit(Progress{
			State:    ExtractingFiles,
			Fraction: float64(step) / total,
			Item:     f.Name,
			Message:  "Analyzing file " + f.Name,
		})
		text, err := collab.ExtractFile(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to process %s: %w", f.Name, err)
		}
		sources = append(sources, models.ExtractedText{Label: "File: " + f.Name, Kind: models.KindFile, Text: text})
	}

	for _, link := range links {
		step++
		o.emit(Progress{
			State:    ExtractingLinks,
			Fraction: float64(step) / total,
			Item:     link,
			Message:  "Fetching content from " + link,
		})
		text, err := collab.ExtractLink(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch content from %s: %w", link, err)
		}
		sources = append(sources, models.ExtractedText{Label: "URL: " + link, Kind: models.KindLink, Text: text})
	}

	o.emit(Progress{
		State:    Synthesizing,
		Fraction: float64(step) / total,
		Message:  "Drafting the document",
	})
	artifact, err := collab.Generate(ctx, models.GenerationRequest{
		Sources:     sources,
		Instruction: instruction,
		Format:      format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate document: %w", err)
	}
	artifact.Filename = format.ArtifactName()
	return artifact, nil
}

func (o *Orchestrator) emit(p Progress) {
	o.setState(p.State)
	o.config.OnProgress(p)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
