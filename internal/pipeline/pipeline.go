// Package pipeline materializes a project through an ordered list of stages
// and removes everything it created when one of them fails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/logger"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// ErrSkipped is wrapped by a stage that had nothing to do.
var ErrSkipped = errors.New("stage skipped")

// Event types published while the pipeline runs.
const (
	EventStageStarted      = "stage.started"
	EventStageCompleted    = "stage.completed"
	EventStageSkipped      = "stage.skipped"
	EventStageFailed       = "stage.failed"
	EventRollbackCompleted = "rollback.completed"
	EventRollbackFailed    = "rollback.failed"
)

// Event reports progress of one stage.
type Event struct {
	Type     string
	Stage    string
	Title    string
	Index    int
	Total    int
	Message  string
	Err      error
	Duration time.Duration
}

// Observer receives events synchronously from the pipeline goroutine.
type Observer func(Event)

// ProjectContext is the state shared by the stages of one run.
type ProjectContext struct {
	// ProjectPath is the absolute project root.
	ProjectPath string
	Config      config.Config

	artifacts []string
}

// NewProjectContext resolves the project root for cfg under workingDir.
func NewProjectContext(workingDir string, cfg config.Config) (*ProjectContext, error) {
	root, err := filepath.Abs(filepath.Join(workingDir, cfg.ProjectName))
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	return &ProjectContext{ProjectPath: root, Config: cfg}, nil
}

// Track records a path this run created. Tracked paths are removed on
// rollback.
func (pc *ProjectContext) Track(path string) {
	pc.artifacts = append(pc.artifacts, path)
}

// Stage is one step of the pipeline. Reversible stages have their output
// removed by rollback.
type Stage struct {
	Name       string
	Title      string
	Reversible bool
	Run        func(ctx context.Context, pc *ProjectContext) error
}

// Pipeline runs stages in order and rolls back on the first failure.
type Pipeline struct {
	stages   []Stage
	logger   *logger.Logger
	observer Observer
	remove   func(path string) error
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.logger = log
		}
	}
}

// WithObserver registers a progress observer.
func WithObserver(observer Observer) Option {
	return func(p *Pipeline) {
		p.observer = observer
	}
}

// WithRemover replaces the recursive removal used by rollback.
func WithRemover(remove func(path string) error) Option {
	return func(p *Pipeline) {
		if remove != nil {
			p.remove = remove
		}
	}
}

// New constructs a pipeline over stages.
func New(stages []Stage, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages: slices.Clone(stages),
		logger: logger.Nop(),
		remove: os.RemoveAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stages returns the configured stages in execution order.
func (p *Pipeline) Stages() []Stage {
	return slices.Clone(p.stages)
}

// Run executes every stage against pc. On failure the tracked artifacts are
// removed and the returned error is a *StageError. Results hold one entry per
// stage that started.
func (p *Pipeline) Run(ctx context.Context, pc *ProjectContext) ([]model.StageResult, error) {
	if pc == nil {
		return nil, apperrors.NewStageError("", apperrors.CodeUnknown, errors.New("project context is nil"))
	}

	total := len(p.stages)
	results := make([]model.StageResult, 0, total)

	for idx, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			stageErr := apperrors.NewStageError(stage.Name, apperrors.CodeUnknown, fmt.Errorf("cancelled before start: %w", err))
			p.rollback(pc, results, stageErr)
			return results, stageErr
		}

		p.publish(Event{Type: EventStageStarted, Stage: stage.Name, Title: stage.Title, Index: idx, Total: total})
		log := p.logger.With("stage", stage.Name)
		log.Debug("stage started")

		// A started stage runs to completion; cancellation is honored between
		// stages.
		start := time.Now()
		err := stage.Run(context.WithoutCancel(ctx), pc)
		elapsed := time.Since(start)

		result := model.StageResult{
			Stage:     stage.Name,
			Status:    model.StatusSuccess,
			Duration:  elapsed,
			Timestamp: time.Now(),
		}

		switch {
		case err == nil:
			p.publish(Event{Type: EventStageCompleted, Stage: stage.Name, Title: stage.Title, Index: idx, Total: total, Duration: elapsed})
			log.Info("stage completed", "duration", elapsed.String())
			results = append(results, result)

		case errors.Is(err, ErrSkipped):
			result.Status = model.StatusSkipped
			result.Message = err.Error()
			p.publish(Event{Type: EventStageSkipped, Stage: stage.Name, Title: stage.Title, Index: idx, Total: total, Message: result.Message, Duration: elapsed})
			log.Info("stage skipped", "reason", result.Message)
			results = append(results, result)

		default:
			stageErr := asStageError(stage.Name, err)
			result.Status = model.StatusFailed
			result.Message = stageErr.Error()
			result.Error = stageErr
			results = append(results, result)

			p.publish(Event{Type: EventStageFailed, Stage: stage.Name, Title: stage.Title, Index: idx, Total: total, Err: stageErr, Duration: elapsed})
			log.Error(stageErr, "stage failed", "code", string(stageErr.Code))

			p.rollback(pc, results, stageErr)
			return results, stageErr
		}
	}

	return results, nil
}

// rollback removes the tracked artifacts and marks reversible stages as
// rolled back. A removal failure is attached to stageErr.
func (p *Pipeline) rollback(pc *ProjectContext, results []model.StageResult, stageErr *apperrors.StageError) {
	roots := outermost(pc.artifacts)
	if len(roots) == 0 {
		return
	}

	var errs []error
	for i := len(roots) - 1; i >= 0; i-- {
		if err := p.remove(roots[i]); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", roots[i], err))
			stageErr.Remediation = append(stageErr.Remediation, fmt.Sprintf("Delete %s manually before trying again", roots[i]))
		}
	}

	if len(errs) > 0 {
		stageErr.RollbackErr = errors.Join(errs...)
		p.publish(Event{Type: EventRollbackFailed, Stage: stageErr.Stage, Err: stageErr.RollbackErr})
		p.logger.Error(stageErr.RollbackErr, "rollback failed", "project", pc.ProjectPath)
		return
	}

	reversible := make(map[string]bool, len(p.stages))
	for _, stage := range p.stages {
		reversible[stage.Name] = stage.Reversible
	}
	for i := range results {
		if results[i].Status == model.StatusSuccess && reversible[results[i].Stage] {
			results[i].Status = model.StatusRolledBack
		}
	}

	pc.artifacts = nil
	p.publish(Event{Type: EventRollbackCompleted, Stage: stageErr.Stage})
	p.logger.Info("rollback completed", "project", pc.ProjectPath)
}

func (p *Pipeline) publish(event Event) {
	if p.observer != nil {
		p.observer(event)
	}
}

func asStageError(stage string, err error) *apperrors.StageError {
	var stageErr *apperrors.StageError
	if errors.As(err, &stageErr) {
		if stageErr.Stage == "" {
			stageErr.Stage = stage
		}
		return stageErr
	}
	return apperrors.NewStageError(stage, apperrors.CodeOf(err), err)
}

// outermost drops paths nested under another tracked path, keeping creation
// order.
func outermost(paths []string) []string {
	var roots []string
	for _, path := range paths {
		nested := false
		for _, other := range paths {
			if other != path && within(path, other) {
				nested = true
				break
			}
		}
		if !nested && !slices.Contains(roots, path) {
			roots = append(roots, path)
		}
	}
	return roots
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
