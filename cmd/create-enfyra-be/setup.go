package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/connectivity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/logger"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/pipeline"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/prompt"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/retry"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/tui"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/ui"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// errDeclined is returned when the operator chose not to create the project.
var errDeclined = errors.New("setup cancelled")

// prompter collects the configuration record.
type prompter interface {
	ProjectName(ctx context.Context, suggested string) (string, error)
	Collect(ctx context.Context, base config.Config) (config.Config, error)
	Confirm(ctx context.Context, cfg config.Config) (bool, error)
}

type setup struct {
	flags       rootFlags
	workingDir  string
	log         *logger.Logger
	printer     *ui.Printer
	out         io.Writer
	// interactive is set when stdin and stdout are terminals.
	interactive bool

	detector  install.Detector
	validator retry.Validator
	toolkit   pipeline.Toolkit

	// prompter and operator override the defaults derived from flags.
	prompter prompter
	operator retry.Operator
}

func (s *setup) run(ctx context.Context, name string) error {
	s.printer.Banner()

	if _, err := s.detector.CheckRuntime(ctx); err != nil {
		return err
	}
	managers, err := install.Usable(s.detector.DetectManagers(ctx))
	if err != nil {
		return err
	}
	s.printer.Managers(managers)
	for _, det := range managers {
		s.toolkit.Installer.Available = append(s.toolkit.Installer.Available, det.Manager)
	}

	cfg, err := s.baseConfig()
	if err != nil {
		return err
	}

	s.wirePrompter(managers)

	cfg, err = s.collect(ctx, cfg, name)
	if err != nil {
		return declinedOnAbort(err)
	}
	if err := config.ValidateConfig(&cfg); err != nil {
		return err
	}

	controller := retry.NewController(s.validator, s.operator, s.log)
	cfg, report, err := controller.Run(ctx, cfg)
	if err != nil {
		switch {
		case errors.Is(err, retry.ErrAbandoned):
			s.printer.Warning("Setup abandoned, nothing was created")
		case errors.Is(err, retry.ErrConnectivity):
			s.printer.Hints(connectivity.Remediation(report))
		}
		return declinedOnAbort(err)
	}
	s.printer.Success("Connections verified")

	ok, err := s.prompter.Confirm(ctx, cfg)
	if err != nil {
		return declinedOnAbort(err)
	}
	if !ok {
		s.printer.Warning("Setup cancelled, nothing was created")
		return errDeclined
	}

	if err := s.provision(ctx, cfg); err != nil {
		var stageErr *apperrors.StageError
		if errors.As(err, &stageErr) {
			s.printer.StageFailure(stageErr)
			return fmt.Errorf("create %s: %w", cfg.ProjectName, err)
		}
		return err
	}

	s.printer.Done(cfg.ProjectName, install.StartCommand(cfg.PackageManager))
	return nil
}

func (s *setup) baseConfig() (config.Config, error) {
	cfg := config.Defaults()
	if s.flags.answers != "" {
		loaded, err := config.LoadAnswers(s.flags.answers)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	return config.ApplyEnvOverrides(cfg)
}

func (s *setup) wirePrompter(managers []install.ManagerDetection) {
	if s.prompter != nil {
		return
	}
	if s.flags.skipPrompts {
		s.prompter = prompt.Static{WorkingDir: s.workingDir, Managers: managers}
		return
	}
	interactive := &prompt.Interactive{
		WorkingDir: s.workingDir,
		Managers:   managers,
		Printer:    s.printer,
		Accessible: s.flags.accessible || !s.interactive,
	}
	s.prompter = interactive
	if s.operator == nil {
		s.operator = interactive
	}
}

// collect settles the project name, then the rest of the record. A name given
// on the command line is only asked again when it is invalid.
func (s *setup) collect(ctx context.Context, cfg config.Config, name string) (config.Config, error) {
	suggested := cfg.ProjectName
	if name != "" {
		suggested = name
	}

	var err error
	if !s.flags.skipPrompts && name != "" {
		if verr := config.ValidateField(config.FieldProjectName, name, config.FieldContext{WorkingDir: s.workingDir}); verr != nil {
			s.printer.Error("%v", verr)
			name, err = s.prompter.ProjectName(ctx, name)
		}
	} else {
		name, err = s.prompter.ProjectName(ctx, suggested)
	}
	if err != nil {
		return cfg, err
	}
	s.log.Debug("project name settled", "name", name)

	return s.prompter.Collect(ctx, cfg.WithProjectName(name))
}

func (s *setup) provision(ctx context.Context, cfg config.Config) error {
	pc, err := pipeline.NewProjectContext(s.workingDir, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stages := pipeline.DefaultStages(s.toolkit)
	session := tui.Start(tui.NewModel("Creating "+cfg.ProjectName, stages, cancel), s.interactive, s.out)

	log := s.log.WithFields(map[string]any{
		"project":        cfg.ProjectName,
		"packageManager": string(cfg.PackageManager),
	})
	p := pipeline.New(stages,
		pipeline.WithLogger(log),
		pipeline.WithObserver(session.Observe),
	)
	_, runErr := p.Run(ctx, pc)
	if err := session.Finish(runErr); err != nil {
		log.Warn("progress display failed", "error", err.Error())
	}
	return runErr
}

// declinedOnAbort treats an interrupted prompt like a declined confirmation.
func declinedOnAbort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return fmt.Errorf("%w: %w", errDeclined, err)
	}
	return err
}
