package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/capacity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/connectivity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/logger"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/pipeline"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/probe"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/ui"
)

type rootFlags struct {
	skipPrompts bool
	answers     string
	verbose     bool
	accessible  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "create-enfyra-be [project-name]",
		Short:         "Scaffold a new Enfyra backend project",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if flags.verbose {
				level = "debug"
			}
			log, err := logger.New(logger.Options{
				Level:         level,
				HumanReadable: true,
				Writer:        cmd.ErrOrStderr(),
				RunID:         uuid.NewString(),
			})
			if err != nil {
				return err
			}

			workingDir, err := os.Getwd()
			if err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			}

			s := &setup{
				flags:       *flags,
				workingDir:  workingDir,
				log:         log,
				printer:     ui.New(cmd.OutOrStdout()),
				out:         cmd.OutOrStdout(),
				interactive: isTerminal(os.Stdout) && isTerminal(os.Stdin),
				detector:    install.Detector{},
				validator:   connectivity.NewService(probe.DefaultRegistry(probe.DefaultTimeout), log),
				toolkit: pipeline.Toolkit{
					MinimumBytes: capacity.DefaultMinimum,
				},
			}
			if flags.verbose && !s.interactive {
				s.toolkit.Fetcher.Progress = cmd.ErrOrStderr()
				s.toolkit.Installer.Output = cmd.ErrOrStderr()
			}
			return s.run(cmd.Context(), name)
		},
	}

	cmd.Flags().BoolVar(&flags.skipPrompts, "skip-prompts", false, "Use defaults and the answers file without asking")
	cmd.Flags().StringVar(&flags.answers, "answers", "", "YAML file with preset answers")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.Flags().BoolVar(&flags.accessible, "accessible", false, "Use plain line-based prompts")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
