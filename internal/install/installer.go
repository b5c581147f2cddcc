package install

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/internalexec"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// StageName identifies the dependency installation stage.
const StageName = "install-dependencies"

// Runner executes a prepared command and returns its captured output.
type Runner func(cmd *exec.Cmd) (internalexec.Result, error)

// Installer runs the selected package manager inside the project directory.
type Installer struct {
	// Output receives the package manager's live output. Nil discards it.
	Output    io.Writer
	Runner    Runner
	// Available lists the usable package managers offered as alternatives
	// when the install fails.
	Available []config.PackageManager
}

// InstallCommand returns the argv that installs dependencies with pm.
func InstallCommand(pm config.PackageManager) []string {
	switch pm {
	case config.NPM:
		return []string{"npm", "install"}
	case config.PNPM:
		return []string{"pnpm", "install"}
	case config.Bun:
		return []string{"bun", "install"}
	default:
		return []string{"yarn"}
	}
}

// StartCommand returns the command that starts the generated project in
// development mode.
func StartCommand(pm config.PackageManager) string {
	switch pm {
	case config.NPM:
		return "npm run start:dev"
	case config.PNPM:
		return "pnpm start:dev"
	case config.Bun:
		return "bun run start:dev"
	default:
		return "yarn start:dev"
	}
}

// Install runs the install command for pm in projectPath. A failure is
// reported as INSTALL_FAILED carrying the captured output.
func (i Installer) Install(ctx context.Context, projectPath string, pm config.PackageManager) error {
	argv := InstallCommand(pm)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = projectPath
	if i.Output != nil {
		cmd.Stdout = i.Output
		cmd.Stderr = i.Output
	}

	run := i.Runner
	if run == nil {
		run = internalexec.Capture
	}

	result, err := run(cmd)
	if err == nil {
		return nil
	}

	stageErr := apperrors.NewStageError(StageName, apperrors.CodeInstallFailed,
		fmt.Errorf("%s exited with code %d: %w", strings.Join(argv, " "), result.ExitCode, err))
	stageErr.Output = result.Combined
	stageErr.Remediation = Remediation(pm, i.Available)
	return stageErr
}

// Remediation returns the operator steps for a failed install with pm. The
// managers in available other than pm are suggested as alternatives.
func Remediation(pm config.PackageManager, available []config.PackageManager) []string {
	var steps []string
	switch pm {
	case config.NPM:
		steps = []string{
			"Clear the npm cache: npm cache clean --force",
			"Check registry access: npm ping",
		}
	case config.PNPM:
		steps = []string{
			"Prune the pnpm store: pnpm store prune",
			"Check registry access: pnpm ping",
		}
	case config.Bun:
		steps = []string{
			"Clear the bun cache: bun pm cache rm",
			"Upgrade bun: bun upgrade",
		}
	default:
		steps = []string{
			"Clear the yarn cache: yarn cache clean",
			"Check registry access: yarn config get registry",
		}
	}

	steps = append(steps, fmt.Sprintf("Run %q manually inside the project directory to see the full error", strings.Join(InstallCommand(pm), " ")))

	var others []string
	for _, alt := range available {
		if alt != pm && !slices.Contains(others, string(alt)) {
			others = append(others, string(alt))
		}
	}
	if len(others) > 0 {
		steps = append(steps, "Or try another package manager: "+strings.Join(others, ", "))
	}

	if url := issueURL(pm); url != "" {
		steps = append(steps, fmt.Sprintf("If the problem persists, report it to %s: %s", pm, url))
	}
	return steps
}

func issueURL(pm config.PackageManager) string {
	for _, m := range Managers {
		if m.Manager == pm {
			return m.Tool.IssueURL
		}
	}
	return ""
}
