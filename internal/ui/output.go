// Package ui prints the non-interactive parts of a run: banners, detected
// tools, remediation hints and the final summary.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/connectivity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	mutedColor   = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var bannerStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("86")).
	Foreground(lipgloss.Color("86")).
	Bold(true).
	Padding(0, 3)

// Printer writes human-facing output.
type Printer struct {
	out io.Writer
}

// New returns a Printer writing to out, or stdout when out is nil.
func New(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out}
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	successColor.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	errorColor.Fprintf(p.out, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	warningColor.Fprintf(p.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	infoColor.Fprintf(p.out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Banner prints the tool's title box.
func (p *Printer) Banner() {
	fmt.Fprintln(p.out, bannerStyle.Render("Create Enfyra Backend"))
	fmt.Fprintln(p.out)
}

// Managers lists the usable package managers with their versions.
func (p *Printer) Managers(detections []install.ManagerDetection) {
	mutedColor.Fprintln(p.out, "Detected package managers:")
	for _, det := range detections {
		mutedColor.Fprintf(p.out, "  • %s v%s\n", det.Manager, det.Version)
	}
	fmt.Fprintln(p.out)
}

// Hints prints connectivity remediation, errors before warnings.
func (p *Printer) Hints(hints []connectivity.Hint) {
	for _, severity := range []connectivity.Severity{connectivity.SeverityError, connectivity.SeverityWarning} {
		for _, hint := range hints {
			if hint.Severity != severity {
				continue
			}
			if severity == connectivity.SeverityError {
				p.Error("%s [%s]", hint.Title, hint.Class)
			} else {
				p.Warning("%s [%s]", hint.Title, hint.Class)
			}
			for _, step := range hint.Steps {
				if step == "" {
					continue
				}
				fmt.Fprintf(p.out, "    • %s\n", step)
			}
		}
	}
	fmt.Fprintln(p.out)
}

// StageFailure prints a failed pipeline stage, its remediation and any
// captured tool output.
func (p *Printer) StageFailure(err *apperrors.StageError) {
	p.Error("Failed to create project")
	errorColor.Fprintf(p.out, "\nError: %v\n", err.Err)
	mutedColor.Fprintf(p.out, "Stage: %s [%s]\n", err.Stage, err.Code)

	if output := strings.TrimSpace(err.Output); output != "" {
		boldColor.Fprintln(p.out, "\nOutput:")
		fmt.Fprintln(p.out, output)
	}

	if err.RollbackErr != nil {
		p.Warning("Cleanup failed: %v", err.RollbackErr)
	}

	if len(err.Remediation) > 0 {
		warningColor.Fprintln(p.out, "\nPossible fixes:")
		for _, step := range err.Remediation {
			fmt.Fprintf(p.out, "  • %s\n", step)
		}
	}
}

// Done prints the closing instructions for a created project.
func (p *Printer) Done(projectName, startCommand string) {
	successColor.Fprintln(p.out, "\n✨ Done! Your project is ready.")
	fmt.Fprintln(p.out)
	infoColor.Fprintf(p.out, "  cd %s\n", projectName)
	infoColor.Fprintf(p.out, "  %s\n", startCommand)
	fmt.Fprintln(p.out)
}
