// Package install finds the JavaScript toolchain on the host and installs the
// generated project's dependencies with the selected package manager.
package install

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
)

// Tool is a binary whose presence and version gate the run.
type Tool struct {
	Name       string
	MinVersion string
	InstallURL string
	// IssueURL is where problems with the tool itself are reported.
	IssueURL   string
}

// Runtime is the JavaScript runtime the generated project needs.
var Runtime = Tool{Name: "node", MinVersion: "18.0.0", InstallURL: "https://nodejs.org/"}

// Managers lists the supported package managers in preference order.
var Managers = []struct {
	Manager config.PackageManager
	Tool    Tool
}{
	{config.Yarn, Tool{Name: "yarn", MinVersion: "1.22.0", InstallURL: "https://yarnpkg.com/getting-started/install", IssueURL: "https://github.com/yarnpkg/berry/issues"}},
	{config.NPM, Tool{Name: "npm", MinVersion: "8.0.0", InstallURL: "https://docs.npmjs.com/downloading-and-installing-node-js-and-npm", IssueURL: "https://github.com/npm/cli/issues"}},
	{config.PNPM, Tool{Name: "pnpm", MinVersion: "8.0.0", InstallURL: "https://pnpm.io/installation", IssueURL: "https://github.com/pnpm/pnpm/issues"}},
	{config.Bun, Tool{Name: "bun", MinVersion: "1.0.0", InstallURL: "https://bun.sh/docs/installation", IssueURL: "https://github.com/oven-sh/bun/issues"}},
}

// ErrUnsupportedRuntime is returned when node is missing or too old.
var ErrUnsupportedRuntime = errors.New("unsupported runtime")

// ErrNoPackageManager is returned when no supported package manager is usable.
var ErrNoPackageManager = errors.New("no supported package manager found")

const versionTimeout = 5 * time.Second

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// Detection is the outcome of looking up one tool.
type Detection struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
	// Supported is set when the tool was found and meets MinVersion.
	Supported bool
}

// ManagerDetection pairs a detection with its package manager.
type ManagerDetection struct {
	Manager config.PackageManager
	Detection
}

// Detector looks tools up on PATH. Zero fields fall back to os/exec.
type Detector struct {
	LookPath func(file string) (string, error)
	Version  func(ctx context.Context, path string) (string, error)
}

func (d Detector) lookPath(name string) (string, error) {
	if d.LookPath != nil {
		return d.LookPath(name)
	}
	return exec.LookPath(name)
}

func (d Detector) version(ctx context.Context, path string) (string, error) {
	if d.Version != nil {
		return d.Version(ctx, path)
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Detect looks tool up and compares its version against MinVersion.
func (d Detector) Detect(ctx context.Context, tool Tool) Detection {
	detection := Detection{Tool: tool}

	path, err := d.lookPath(tool.Name)
	if err != nil {
		return detection
	}
	detection.Found = true
	detection.Path = path

	output, err := d.version(ctx, path)
	if err != nil {
		return detection
	}
	version, err := ParseVersion(output)
	if err != nil {
		return detection
	}
	detection.Version = version.String()
	detection.Supported = meets(version, tool.MinVersion)
	return detection
}

// CheckRuntime fails with ErrUnsupportedRuntime unless node meets its minimum.
func (d Detector) CheckRuntime(ctx context.Context) (Detection, error) {
	detection := d.Detect(ctx, Runtime)
	switch {
	case !detection.Found:
		return detection, fmt.Errorf("%w: node is not installed, install Node.js %s or higher from %s", ErrUnsupportedRuntime, Runtime.MinVersion, Runtime.InstallURL)
	case !detection.Supported:
		found := detection.Version
		if found == "" {
			found = "unknown"
		}
		return detection, fmt.Errorf("%w: Node.js version %s is not supported, please upgrade to Node.js %s or higher", ErrUnsupportedRuntime, found, Runtime.MinVersion)
	}
	return detection, nil
}

// DetectManagers reports every supported package manager in preference order.
func (d Detector) DetectManagers(ctx context.Context) []ManagerDetection {
	detections := make([]ManagerDetection, 0, len(Managers))
	for _, m := range Managers {
		detections = append(detections, ManagerDetection{Manager: m.Manager, Detection: d.Detect(ctx, m.Tool)})
	}
	return detections
}

// Usable filters detections down to the supported managers. It fails with
// ErrNoPackageManager when none is usable.
func Usable(detections []ManagerDetection) ([]ManagerDetection, error) {
	var usable []ManagerDetection
	for _, det := range detections {
		if det.Supported {
			usable = append(usable, det)
		}
	}
	if len(usable) == 0 {
		var gates []string
		for _, m := range Managers {
			gates = append(gates, fmt.Sprintf("%s >= %s", m.Tool.Name, m.Tool.MinVersion))
		}
		return nil, fmt.Errorf("%w: install one of %s", ErrNoPackageManager, strings.Join(gates, ", "))
	}
	return usable, nil
}

// ParseVersion extracts the first version number from tool output such as
// "v20.11.1" or "10.2.4".
func ParseVersion(output string) (*semver.Version, error) {
	match := versionPattern.FindString(output)
	if match == "" {
		return nil, fmt.Errorf("no version in %q", output)
	}
	return semver.NewVersion(match)
}

func meets(version *semver.Version, minimum string) bool {
	constraint, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return false
	}
	return constraint.Check(version)
}
