package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// Environment overrides for the template source.
const (
	EnvTemplateRepo   = "ENFYRA_TEMPLATE_REPO"
	EnvTemplateBranch = "ENFYRA_TEMPLATE_BRANCH"
	EnvTemplateDepth  = "ENFYRA_TEMPLATE_DEPTH"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// LoadAnswers reads an answers file and overlays it on Defaults. The result is
// not validated; callers validate once the project name is settled.
func LoadAnswers(path string) (Config, error) {
	cfg := Defaults()
	// The port default depends on the database type chosen in the file.
	cfg.Database.Port = 0

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, apperrors.NewParseError(path, 0, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, apperrors.NewParseError(path, extractLine(err), err)
	}

	if cfg.Database.Port == 0 && cfg.Database.URI == "" {
		cfg.Database.Port = cfg.Database.Type.DefaultPort()
	}

	return cfg, nil
}

// ApplyEnvOverrides returns cfg with template settings taken from the
// environment when set.
func ApplyEnvOverrides(cfg Config) (Config, error) {
	if repo := strings.TrimSpace(os.Getenv(EnvTemplateRepo)); repo != "" {
		cfg.Template.Repository = repo
	}
	if branch := strings.TrimSpace(os.Getenv(EnvTemplateBranch)); branch != "" {
		cfg.Template.Branch = branch
	}
	if depth := strings.TrimSpace(os.Getenv(EnvTemplateDepth)); depth != "" {
		parsed, err := strconv.Atoi(depth)
		if err != nil {
			return cfg, apperrors.NewValidationError(EnvTemplateDepth, fmt.Sprintf("invalid value %q", depth), err)
		}
		if parsed < 0 {
			return cfg, apperrors.NewValidationError(EnvTemplateDepth, fmt.Sprintf("invalid value %q: must be >= 0", depth), nil)
		}
		cfg.Template.Depth = parsed
	}
	return cfg, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
