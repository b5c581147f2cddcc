package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// Field names a single prompt input with its own syntactic rule.
type Field string

const (
	FieldProjectName   Field = "projectName"
	FieldRequired      Field = "required"
	FieldPort          Field = "port"
	FieldDatabaseName  Field = "databaseName"
	FieldRedisURI      Field = "redisUri"
	FieldPositive      Field = "positiveNumber"
	FieldNonNegative   Field = "nonNegativeNumber"
	FieldSaltRounds    Field = "saltRounds"
	FieldTokenExpiry   Field = "tokenExpiry"
	FieldTimeout       Field = "timeout"
	FieldEmail         Field = "email"
	FieldAdminPassword Field = "adminPassword"
	FieldBackendURL    Field = "backendUrl"
	FieldDatabaseURI   Field = "databaseUri"
)

var tokenExpiryPattern = regexp.MustCompile(`^\d+[smhd]$`)

// FieldContext carries what a field rule may need beyond the value itself.
type FieldContext struct {
	// WorkingDir is where the project directory will be created.
	WorkingDir string
	// DBType scopes the database URI rule.
	DBType DBType
}

// ValidateField checks one prompt value and returns a ValidationError whose
// Message is suitable for showing next to the input.
func ValidateField(field Field, value string, fctx FieldContext) error {
	message := fieldMessage(field, value, fctx)
	if message == "" {
		return nil
	}
	return apperrors.NewValidationError(string(field), message, nil)
}

// FieldValidator adapts ValidateField to the func(string) error shape used by
// prompt libraries.
func FieldValidator(field Field, fctx FieldContext) func(string) error {
	return func(value string) error {
		message := fieldMessage(field, value, fctx)
		if message == "" {
			return nil
		}
		return errors.New(message)
	}
}

func fieldMessage(field Field, value string, fctx FieldContext) string {
	v := validatorInstance()
	trimmed := strings.TrimSpace(value)

	switch field {
	case FieldProjectName:
		if trimmed == "" {
			return "Project name is required"
		}
		if !projectNamePattern.MatchString(value) {
			return "Only letters, numbers, - and _ allowed"
		}
		if fctx.WorkingDir != "" {
			if _, err := os.Stat(filepath.Join(fctx.WorkingDir, value)); err == nil || !errors.Is(err, fs.ErrNotExist) {
				return fmt.Sprintf("Directory %s already exists", value)
			}
		}
	case FieldRequired:
		if trimmed == "" {
			return "This field is required"
		}
	case FieldPort:
		if trimmed == "" {
			return "Port is required"
		}
		port, err := strconv.Atoi(trimmed)
		if err != nil || v.Var(port, "min=1,max=65535") != nil {
			return "Invalid port (1-65535)"
		}
	case FieldDatabaseName:
		if trimmed == "" {
			return "Database name is required"
		}
		if !dbNamePattern.MatchString(value) {
			return "Invalid database name"
		}
	case FieldRedisURI:
		if trimmed == "" {
			return "Redis is required for Enfyra"
		}
		if v.Var(value, "redis_uri") != nil {
			return "Must start with redis://"
		}
	case FieldPositive:
		if n, err := strconv.Atoi(trimmed); err != nil || n < 1 {
			return "Invalid number"
		}
	case FieldNonNegative:
		if n, err := strconv.Atoi(trimmed); err != nil || n < 0 {
			return "Invalid number"
		}
	case FieldSaltRounds:
		rounds, err := strconv.Atoi(trimmed)
		if err != nil || v.Var(rounds, "min=1,max=20") != nil {
			return "Invalid (1-20)"
		}
	case FieldTokenExpiry:
		if !tokenExpiryPattern.MatchString(value) {
			return "Format: 15m, 1h, 7d, etc."
		}
	case FieldTimeout:
		if n, err := strconv.Atoi(trimmed); err != nil || n < 100 {
			return "Invalid timeout (min 100ms)"
		}
	case FieldEmail:
		if trimmed == "" {
			return "Email is required"
		}
		if v.Var(value, "email") != nil {
			return "Invalid email format"
		}
	case FieldAdminPassword:
		if v.Var(value, "min=4") != nil {
			return "Password must be at least 4 characters"
		}
	case FieldBackendURL:
		if trimmed == "" {
			return "Backend URL is required"
		}
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return "URL must start with http:// or https://"
		}
		if !validBackendURL(value) {
			return "Invalid URL format"
		}
	case FieldDatabaseURI:
		if trimmed == "" {
			return "Connection URI is required"
		}
		if err := ValidateDatabase(DatabaseSettings{Type: fctx.DBType, URI: trimmed}); err != nil {
			return "Invalid connection URI for " + string(fctx.DBType)
		}
	default:
		return fmt.Sprintf("unknown field %q", field)
	}

	return ""
}
