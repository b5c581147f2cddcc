package config

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	projectNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	dbNamePattern      = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	uriSchemes = map[DBType][]string{
		DBMySQL:    {"mysql"},
		DBPostgres: {"postgres", "postgresql"},
		DBMongoDB:  {"mongodb", "mongodb+srv"},
	}
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})

		_ = v.RegisterValidation("project_name", func(fl validator.FieldLevel) bool {
			return projectNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("db_name", func(fl validator.FieldLevel) bool {
			return dbNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("redis_uri", func(fl validator.FieldLevel) bool {
			return strings.HasPrefix(fl.Field().String(), "redis://")
		})

		_ = v.RegisterValidation("backend_url", func(fl validator.FieldLevel) bool {
			return validBackendURL(fl.Field().String())
		})

		_ = v.RegisterValidation("db_uri", func(fl validator.FieldLevel) bool {
			parsed, err := url.Parse(fl.Field().String())
			return err == nil && parsed.Scheme != "" && parsed.Host != ""
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the record.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return apperrors.NewValidationError("config", "configuration is nil", nil)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if err := ValidateDatabase(cfg.Database); err != nil {
		return err
	}

	return nil
}

// ValidateDatabase checks the connection fields that depend on one another.
func ValidateDatabase(db DatabaseSettings) error {
	if err := validatorInstance().Struct(db); err != nil {
		return convertValidationError(err)
	}

	if db.URI != "" {
		parsed, err := url.Parse(db.URI)
		if err != nil {
			return apperrors.NewValidationError("database.uri", "invalid connection URI", err)
		}
		if !schemeAllowed(db.Type, parsed.Scheme) {
			return apperrors.NewValidationError("database.uri", fmt.Sprintf("scheme %q does not match database type %s", parsed.Scheme, db.Type), nil)
		}
	} else {
		if strings.TrimSpace(db.Host) == "" {
			return apperrors.NewValidationError("database.host", "host is required", nil)
		}
		if db.Port == 0 {
			return apperrors.NewValidationError("database.port", "port is required", nil)
		}
		if strings.TrimSpace(db.Name) == "" {
			return apperrors.NewValidationError("database.name", "Database name is required", nil)
		}
	}

	if db.HasReplica() {
		if !db.Type.Relational() {
			return apperrors.NewValidationError("database.replicaHost", "read replicas are only supported for mysql and postgres", nil)
		}
		if db.ReplicaPort == 0 {
			return apperrors.NewValidationError("database.replicaPort", "replica port is required", nil)
		}
	}

	if db.Pool.Enabled {
		if db.Pool.Size < 1 {
			return apperrors.NewValidationError("database.pool.size", "Invalid number", nil)
		}
		if db.Pool.ConnectionLimit < 1 {
			return apperrors.NewValidationError("database.pool.connectionLimit", "Invalid number", nil)
		}
	}

	return nil
}

func schemeAllowed(dbType DBType, scheme string) bool {
	for _, allowed := range uriSchemes[dbType] {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func validBackendURL(raw string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	parsed, err := url.ParseRequestURI(raw)
	return err == nil && parsed.Host != ""
}

// convertValidationError normalizes validator errors into validation errors.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := fieldPath(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return apperrors.NewValidationError(field, msg, err)
	}

	return apperrors.NewValidationError("config", err.Error(), err)
}

// fieldPath drops the root struct name from the yaml-named namespace.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
