// Package retry drives connectivity validation until it passes or the
// operator gives up.
package retry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/connectivity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/logger"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
)

// ErrAbandoned is returned when the operator chooses not to retry.
var ErrAbandoned = errors.New("setup abandoned")

// ErrConnectivity is returned when validation fails and there is no operator
// to ask.
var ErrConnectivity = errors.New("connectivity validation failed")

// Validator runs one round of connectivity probes.
type Validator interface {
	ValidateAll(ctx context.Context, cfg config.Config) model.ValidationReport
}

// Operator is the human on the other side of the retry loop.
type Operator interface {
	// Report shows the outcome of a round with its remediation hints.
	Report(report model.ValidationReport, hints []connectivity.Hint)
	// ConfirmRetry asks whether to try again.
	ConfirmRetry(ctx context.Context) (bool, error)
	// Database collects new database connection fields starting from current.
	Database(ctx context.Context, current config.DatabaseSettings) (config.DatabaseSettings, error)
	// Cache collects a new cache connection starting from current.
	Cache(ctx context.Context, current config.CacheSettings) (config.CacheSettings, error)
}

// Controller alternates validation with operator decisions.
type Controller struct {
	validator Validator
	operator  Operator
	logger    *logger.Logger
}

// NewController builds a Controller. A nil operator makes any validation
// failure fatal.
func NewController(validator Validator, operator Operator, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{validator: validator, operator: operator, logger: log}
}

// Run validates cfg and, on failure, re-collects only the failing connection
// settings until validation passes. The returned config is the last validated
// snapshot; cfg itself is never modified.
func (c *Controller) Run(ctx context.Context, cfg config.Config) (config.Config, model.ValidationReport, error) {
	current := cfg

	for attempt := 1; ; attempt++ {
		report := c.validator.ValidateAll(ctx, current)
		hints := connectivity.Remediation(report)

		if c.operator != nil && len(hints) > 0 {
			c.operator.Report(report, hints)
		}

		if report.AllPassed {
			c.logger.Info("connectivity validated", "attempt", attempt)
			return current, report, nil
		}

		scopes := connectivity.FailedScopes(report)
		c.logger.Warn("connectivity validation failed", "attempt", attempt, "scopes", scopes)

		if c.operator == nil {
			return current, report, fmt.Errorf("%w: %s", ErrConnectivity, summary(report))
		}

		if err := ctx.Err(); err != nil {
			return current, report, err
		}

		retry, err := c.operator.ConfirmRetry(ctx)
		if err != nil {
			return current, report, err
		}
		if !retry {
			c.logger.Info("operator abandoned setup", "attempt", attempt)
			return current, report, ErrAbandoned
		}

		next, err := c.recollect(ctx, current, scopes)
		if err != nil {
			return current, report, err
		}
		current = next
	}
}

func (c *Controller) recollect(ctx context.Context, cfg config.Config, scopes []connectivity.Scope) (config.Config, error) {
	next := cfg

	if slices.Contains(scopes, connectivity.ScopeDatabase) {
		db, err := c.operator.Database(ctx, cfg.Database)
		if err != nil {
			return cfg, err
		}
		// The backend kind is fixed for the run; only connection fields change.
		db.Type = cfg.Database.Type
		next = next.WithDatabase(db)
	}

	if slices.Contains(scopes, connectivity.ScopeCache) {
		cache, err := c.operator.Cache(ctx, cfg.Cache)
		if err != nil {
			return cfg, err
		}
		next = next.WithCache(cache)
	}

	return next, nil
}

func summary(report model.ValidationReport) string {
	var failed []string
	if !report.Database.OK() {
		failed = append(failed, report.Database.String())
	}
	if !report.Cache.OK() {
		failed = append(failed, report.Cache.String())
	}
	return strings.Join(failed, "; ")
}
