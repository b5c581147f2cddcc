// Package connectivity validates that the configured database and cache are
// reachable before anything is written to disk.
package connectivity

import (
	"context"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/logger"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/probe"
)

// Scope names the part of the configuration a failed probe points at.
type Scope string

const (
	ScopeDatabase Scope = "database"
	ScopeCache    Scope = "cache"
)

// Prober is satisfied by probe.Registry.
type Prober interface {
	Probe(ctx context.Context, spec probe.ConnectionSpec) model.ProbeResult
}

// Service runs the database and cache probes of one validation attempt.
type Service struct {
	probes Prober
	logger *logger.Logger
}

// NewService constructs a validation service. A nil logger discards output.
func NewService(probes Prober, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{probes: probes, logger: log}
}

// ValidateAll probes the database and the cache concurrently and waits for
// both. A failing probe never cancels the other one.
func (s *Service) ValidateAll(ctx context.Context, cfg config.Config) model.ValidationReport {
	type outcome struct {
		scope  Scope
		result model.ProbeResult
	}

	specs := map[Scope]probe.ConnectionSpec{
		ScopeDatabase: DatabaseSpec(cfg.Database),
		ScopeCache:    CacheSpec(cfg.Cache),
	}

	results := make(chan outcome, len(specs))
	for scope, spec := range specs {
		go func() {
			s.logger.Debug("probing", "scope", scope, "kind", spec.Kind, "address", spec.Address())
			results <- outcome{scope: scope, result: s.probes.Probe(ctx, spec)}
		}()
	}

	var database, cache model.ProbeResult
	for range len(specs) {
		res := <-results
		s.log(res.scope, res.result)
		if res.scope == ScopeDatabase {
			database = res.result
		} else {
			cache = res.result
		}
	}

	return model.NewValidationReport(database, cache)
}

func (s *Service) log(scope Scope, result model.ProbeResult) {
	fields := []any{"scope", scope, "backend", result.Backend, "address", result.Address, "duration", result.Duration}
	if result.OK() {
		s.logger.Info("probe passed", fields...)
	} else {
		s.logger.Warn("probe failed", append(fields, "class", result.ErrorClass, "message", result.Message)...)
	}
	if result.ReplicaFailed() {
		s.logger.Warn("replica probe failed", "address", result.Replica.Address, "class", result.Replica.ErrorClass)
	}
}

// FailedScopes lists the scopes whose primary probe failed, database first.
func FailedScopes(report model.ValidationReport) []Scope {
	var scopes []Scope
	if !report.Database.OK() {
		scopes = append(scopes, ScopeDatabase)
	}
	if !report.Cache.OK() {
		scopes = append(scopes, ScopeCache)
	}
	return scopes
}

// DatabaseSpec builds the probe input for the configured database. It is
// rebuilt for every attempt so edits made between attempts take effect.
func DatabaseSpec(db config.DatabaseSettings) probe.ConnectionSpec {
	spec := probe.ConnectionSpec{
		Kind:     probe.Kind(db.Type),
		Host:     db.Host,
		Port:     db.Port,
		User:     db.Username,
		Password: db.Password,
		Database: db.Name,
		URI:      db.URI,
	}

	if db.Type == config.DBMongoDB {
		spec.AuthSource = db.AuthSource
	}
	if db.Type.Relational() && db.HasReplica() {
		spec.ReplicaHost = db.ReplicaHost
		spec.ReplicaPort = db.ReplicaPort
	}
	return spec
}

// CacheSpec builds the probe input for the redis cache.
func CacheSpec(cache config.CacheSettings) probe.ConnectionSpec {
	return probe.ConnectionSpec{Kind: probe.KindRedis, URI: cache.URI}
}
