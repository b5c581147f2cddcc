// Package probe checks that a data store accepts connections with the
// operator's credentials. Each backend has one stateless implementation that
// opens a connection, runs a liveness command and closes the connection.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// DefaultTimeout bounds a single probe, including connection teardown.
const DefaultTimeout = 5 * time.Second

// Kind selects the wire protocol of a ConnectionSpec.
type Kind string

const (
	KindMySQL    Kind = "mysql"
	KindPostgres Kind = "postgres"
	KindMongoDB  Kind = "mongodb"
	KindRedis    Kind = "redis"
)

// ErrUnknownKind is returned when no probe is registered for a kind.
var ErrUnknownKind = errors.New("no probe registered for kind")

// ConnectionSpec describes one endpoint to probe. When URI is set the
// discrete host fields are ignored for the primary target.
type ConnectionSpec struct {
	Kind       Kind
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	AuthSource string
	URI        string

	// ReplicaHost and ReplicaPort are honoured by relational kinds only.
	ReplicaHost string
	ReplicaPort int
}

// Address returns host:port of the primary target without credentials.
func (s ConnectionSpec) Address() string {
	if s.URI != "" {
		parsed, err := url.Parse(s.URI)
		if err != nil || parsed.Host == "" {
			return "<invalid uri>"
		}
		return parsed.Host
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Validate rejects specs that cannot be dialled.
func (s ConnectionSpec) Validate() error {
	if s.URI != "" {
		if _, err := url.Parse(s.URI); err != nil {
			return fmt.Errorf("invalid connection uri: %w", err)
		}
		return nil
	}
	if strings.TrimSpace(s.Host) == "" {
		return errors.New("host is required")
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d (1-65535)", s.Port)
	}
	return nil
}

// HasReplica reports whether a replica endpoint is configured.
func (s ConnectionSpec) HasReplica() bool {
	return strings.TrimSpace(s.ReplicaHost) != ""
}

// Replica derives the spec of the read replica: same protocol, credentials
// and database, different address.
func (s ConnectionSpec) Replica() (ConnectionSpec, bool) {
	if !s.HasReplica() {
		return ConnectionSpec{}, false
	}

	replica := s
	replica.ReplicaHost = ""
	replica.ReplicaPort = 0
	replica.Host = s.ReplicaHost
	replica.Port = s.ReplicaPort

	if s.URI != "" {
		parsed, err := url.Parse(s.URI)
		if err == nil {
			parsed.Host = net.JoinHostPort(s.ReplicaHost, strconv.Itoa(s.ReplicaPort))
			replica.URI = parsed.String()
		} else {
			replica.URI = ""
		}
	}

	return replica, true
}

// Probe checks one connection spec. Implementations never return an error:
// every outcome is described by the ProbeResult.
type Probe interface {
	Probe(ctx context.Context, spec ConnectionSpec) model.ProbeResult
}

// Registry maps a kind to its probe. It is the only place that knows which
// implementation serves which backend.
type Registry struct {
	mu     sync.RWMutex
	probes map[Kind]Probe
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[Kind]Probe)}
}

// DefaultRegistry returns a registry with every built-in probe bounded by
// timeout.
func DefaultRegistry(timeout time.Duration) *Registry {
	r := NewRegistry()
	r.Register(KindMySQL, NewMySQL(timeout))
	r.Register(KindPostgres, NewPostgres(timeout))
	r.Register(KindMongoDB, NewMongoDB(timeout))
	r.Register(KindRedis, NewRedis(timeout))
	return r
}

// Register adds or replaces the probe for kind.
func (r *Registry) Register(kind Kind, p Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[kind] = p
}

// Get returns the probe registered for kind.
func (r *Registry) Get(kind Kind) (Probe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.probes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return p, nil
}

// Probe dispatches spec to the probe of its kind. An unregistered kind yields
// an UNKNOWN failure.
func (r *Registry) Probe(ctx context.Context, spec ConnectionSpec) model.ProbeResult {
	p, err := r.Get(spec.Kind)
	if err != nil {
		return model.Failure(string(spec.Kind), model.TargetPrimary, spec.Address(), apperrors.CodeUnknown, err.Error(), 0)
	}
	return p.Probe(ctx, spec)
}

func effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

// attempt runs one open/check/close cycle under the probe deadline and turns
// the outcome into a ProbeResult.
func attempt(
	ctx context.Context,
	spec ConnectionSpec,
	target string,
	timeout time.Duration,
	check func(ctx context.Context) error,
	classify func(error) apperrors.Code,
) model.ProbeResult {
	backend := string(spec.Kind)
	address := spec.Address()

	if err := spec.Validate(); err != nil {
		return model.Failure(backend, target, address, apperrors.CodeUnknown, err.Error(), 0)
	}

	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, effectiveTimeout(timeout))
	defer cancel()

	err := check(probeCtx)
	elapsed := time.Since(start)
	if err == nil {
		return model.Success(backend, target, address, elapsed)
	}

	// A probe that ran into its own deadline is reported as unreachable even
	// when the driver surfaces a different error.
	class := classify(err)
	if class == apperrors.CodeUnknown && errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
		class = apperrors.CodeConnRefused
	}
	return model.Failure(backend, target, address, class, err.Error(), elapsed)
}

// withReplica probes the primary and, when configured, the replica
// concurrently. The replica result is attached and never alters the primary
// outcome.
func withReplica(
	ctx context.Context,
	spec ConnectionSpec,
	one func(ctx context.Context, spec ConnectionSpec, target string) model.ProbeResult,
) model.ProbeResult {
	replicaSpec, ok := spec.Replica()
	if !ok {
		return one(ctx, spec, model.TargetPrimary)
	}

	replicaCh := make(chan model.ProbeResult, 1)
	go func() {
		replicaCh <- one(ctx, replicaSpec, model.TargetReplica)
	}()

	primary := one(ctx, spec, model.TargetPrimary)
	replica := <-replicaCh
	primary.Replica = &replica
	return primary
}
