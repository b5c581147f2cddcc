package probe

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

var (
	redisAuthFailedMarkers = []string{
		"WRONGPASS",
		"invalid password",
		"invalid username-password pair",
		"without any password configured",
	}
	redisNotFoundMarkers = []string{"DB index is out of range", "invalid DB index"}
)

// Redis probes a redis server with PING. Only the URI of the spec is used.
type Redis struct {
	timeout time.Duration
}

// NewRedis creates a redis probe bounded by timeout.
func NewRedis(timeout time.Duration) *Redis {
	return &Redis{timeout: effectiveTimeout(timeout)}
}

var _ Probe = (*Redis)(nil)

// Probe checks the redis server addressed by spec.URI.
func (p *Redis) Probe(ctx context.Context, spec ConnectionSpec) model.ProbeResult {
	return attempt(ctx, spec, model.TargetPrimary, p.timeout, func(ctx context.Context) error {
		opts, err := redis.ParseURL(spec.URI)
		if err != nil {
			return err
		}
		opts.DialTimeout = p.timeout
		opts.ReadTimeout = p.timeout
		opts.WriteTimeout = p.timeout
		opts.MaxRetries = -1
		opts.PoolSize = 1
		opts.DisableIdentity = true

		client := redis.NewClient(opts)
		defer client.Close()

		return client.Ping(ctx).Err()
	}, classifyRedis)
}

func classifyRedis(err error) apperrors.Code {
	message := err.Error()

	// A reply from the server means it was reachable.
	if _, replied := err.(redis.Error); !replied && isUnreachable(err) {
		return apperrors.CodeConnRefused
	}
	if strings.HasPrefix(message, "NOAUTH") || strings.Contains(message, "NOAUTH ") {
		return apperrors.CodeAuthRequired
	}

	return classifyByMessage(err, redisAuthFailedMarkers, redisNotFoundMarkers)
}
