package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// SQLSTATE codes relevant to classification.
const (
	pgInvalidPassword      = "28P01"
	pgInvalidAuthorization = "28000"
	pgInvalidCatalogName   = "3D000"
)

// Postgres probes a postgres server with SELECT 1.
type Postgres struct {
	timeout time.Duration
}

// NewPostgres creates a postgres probe bounded by timeout.
func NewPostgres(timeout time.Duration) *Postgres {
	return &Postgres{timeout: effectiveTimeout(timeout)}
}

var _ Probe = (*Postgres)(nil)

// Probe checks the primary and, when configured, the replica.
func (p *Postgres) Probe(ctx context.Context, spec ConnectionSpec) model.ProbeResult {
	return withReplica(ctx, spec, p.probeOne)
}

func (p *Postgres) probeOne(ctx context.Context, spec ConnectionSpec, target string) model.ProbeResult {
	return attempt(ctx, spec, target, p.timeout, func(ctx context.Context) error {
		cfg, err := pgx.ParseConfig(postgresDSN(spec))
		if err != nil {
			return err
		}
		cfg.ConnectTimeout = p.timeout

		conn, err := pgx.ConnectConfig(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			_ = conn.Close(closeCtx)
		}()

		_, err = conn.Exec(ctx, "SELECT 1")
		return err
	}, classifyPostgres)
}

func postgresDSN(spec ConnectionSpec) string {
	if spec.URI != "" {
		return spec.URI
	}

	dsn := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(spec.Host, strconv.Itoa(spec.Port)),
		Path:   "/" + spec.Database,
	}
	if spec.User != "" {
		dsn.User = url.UserPassword(spec.User, spec.Password)
	}
	return dsn.String()
}

func classifyPostgres(err error) apperrors.Code {
	var pgErr *pgconn.PgError
	hasPgErr := errors.As(err, &pgErr)

	// Server-side errors prove the server was reached.
	if !hasPgErr && isUnreachable(err) {
		return apperrors.CodeConnRefused
	}

	if hasPgErr {
		switch pgErr.Code {
		case pgInvalidPassword, pgInvalidAuthorization:
			return apperrors.CodeAuthFailed
		case pgInvalidCatalogName:
			return apperrors.CodeDBNotFound
		}
	}

	return classifyByMessage(err, []string{"password authentication failed"}, []string{"does not exist"})
}
