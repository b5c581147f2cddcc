package probe

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// MySQL server error numbers relevant to classification.
const (
	mysqlAccessDenied       = 1045
	mysqlDBAccessDenied     = 1044
	mysqlBadDB              = 1049
	mysqlPluginAccessDenied = 1698
)

var silenceMySQLOnce sync.Once

// MySQL probes a mysql server with PING on a single connection.
type MySQL struct {
	timeout time.Duration
}

// NewMySQL creates a mysql probe bounded by timeout.
func NewMySQL(timeout time.Duration) *MySQL {
	// The driver prints packet errors to stderr, which would tear prompts.
	silenceMySQLOnce.Do(func() {
		_ = mysql.SetLogger(log.New(io.Discard, "", 0))
	})
	return &MySQL{timeout: effectiveTimeout(timeout)}
}

var _ Probe = (*MySQL)(nil)

// Probe checks the primary and, when configured, the replica.
func (p *MySQL) Probe(ctx context.Context, spec ConnectionSpec) model.ProbeResult {
	return withReplica(ctx, spec, p.probeOne)
}

func (p *MySQL) probeOne(ctx context.Context, spec ConnectionSpec, target string) model.ProbeResult {
	return attempt(ctx, spec, target, p.timeout, func(ctx context.Context) error {
		cfg, err := mysqlConfig(spec, p.timeout)
		if err != nil {
			return err
		}

		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return err
		}

		db := sql.OpenDB(connector)
		defer db.Close()
		db.SetMaxOpenConns(1)

		return db.PingContext(ctx)
	}, classifyMySQL)
}

func mysqlConfig(spec ConnectionSpec, timeout time.Duration) (*mysql.Config, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	cfg.WriteTimeout = timeout

	if spec.URI == "" {
		cfg.User = spec.User
		cfg.Passwd = spec.Password
		cfg.Addr = net.JoinHostPort(spec.Host, strconv.Itoa(spec.Port))
		cfg.DBName = spec.Database
		return cfg, nil
	}

	parsed, err := url.Parse(spec.URI)
	if err != nil {
		return nil, err
	}
	if parsed.Host == "" {
		return nil, errors.New("connection uri has no host")
	}

	host := parsed.Host
	if parsed.Port() == "" {
		host = net.JoinHostPort(parsed.Hostname(), "3306")
	}
	cfg.Addr = host
	if parsed.User != nil {
		cfg.User = parsed.User.Username()
		cfg.Passwd, _ = parsed.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(parsed.Path, "/")
	return cfg, nil
}

func classifyMySQL(err error) apperrors.Code {
	if isUnreachable(err) {
		return apperrors.CodeConnRefused
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlAccessDenied, mysqlDBAccessDenied, mysqlPluginAccessDenied:
			return apperrors.CodeAuthFailed
		case mysqlBadDB:
			return apperrors.CodeDBNotFound
		}
	}

	return classifyByMessage(err, []string{"Access denied"}, []string{"Unknown database"})
}
