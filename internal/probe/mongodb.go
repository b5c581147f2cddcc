package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

const mongoAuthenticationFailed = 18

var mongoAuthMarkers = []string{"AuthenticationFailed", "Authentication failed", "auth error"}

// MongoDB probes a mongodb server with the ping command. Databases are
// created lazily by the server, so a missing database is never reported.
type MongoDB struct {
	timeout time.Duration
}

// NewMongoDB creates a mongodb probe bounded by timeout.
func NewMongoDB(timeout time.Duration) *MongoDB {
	return &MongoDB{timeout: effectiveTimeout(timeout)}
}

var _ Probe = (*MongoDB)(nil)

// Probe checks the primary target. Replica settings are ignored.
func (p *MongoDB) Probe(ctx context.Context, spec ConnectionSpec) model.ProbeResult {
	spec.ReplicaHost = ""
	spec.ReplicaPort = 0

	return attempt(ctx, spec, model.TargetPrimary, p.timeout, func(ctx context.Context) error {
		opts := options.Client().
			ApplyURI(mongoURI(spec)).
			SetServerSelectionTimeout(p.timeout).
			SetConnectTimeout(p.timeout).
			SetMaxPoolSize(1)
		if spec.URI == "" {
			opts.SetDirect(true)
		}

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			_ = client.Disconnect(closeCtx)
		}()

		database := spec.Database
		if database == "" {
			database = "admin"
		}
		return client.Database(database).RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	}, classifyMongo)
}

func mongoURI(spec ConnectionSpec) string {
	if spec.URI != "" {
		return spec.URI
	}

	uri := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(spec.Host, strconv.Itoa(spec.Port)),
		Path:   "/" + spec.Database,
	}
	if spec.User != "" {
		uri.User = url.UserPassword(spec.User, spec.Password)
		if spec.AuthSource != "" {
			uri.RawQuery = url.Values{"authSource": []string{spec.AuthSource}}.Encode()
		}
	}
	return uri.String()
}

func classifyMongo(err error) apperrors.Code {
	// The driver reports handshake auth failures as connection errors, so auth
	// is checked before reachability.
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == mongoAuthenticationFailed || cmdErr.Name == "AuthenticationFailed") {
		return apperrors.CodeAuthFailed
	}
	for _, marker := range mongoAuthMarkers {
		if strings.Contains(err.Error(), marker) {
			return apperrors.CodeAuthFailed
		}
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || isUnreachable(err) {
		return apperrors.CodeConnRefused
	}

	return apperrors.CodeUnknown
}
