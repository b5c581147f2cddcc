package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"

	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

var unreachableMarkers = []string{
	"connection refused",
	"no such host",
	"i/o timeout",
	"network is unreachable",
	"no route to host",
	"server selection error",
	"context deadline exceeded",
}

// isUnreachable reports whether err means the server could not be reached in
// time: refused, unresolvable, unroutable or timed out.
func isUnreachable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	message := strings.ToLower(err.Error())
	for _, marker := range unreachableMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

// classifyByMessage is the fallback for drivers that only expose text.
func classifyByMessage(err error, auth, notFound []string) apperrors.Code {
	message := err.Error()
	for _, marker := range auth {
		if strings.Contains(message, marker) {
			return apperrors.CodeAuthFailed
		}
	}
	for _, marker := range notFound {
		if strings.Contains(message, marker) {
			return apperrors.CodeDBNotFound
		}
	}
	return apperrors.CodeUnknown
}
