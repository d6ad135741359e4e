package probe

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

// ClassifyTransportError maps a client error onto the fixed reason taxonomy.
func ClassifyTransportError(err error) string {
	if err == nil {
		return ""
	}
	var de *net.DNSError
	if errors.As(err, &de) {
		return domain.ReasonDNSFailure
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ReasonTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return domain.ReasonConnectionRefused
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ReasonTimeout
	}
	return domain.ReasonUnknown
}
