package generation

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/spigell/cv-screener/internal/ai"
)

// Reason classifies a failed service call.
type Reason string

const (
	ReasonRateLimit Reason = "rate_limit"
	ReasonTimeout   Reason = "timeout"
	ReasonOther     Reason = "other"
)

var (
	rateLimitMarkers = []string{"rate limit", "ratelimit", "too many requests", "quota", "resource_exhausted", "resource exhausted"}
	timeoutMarkers   = []string{"timeout", "timed out", "deadline exceeded", "deadline_exceeded"}
)

// Classify maps a service error to the retry policy that applies to it.
func Classify(err error) Reason {
	if err == nil {
		return ReasonOther
	}

	var statusErr *ai.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusTooManyRequests:
			return ReasonRateLimit
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return ReasonTimeout
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return ReasonRateLimit
		}
	}
	for _, marker := range timeoutMarkers {
		if strings.Contains(msg, marker) {
			return ReasonTimeout
		}
	}

	return ReasonOther
}
