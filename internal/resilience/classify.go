package resilience

import (
	"strings"

	"go.uber.org/zap"
)

// Class labels a failure as safe to retry on a later run or not.
type Class int

const (
	// ClassPermanent means retrying is pointless or wasteful; the lead
	// is marked contacted so future runs skip it.
	ClassPermanent Class = iota
	// ClassTransient means a later attempt may succeed; the lead is
	// left unmarked so a future run retries it.
	ClassTransient
)

func (c Class) String() string {
	if c == ClassTransient {
		return "transient"
	}
	return "permanent"
}

// Permanent patterns are checked before transient ones so that messages
// matching both (e.g. "ssl handshake timeout") resolve to permanent.
var permanentPatterns = []string{
	"invalid email",
	"malformed",
	"not found",
	"404",
	"forbidden",
	"unauthorized",
	"permission denied",
	"invalid request",
	"bad request",
	"no such host",
	"nodename nor servname provided",
	"name or service not known",
	"no address associated with hostname",
	"name resolution failed",
	"host not found",
	"domain not found",
	"cannot resolve hostname",
	"getaddrinfo failed",
	"cannot connect to host",
	"connection refused",
	"ssl",
	"certificate",
	"tls",
	"handshake failure",
}

var transientPatterns = []string{
	"timeout",
	"timed out",
	"network unreachable",
	"temporary failure",
	"service unavailable",
	"bad gateway",
	"gateway timeout",
	"502",
	"503",
	"504",
	"too many requests",
	"rate limit",
	"quota exceeded",
	"server error",
	"internal server error",
	"token may have expired",
	"token expired",
	"authentication failed",
}

// Classify maps an error message to a retry class. It is a pure function
// of the message string.
//
// Empty messages classify transient: with nothing to go on, leaving the
// lead for a retry is the safer reading. Everything else that matches no
// pattern classifies permanent, so an intractable lead cannot loop
// forever; a wrongly skipped one can be reset by hand.
func Classify(msg string) Class {
	if strings.TrimSpace(msg) == "" {
		zap.L().Warn("classify: empty error message, defaulting to transient")
		return ClassTransient
	}

	lower := strings.ToLower(msg)

	for _, p := range permanentPatterns {
		if strings.Contains(lower, p) {
			return ClassPermanent
		}
	}
	for _, p := range transientPatterns {
		if strings.Contains(lower, p) {
			return ClassTransient
		}
	}

	zap.L().Debug("classify: unmatched error message, defaulting to permanent",
		zap.String("message", msg),
	)
	return ClassPermanent
}

// IsPermanentFailure reports whether err should stop future attempts for
// this lead. A nil error is not a failure at all and returns false.
func IsPermanentFailure(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err.Error()) == ClassPermanent
}
