package session

import (
	"slices"

	"pkt.systems/pslog"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/internal/loggingutil"
)

// Missing returns the required URNs the session does not advertise, sorted.
func Missing(required []string, sess *api.Session) []string {
	var missing []string
	for _, urn := range required {
		if sess != nil && sess.HasCapability(urn) {
			continue
		}
		if !slices.Contains(missing, urn) {
			missing = append(missing, urn)
		}
	}
	slices.Sort(missing)
	return missing
}

// CheckCapabilities logs a warning for capabilities the server does not
// advertise and returns them. The request is never blocked.
func CheckCapabilities(logger pslog.Logger, required []string, sess *api.Session) []string {
	missing := Missing(required, sess)
	if len(missing) > 0 {
		loggingutil.EnsureLogger(logger).Warn("session.capabilities.unsupported", "missing", missing)
	}
	return missing
}
