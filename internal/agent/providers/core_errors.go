package providers

import "strings"

// CoreErrorKind is the three-member error taxonomy the orchestration core
// surfaces to callers: a provider error is always exactly one of these.
type CoreErrorKind string

const (
	// KindConnection covers network/host-unreachable failures.
	KindConnection CoreErrorKind = "connection"
	// KindAPIRequest covers 5xx responses and malformed requests rejected
	// by the provider.
	KindAPIRequest CoreErrorKind = "api_request"
	// KindResponseParse covers responses that cannot be decoded.
	KindResponseParse CoreErrorKind = "response_parse"
)

// ClassifyCoreError maps the provider's finer-grained FailoverReason
// taxonomy onto the three-kind taxonomy this core uses for routing
// decisions (council per-member skip, session error surfacing, etc.).
func ClassifyCoreError(err error) CoreErrorKind {
	reason := ClassifyError(err)
	switch reason {
	case FailoverTimeout:
		return KindConnection
	case FailoverRateLimit, FailoverServerError, FailoverInvalidRequest,
		FailoverAuth, FailoverBilling, FailoverModelUnavailable, FailoverContentFilter:
		return KindAPIRequest
	default:
		if err != nil && strings.Contains(strings.ToLower(err.Error()), "connection") {
			return KindConnection
		}
		if err != nil && (strings.Contains(strings.ToLower(err.Error()), "decode") ||
			strings.Contains(strings.ToLower(err.Error()), "unmarshal") ||
			strings.Contains(strings.ToLower(err.Error()), "parse")) {
			return KindResponseParse
		}
		return KindAPIRequest
	}
}
