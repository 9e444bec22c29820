package tracewire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Propagation header names, carried on outgoing requests by instrumentation
// and read back on the receiving side.
const (
	TraceparentHeader = "trace-parent"
	TracestateHeader  = "trace-state"
)

// Placeholders written into the tracestate payload when the client has no
// environment or release configured.
const (
	placeholderEnvironment = "no_environment"
	placeholderRelease     = "no_release"
)

// traceparentPattern is the full trace-parent grammar:
// 32 hex trace id, 16 hex parent span id, optional single-digit sampled flag.
var traceparentPattern = regexp.MustCompile(`^([0-9a-f]{32})-([0-9a-f]{16})(?:-([01]))?$`)

// TraceparentData is the result of parsing an incoming trace-parent header.
type TraceparentData struct {
	TraceID       string
	ParentSpanID  string
	ParentSampled Sampled
}

// ParseTraceparent parses a trace-parent header value. Any deviation from
// the grammar yields ok=false; a malformed header never aborts the caller.
// The sampled flag stays undefined unless the optional third segment is
// present.
func ParseTraceparent(header string) (TraceparentData, bool) {
	m := traceparentPattern.FindStringSubmatch(header)
	if m == nil {
		return TraceparentData{}, false
	}
	data := TraceparentData{
		TraceID:      m[1],
		ParentSpanID: m[2],
	}
	switch m[3] {
	case "1":
		data.ParentSampled = SampledTrue
	case "0":
		data.ParentSampled = SampledFalse
	}
	return data, true
}

// tracestatePayload is the trace-level metadata propagated across service
// boundaries inside the trace-state header.
type tracestatePayload struct {
	TraceID     string `json:"trace_id"`
	PublicKey   string `json:"public_key"`
	Environment string `json:"environment"`
	Release     string `json:"release"`
}

// encodeTracestate renders the payload as base64 JSON. The header-value
// grammar forbids '=', so a trailing padding run is replaced with a single
// '.' sentinel. Failures are explicit; callers pick their own fallback.
func encodeTracestate(p tracestatePayload) (string, error) {
	if p.Environment == "" {
		p.Environment = placeholderEnvironment
	}
	if p.Release == "" {
		p.Release = placeholderRelease
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("tracestate encode: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if trimmed := strings.TrimRight(encoded, "="); trimmed != encoded {
		encoded = trimmed + "."
	}
	return encoded, nil
}

// decodeTracestate reverses encodeTracestate. The sentinel carries no count,
// so the padding is recomputed from the payload length instead of restoring
// a literal '='; inputs needing zero, one, or two padding characters all
// round-trip.
func decodeTracestate(header string) (tracestatePayload, error) {
	encoded := header
	if strings.HasSuffix(encoded, ".") {
		encoded = strings.TrimSuffix(encoded, ".")
		if rem := len(encoded) % 4; rem != 0 {
			encoded += strings.Repeat("=", 4-rem)
		}
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return tracestatePayload{}, fmt.Errorf("tracestate decode: %w", err)
	}
	var p tracestatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return tracestatePayload{}, fmt.Errorf("tracestate decode: %w", err)
	}
	return p, nil
}
