package tracewire

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// RequestInfo is the pre-normalized server-side request data handed to a
// custom sampler. Instrumentation supplies it; this package never extracts
// it from a live request itself.
type RequestInfo struct {
	Method      string
	URL         string
	Headers     map[string]string
	Cookies     string
	QueryString string
}

// SamplingContext is the ephemeral input to a custom sampling decision,
// built once per StartTransaction call.
type SamplingContext struct {
	// Transaction under decision. Its Sampled field is still unresolved
	// when a custom sampler runs.
	Transaction *Transaction
	// Parent is the upstream caller's decision, if one was propagated.
	Parent Sampled
	// Request carries server-side request data, when instrumentation
	// provided any.
	Request *RequestInfo
	// Location carries the browser/worker location, when provided.
	Location string
}

// TracesSampler is a custom sampling decision function. The return value
// may be a bool or any numeric type; it is normalized into a probability in
// [0,1] before use. Anything else is rejected with a logged warning and the
// transaction goes unsampled.
type TracesSampler func(ctx SamplingContext) interface{}

// resolveSampled resolves the sampling decision for a transaction. It never
// panics; every invalid input degrades to SampledFalse with a warning on
// the client's logger.
//
// Precedence, first match wins:
//  1. an explicit decision on the transaction overrides everything;
//  2. no client, or no rate and no sampler configured: tracing is disabled;
//  3. a configured sampler decides, overriding any inherited decision;
//  4. without a sampler, an inherited parent decision wins over the rate;
//  5. the fixed rate decides.
func resolveSampled(sc SamplingContext, client *Client) Sampled {
	if sc.Transaction.Sampled.Defined() {
		return sc.Transaction.Sampled
	}

	if client == nil || (client.options.TracesSampler == nil && client.options.TracesSampleRate == nil) {
		return SampledFalse
	}

	if sampler := client.options.TracesSampler; sampler != nil {
		rate, err := normalizeSampleRate(sampler(sc))
		if err != nil {
			client.logger.Warn("custom sampler returned an invalid rate, transaction unsampled",
				zap.String("transaction", sc.Transaction.Name),
				zap.Error(err))
			return SampledFalse
		}
		return sampledFromBool(client.rng() < rate)
	}

	if sc.Parent.Defined() {
		return sc.Parent
	}

	rate, err := normalizeSampleRate(client.options.TracesSampleRate)
	if err != nil {
		client.logger.Warn("invalid traces sample rate, transaction unsampled",
			zap.String("transaction", sc.Transaction.Name),
			zap.Error(err))
		return SampledFalse
	}
	return sampledFromBool(client.rng() < rate)
}

// normalizeSampleRate funnels the polymorphic rate (bool or number) into a
// single probability. Booleans coerce to 1 and 0; NaN and anything outside
// [0,1] is rejected.
func normalizeSampleRate(v interface{}) (float64, error) {
	switch v.(type) {
	case bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
	default:
		return 0, fmt.Errorf("sample rate %v of type %T is not a number or boolean", v, v)
	}
	rate, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("sample rate %v is not a number or boolean: %w", v, err)
	}
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return 0, fmt.Errorf("sample rate %v is outside [0,1]", rate)
	}
	return rate, nil
}
