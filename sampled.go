package tracewire

// Sampled is the tri-state sampling decision attached to every span. The
// zero value means no decision has been made yet; once a transaction
// resolves to SampledTrue or SampledFalse the value never changes and every
// child inherits it unconditionally.
type Sampled int8

const (
	SampledUndefined Sampled = iota
	SampledTrue
	SampledFalse
)

// Defined reports whether a decision has been made.
func (s Sampled) Defined() bool {
	return s != SampledUndefined
}

// Bool collapses the decision for callers that treat undefined as unsampled.
func (s Sampled) Bool() bool {
	return s == SampledTrue
}

func (s Sampled) String() string {
	switch s {
	case SampledTrue:
		return "true"
	case SampledFalse:
		return "false"
	default:
		return "undefined"
	}
}

func sampledFromBool(b bool) Sampled {
	if b {
		return SampledTrue
	}
	return SampledFalse
}
