package situation

import (
	"encoding/json"
	"fmt"
)

// Confidence qualifies how much an observed value can be trusted. It carries
// either an ordinal band ("low", "medium", "high", "unknown") or a numeric
// score in [0,1]; the two forms are kept distinct rather than coerced.
type Confidence struct {
	Ordinal string
	Score   *float64
}

var (
	ConfidenceLow     = Confidence{Ordinal: "low"}
	ConfidenceMedium  = Confidence{Ordinal: "medium"}
	ConfidenceHigh    = Confidence{Ordinal: "high"}
	ConfidenceUnknown = Confidence{Ordinal: "unknown"}
)

// ConfidenceScore builds a numeric confidence.
func ConfidenceScore(v float64) Confidence {
	return Confidence{Score: &v}
}

// IsZero reports whether the confidence carries no information at all.
func (c Confidence) IsZero() bool {
	return c.Ordinal == "" && c.Score == nil
}

func (c Confidence) String() string {
	if c.Score != nil {
		return fmt.Sprintf("%.2f", *c.Score)
	}
	if c.Ordinal != "" {
		return c.Ordinal
	}
	return "unknown"
}

// MarshalJSON renders the score when numeric, otherwise the ordinal band.
// The zero value serializes as "unknown".
func (c Confidence) MarshalJSON() ([]byte, error) {
	if c.Score != nil {
		return json.Marshal(*c.Score)
	}
	if c.Ordinal != "" {
		return json.Marshal(c.Ordinal)
	}
	return json.Marshal("unknown")
}

// UnmarshalJSON accepts either a number or an ordinal string.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*c = Confidence{Score: &num}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Confidence{Ordinal: s}
		return nil
	}
	// Tolerate anything else: total decoding with default fill.
	*c = ConfidenceUnknown
	return nil
}

// Property is an uncertainty-tagged observation. A missing value is a
// first-class state: Value == nil with the envelope still carrying the
// source and confidence of the (absent) observation.
type Property[T any] struct {
	Value      *T
	Source     string
	Confidence Confidence
}

// NewProperty wraps an observed value.
func NewProperty[T any](value T, source string, conf Confidence) Property[T] {
	return Property[T]{Value: &value, Source: source, Confidence: conf}
}

// Get returns the value and whether it is present.
func (p Property[T]) Get() (T, bool) {
	if p.Value == nil {
		var zero T
		return zero, false
	}
	return *p.Value, true
}

// IsMissing reports whether no value was observed.
func (p Property[T]) IsMissing() bool {
	return p.Value == nil
}

// IsZero reports whether the whole envelope is empty, i.e. the leaf was
// never populated at all.
func (p Property[T]) IsZero() bool {
	return p.Value == nil && p.Source == "" && p.Confidence.IsZero()
}

type propertyJSON[T any] struct {
	Value      *T         `json:"value"`
	Source     string     `json:"source"`
	Confidence Confidence `json:"confidence"`
}

// MarshalJSON renders the envelope as {value, source, confidence}; a fully
// empty envelope renders as null, matching missing sub-aggregates.
func (p Property[T]) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(propertyJSON[T]{Value: p.Value, Source: p.Source, Confidence: p.Confidence})
}

// UnmarshalJSON is total: null yields the empty envelope, and a value of the
// wrong shape is dropped rather than failing the whole record.
func (p *Property[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Property[T]{}
		return nil
	}
	var raw propertyJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		// Retry with the value field ignored so a malformed value does not
		// discard the source/confidence envelope.
		var loose struct {
			Source     string     `json:"source"`
			Confidence Confidence `json:"confidence"`
		}
		if err2 := json.Unmarshal(data, &loose); err2 != nil {
			*p = Property[T]{}
			return nil
		}
		*p = Property[T]{Source: loose.Source, Confidence: loose.Confidence}
		return nil
	}
	*p = Property[T]{Value: raw.Value, Source: raw.Source, Confidence: raw.Confidence}
	return nil
}
