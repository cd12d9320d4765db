package situation

import "encoding/json"

// The map codec backs the persisted payload layout. Encoding composes the
// per-aggregate JSON codecs upward; decoding is total, with a
// missing-means-default policy for every leaf and unknown keys ignored.

// ToMap serializes the situation into a nested mapping suitable for a store
// payload.
func (s Situation) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap reconstructs a situation from a stored mapping. Unknown fields are
// ignored and missing fields default to empty envelopes.
func FromMap(m map[string]any) (Situation, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Situation{}, err
	}
	var s Situation
	if err := json.Unmarshal(raw, &s); err != nil {
		return Situation{}, err
	}
	return s, nil
}

// OutcomesFromMap reconstructs a stand-alone outcomes aggregate, used for
// the subsequent-outcomes field of stored experiences.
func OutcomesFromMap(m map[string]any) (Outcomes, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Outcomes{}, err
	}
	var o Outcomes
	if err := json.Unmarshal(raw, &o); err != nil {
		return Outcomes{}, err
	}
	return o, nil
}
