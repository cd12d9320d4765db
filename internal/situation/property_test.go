package situation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyRoundTrip(t *testing.T) {
	p := NewProperty(7.8, "usgs", ConfidenceHigh)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":7.8,"source":"usgs","confidence":"high"}`, string(raw))

	var got Property[float64]
	require.NoError(t, json.Unmarshal(raw, &got))
	v, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, 7.8, v)
	assert.Equal(t, "usgs", got.Source)
	assert.Equal(t, "high", got.Confidence.Ordinal)
}

func TestEmptyPropertyMarshalsAsNull(t *testing.T) {
	var p Property[string]
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	var got Property[string]
	require.NoError(t, json.Unmarshal([]byte("null"), &got))
	assert.True(t, got.IsZero())
	assert.True(t, got.IsMissing())
}

func TestMalformedValueKeepsEnvelope(t *testing.T) {
	// A string where a number is expected drops the value but keeps the
	// source and confidence of the observation.
	raw := []byte(`{"value":"a lot","source":"news","confidence":"low"}`)

	var got Property[int]
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.True(t, got.IsMissing())
	assert.False(t, got.IsZero())
	assert.Equal(t, "news", got.Source)
	assert.Equal(t, "low", got.Confidence.Ordinal)
}

func TestConfidenceForms(t *testing.T) {
	// Numeric scores survive the round trip as numbers.
	scored := NewProperty("urban", "report", ConfidenceScore(0.85))
	raw, err := json.Marshal(scored)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"urban","source":"report","confidence":0.85}`, string(raw))

	var got Property[string]
	require.NoError(t, json.Unmarshal(raw, &got))
	require.NotNil(t, got.Confidence.Score)
	assert.Equal(t, 0.85, *got.Confidence.Score)
	assert.Equal(t, "0.85", got.Confidence.String())

	// Zero confidence serializes as the unknown band.
	var zero Confidence
	raw, err = json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, `"unknown"`, string(raw))
	assert.Equal(t, "unknown", zero.String())
}

func TestConfidenceUnmarshalTolerant(t *testing.T) {
	var c Confidence
	require.NoError(t, json.Unmarshal([]byte(`{"weird":true}`), &c))
	assert.Equal(t, "unknown", c.Ordinal)
}

func TestListHelpers(t *testing.T) {
	props := []Property[string]{
		NewProperty("tsunami", "report", ConfidenceMedium),
		{},
		NewProperty("fire", "report", ConfidenceMedium),
	}

	assert.Equal(t, []string{"tsunami", "fire"}, ListValues(props))
	set := ListValueSet(props)
	assert.Len(t, set, 2)
	assert.Contains(t, set, "fire")
}

func TestEmbeddingTextExcludesOutcomes(t *testing.T) {
	var s Situation
	s.EventIdentity.EventType = "earthquake"
	s.EventIdentity.Magnitude = NewProperty(7.8, "usgs", ConfidenceHigh)
	s.SpatialContext.RegionType = NewProperty("urban", "report", ConfidenceMedium)
	s.Outcomes.Casualties = NewProperty(17000, "official", ConfidenceHigh)

	text := s.EmbeddingText()
	assert.Contains(t, text, "magnitude 7.8")
	assert.Contains(t, text, "Region: urban")
	assert.NotContains(t, text, "17000")
}
