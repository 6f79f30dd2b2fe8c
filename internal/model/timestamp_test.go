package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalMilliseconds(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`1700000000000`), &ts))
	assert.Equal(t, time.UnixMilli(1700000000000), ts.Time)
}

func TestTimestamp_UnmarshalNumberDecimal(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`{"$numberDecimal": "1700000000000"}`), &ts))
	assert.Equal(t, time.UnixMilli(1700000000000), ts.Time)
}

func TestTimestamp_UnmarshalNumberDecimalFraction(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`{"$numberDecimal": "1700000000000.0"}`), &ts))
	assert.Equal(t, time.UnixMilli(1700000000000), ts.Time)
}

func TestTimestamp_UnmarshalNull(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}

func TestTimestamp_UnmarshalUnsupportedShapes(t *testing.T) {
	cases := map[string]string{
		"string":              `"1700000000000"`,
		"bool":                `true`,
		"array":               `[1700000000000]`,
		"empty object":        `{}`,
		"non-numeric wrapper": `{"$numberDecimal": "not-a-number"}`,
		"wrong wrapper key":   `{"$date": "1700000000000"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var ts Timestamp
			assert.Error(t, json.Unmarshal([]byte(raw), &ts))
		})
	}
}

func TestTimestamp_MarshalRoundTrip(t *testing.T) {
	ts := NewTimestamp(time.UnixMilli(1700000000000))
	raw, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `1700000000000`, string(raw))

	var decoded Timestamp
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, ts.Equal(decoded.Time))
}

func TestTimestamp_MarshalZero(t *testing.T) {
	raw, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(raw))
}
