package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType_LegacySpellings(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"integer", TypeNumber},
		{"decimal(10,2)", TypeNumber},
		{"varchar(255)", TypeString},
		{"TEXT", TypeString},
		{"timestamp", TypeDate},
		{"bool", TypeBoolean},
		{"string", TypeString},
		{" date ", TypeDate},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseType("blob")
	assert.ErrorContains(t, err, `unknown column type "blob"`)
}

func TestType_UnmarshalJSON(t *testing.T) {
	var c Column
	require.NoError(t, json.Unmarshal([]byte(`{"name":"price","type":"decimal(10,2)","nullable":false}`), &c))
	assert.Equal(t, TypeNumber, c.Type)

	assert.Error(t, json.Unmarshal([]byte(`{"name":"x","type":"geometry"}`), &c))
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "999.99", Number(999.99).Text())
	assert.Equal(t, "5", Number(5).Text())
	assert.Equal(t, "1000000000000000000000", Number(1e21).Text())
	assert.Equal(t, "true", Boolean(true).Text())
	assert.Equal(t, "null", Null{}.Text())
	assert.Equal(t, "2024-02-20", NewDate(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)).Text())
	assert.Equal(t, "2024-02-20T10:30:00Z", NewDate(time.Date(2024, 2, 20, 10, 30, 0, 0, time.UTC)).Text())
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("42.5", TypeNumber)
	require.NoError(t, err)
	assert.Equal(t, Number(42.5), v)

	v, err = ParseValue("null", TypeString)
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)

	v, err = ParseValue("2024-02-21", TypeDate)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-21", v.Text())

	_, err = ParseValue("abc", TypeNumber)
	assert.ErrorContains(t, err, "invalid number")

	_, err = ParseValue("maybe", TypeBoolean)
	assert.ErrorContains(t, err, "invalid boolean")
}

func TestParseValue_NonFinite(t *testing.T) {
	for _, in := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity", "1e400"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseValue(in, TypeNumber)
			assert.ErrorContains(t, err, "invalid number")
		})
	}
}

func TestFromAny_NonFinite(t *testing.T) {
	_, err := FromAny(math.NaN(), TypeNumber)
	assert.ErrorContains(t, err, "invalid number")

	_, err = FromAny(math.Inf(-1), TypeNumber)
	assert.ErrorContains(t, err, "invalid number")

	_, err = FromAny(Number(math.Inf(1)), TypeNumber)
	assert.ErrorContains(t, err, "invalid number")

	assert.True(t, IsFinite(1e308))
	assert.False(t, IsFinite(math.NaN()))
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(3, TypeNumber)
	require.NoError(t, err)
	assert.Equal(t, Number(3), v)

	v, err = FromAny(nil, TypeDate)
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)

	_, err = FromAny(true, TypeString)
	assert.ErrorContains(t, err, "boolean value for string column")

	_, err = FromAny(String("x"), TypeNumber)
	assert.Error(t, err)
}

func TestUnmarshalValue_KindMismatch(t *testing.T) {
	_, err := UnmarshalValue([]byte(`"5"`), TypeNumber)
	assert.Error(t, err)

	v, err := UnmarshalValue([]byte(`5`), TypeNumber)
	require.NoError(t, err)
	assert.Equal(t, Number(5), v)
}

func TestMarshalValue_DateAsText(t *testing.T) {
	data, err := MarshalValue(NewDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-02"`, string(data))
}

func TestInferValue(t *testing.T) {
	assert.Equal(t, Number(7), InferValue([]byte("7")))
	assert.Equal(t, Boolean(false), InferValue([]byte("false")))
	assert.Equal(t, String("2024-01-01"), InferValue([]byte(`"2024-01-01"`)))
	assert.Equal(t, Null{}, InferValue([]byte("null")))
	assert.Equal(t, String(`{"a":1}`), InferValue([]byte(`{"a":1}`)))
}
