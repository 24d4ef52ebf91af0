package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel_KnownAndUnknown(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("not-a-level"), "unrecognized levels default to info")
}

func TestLogger_FlatKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(zerolog.InfoLevel, &buf)

	log.Info("hello", "route_id", "R1", "count", 3)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "hello", decoded["message"])
	assert.Equal(t, "R1", decoded["route_id"])
	assert.Equal(t, float64(3), decoded["count"])
}

func TestLogger_MapFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(zerolog.InfoLevel, &buf)

	log.Warn("degraded", map[string]interface{}{"trip_id": "T1"})

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "T1", decoded["trip_id"])
}

func TestLogger_ErrorKeyRoutedThroughErr(t *testing.T) {
	var buf bytes.Buffer
	log := New(zerolog.InfoLevel, &buf)

	log.Error("flush failed", "error", errors.New("disk full"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "disk full", decoded[zerolog.ErrorFieldName])
}

func TestLogger_BelowLevel_Suppressed(t *testing.T) {
	var buf bytes.Buffer
	log := New(zerolog.ErrorLevel, &buf)

	log.Info("should not appear")

	assert.Empty(t, buf.String())
}
