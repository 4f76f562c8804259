package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const androidUA = "Mozilla/5.0 (Linux; Android 13; SM-A135F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"

func TestEncodeDeterministic(t *testing.T) {
	env := NewEnvelope("251911002233", "10.20.30.40", androidUA, Location{Lat: 9.01, Lon: 38.75, Category: "urban"})

	first, err := Encode(env)
	require.NoError(t, err)
	second, err := Encode(env)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same envelope must encode byte-identically")
}

func TestRoundTrip(t *testing.T) {
	env := NewEnvelope("251911002233", "10.20.30.40", androidUA, Location{Lat: 9.01, Lon: 38.75, Category: "urban"})

	encoded, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestMissingSignalsUseSentinel(t *testing.T) {
	env := NewEnvelope("", "", "", Location{})

	assert.Equal(t, Unknown, env.MSISDN)
	assert.Equal(t, Unknown, env.IP)
	assert.Equal(t, Unknown, env.UserAgent)
	assert.Equal(t, Unknown, env.DeviceInfo.Model)
	assert.Equal(t, Unknown, env.DeviceInfo.Brand)
	assert.Equal(t, Unknown, env.Location.Category)

	// A degenerate envelope still encodes.
	_, err := Encode(env)
	assert.NoError(t, err)
}

func TestDeviceClassificationFromUserAgent(t *testing.T) {
	env := NewEnvelope("251911002233", "10.0.0.1", androidUA, Location{Category: "urban"})

	assert.NotEqual(t, Unknown, env.DeviceInfo.Model)
	assert.NotEqual(t, Unknown, env.DeviceInfo.Brand)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not-base64!!!")
	assert.Error(t, err)

	_, err = Decode("aGVsbG8=") // valid base64, not JSON
	assert.Error(t, err)
}
