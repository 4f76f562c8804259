// Package metadata builds the canonical device/location envelope attached to
// every watch protocol call.
package metadata

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mileusna/useragent"
)

// Unknown is the sentinel substituted for any signal that is unavailable.
// Resolution must not fail because a field is missing.
const Unknown = "unknown"

// DeviceInfo is the coarse device classification inside the envelope.
type DeviceInfo struct {
	Model string `json:"model"`
	Brand string `json:"brand"`
}

// Location is the coarse location block inside the envelope.
type Location struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"category"`
}

// Envelope is the pre-base64 metadata JSON. Field order is fixed by the
// struct, so encoding the same envelope is byte-identical across calls; the
// envelope carries no timestamp or nonce because freshness comes from the
// secure key, not the metadata.
type Envelope struct {
	MSISDN     string     `json:"msisdn"`
	IP         string     `json:"ip"`
	UserAgent  string     `json:"userAgent"`
	DeviceInfo DeviceInfo `json:"deviceInfo"`
	Location   Location   `json:"location"`
}

// NewEnvelope snapshots the raw signals once, at session creation. The device
// classification is derived from the user-agent string; any missing signal
// becomes the Unknown sentinel.
func NewEnvelope(msisdn, ip, rawUserAgent string, loc Location) Envelope {
	env := Envelope{
		MSISDN:    orUnknown(msisdn),
		IP:        orUnknown(ip),
		UserAgent: orUnknown(rawUserAgent),
		DeviceInfo: DeviceInfo{
			Model: Unknown,
			Brand: Unknown,
		},
		Location: loc,
	}
	if loc.Category == "" {
		env.Location.Category = Unknown
	}
	if rawUserAgent != "" {
		ua := useragent.Parse(rawUserAgent)
		if ua.Device != "" {
			env.DeviceInfo.Model = ua.Device
		} else if ua.OS != "" {
			env.DeviceInfo.Model = ua.OS
		}
		if ua.Name != "" {
			env.DeviceInfo.Brand = ua.Name
		}
	}
	return env
}

// Encode produces the transport-safe form: base64 of the canonical JSON.
// Deterministic for identical input.
func Encode(env Envelope) (string, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode, reproducing the structured fields exactly.
func Decode(encoded string) (Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env, nil
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
