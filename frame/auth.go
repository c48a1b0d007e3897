package frame

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EmptyPayload is base64("{}"), the payload query parameter sent on dial.
const EmptyPayload = "e30="

// AuthHeader is the connection-authorization blob carried in the
// handshake query string. Key names are fixed by the backend.
type AuthHeader struct {
	Authorization string `json:"Authorization"`
	Host          string `json:"host"`
}

// EncodeAuthHeader returns base64(JSON(h)).
func EncodeAuthHeader(h AuthHeader) (string, error) {
	raw, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("frame: encode auth header: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeAuthHeader reverses EncodeAuthHeader.
func DecodeAuthHeader(token string) (AuthHeader, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return AuthHeader{}, fmt.Errorf("frame: decode auth header: %w", err)
	}
	var h AuthHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return AuthHeader{}, fmt.Errorf("frame: decode auth header: %w", err)
	}
	return h, nil
}
