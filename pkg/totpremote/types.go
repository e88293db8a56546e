package totpremote

import "errors"

// MaxWindow bounds the skew a caller may request.
const MaxWindow = 10

var (
	ErrUnexpectedStatus = errors.New("totpremote: unexpected response status")
	ErrNoEndpoint       = errors.New("totpremote: endpoint not configured")
)

// Request is the verification request body.
type Request struct {
	Secret string `json:"secret"`
	Token  string `json:"token"`
	Window int    `json:"window"`
}

// Response is the verification response body.
type Response struct {
	Valid bool `json:"valid"`
}

func clampWindow(w int) int {
	return min(max(w, 0), MaxWindow)
}
