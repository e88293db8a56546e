package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize caps JSON bodies at 64 KiB. The largest body the
// portal accepts is a QR payload of a few hundred bytes.
const DefaultMaxJSONSize = 64 << 10

// JSONOption configures the JSON binder.
type JSONOption func(*jsonConfig)

type jsonConfig struct {
	maxSize int64
}

// WithMaxSize overrides DefaultMaxJSONSize.
func WithMaxSize(n int64) JSONOption {
	return func(c *jsonConfig) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// JSON creates a strict JSON binder.
func JSON(opts ...JSONOption) func(r *http.Request, v any) error {
	cfg := jsonConfig{maxSize: DefaultMaxJSONSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(r *http.Request, v any) error {
		if err := r.Context().Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %q, expected application/json", ErrUnsupportedMediaType, ct)
		}
		if r.Body == nil {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, cfg.maxSize+1))
		if err != nil {
			return fmt.Errorf("%w: read body: %v", ErrFailedToParseJSON, err)
		}
		if int64(len(body)) > cfg.maxSize {
			return fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, cfg.maxSize)
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
			}
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}
		var extra json.RawMessage
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON)
		}
		return nil
	}
}
