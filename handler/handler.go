package handler

import (
	"net/http"
)

// HandlerFunc handles a request whose body has been bound into R.
type HandlerFunc[R any] func(ctx Context, req R) Response

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind parses an HTTP request into v.
type Bind func(r *http.Request, v any) error

// ErrorHandler handles errors from binding or rendering.
type ErrorHandler func(ctx Context, err error)

// Decorator wraps a HandlerFunc. The first decorator given to
// WithDecorators is the outermost.
type Decorator[R any] func(HandlerFunc[R]) HandlerFunc[R]

// WrapOption configures Wrap.
type WrapOption[R any] func(*wrapConfig[R])

type wrapConfig[R any] struct {
	binders      []Bind
	errorHandler ErrorHandler
	decorators   []Decorator[R]
}

// WithBinders appends binders, applied in order.
func WithBinders[R any](binders ...Bind) WrapOption[R] {
	return func(c *wrapConfig[R]) {
		c.binders = append(c.binders, binders...)
	}
}

// WithErrorHandler replaces the default error handler.
func WithErrorHandler[R any](h ErrorHandler) WrapOption[R] {
	return func(c *wrapConfig[R]) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithDecorators appends decorators.
func WithDecorators[R any](decorators ...Decorator[R]) WrapOption[R] {
	return func(c *wrapConfig[R]) {
		c.decorators = append(c.decorators, decorators...)
	}
}

// Wrap converts a typed HandlerFunc to an http.HandlerFunc. Without
// WithErrorHandler, errors render through JSONErrorHandler with a discard
// logger.
func Wrap[R any](h HandlerFunc[R], opts ...WrapOption[R]) http.HandlerFunc {
	cfg := &wrapConfig[R]{errorHandler: JSONErrorHandler(nil)}
	for _, opt := range opts {
		opt(cfg)
	}

	final := h
	for i := len(cfg.decorators) - 1; i >= 0; i-- {
		final = cfg.decorators[i](final)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				cfg.errorHandler(ctx, err)
				return
			}
		}

		resp := final(ctx, req)
		if resp == nil {
			cfg.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			cfg.errorHandler(ctx, err)
		}
	}
}
