package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/pkg/binder"
	"github.com/jrmsu/libraryid/pkg/logger"
)

type echoRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWrap_BindsAndRendersJSON(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(_ handler.Context, req echoRequest) handler.Response {
		return handler.JSON(map[string]string{"hello": req.Name}, handler.WithJSONStatus(http.StatusAccepted))
	}, handler.WithBinders[echoRequest](binder.JSON()))

	rec := post(h, `{"name":"Juan"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	body := decode(t, rec)
	assert.Equal(t, map[string]any{"hello": "Juan"}, body.Data)
	assert.Nil(t, body.Error)
}

func TestWrap_BindErrorIsClientError(t *testing.T) {
	t.Parallel()

	called := false
	h := handler.Wrap(func(_ handler.Context, _ echoRequest) handler.Response {
		called = true
		return handler.Empty()
	}, handler.WithBinders[echoRequest](binder.JSON()))

	rec := post(h, `{"name":`)
	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decode(t, rec).Error.Code)
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWrap_DecoratorOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) handler.Decorator[struct{}] {
		return func(next handler.HandlerFunc[struct{}]) handler.HandlerFunc[struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
		order = append(order, "handler")
		return handler.Empty()
	}, handler.WithDecorators(mark("outer"), mark("inner")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKey  string
	}{
		{name: "http error", err: handler.ErrTooManyRequests, wantCode: http.StatusTooManyRequests, wantKey: "too_many_requests"},
		{name: "wrapped http error", err: errors.Join(errors.New("db"), handler.ErrConflict), wantCode: http.StatusConflict, wantKey: "conflict"},
		{name: "plain error hides message", err: errors.New("pq: password authentication failed"), wantCode: http.StatusInternalServerError, wantKey: "internal_server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
			assert.Equal(t, tt.wantCode, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantKey, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "pq:")
		})
	}
}

func TestJSONError_ValidationAndHeaders(t *testing.T) {
	t.Parallel()

	verr := handler.NewValidationError()
	verr.Require("id", " ")
	verr.Require("password", "secret")
	require.Error(t, verr.Err())

	rec := httptest.NewRecorder()
	resp := handler.JSONError(verr, handler.WithHeader("Retry-After", "30"))
	require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, map[string][]string{"id": {"is required"}}, body.Error.Details)
	assert.Nil(t, handler.NewValidationError().Err())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	domain := errors.New("auth.authentication_failed")
	classify := func(err error) (handler.HTTPError, bool) {
		if errors.Is(err, domain) {
			return handler.ErrUnauthorized, true
		}
		return handler.HTTPError{}, false
	}

	assert.Equal(t, handler.ErrUnauthorized, handler.Classify(domain, classify))
	assert.Equal(t, handler.ErrRequestTooLarge.Code, handler.Classify(binder.ErrBodyTooLarge).Code)
	assert.Equal(t, handler.ErrUnsupportedMediaType.Code, handler.Classify(binder.ErrMissingContentType).Code)
	assert.Equal(t, handler.ErrInternalServerError, handler.Classify(errors.New("boom")))
	assert.Equal(t, slog.LevelWarn, handler.LogLevel(http.StatusNotFound))
	assert.Equal(t, slog.LevelError, handler.LogLevel(http.StatusBadGateway))
}

func TestJSONErrorHandler_Logs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelDebug))
	h := handler.Wrap(func(handler.Context, echoRequest) handler.Response {
		return handler.Empty()
	},
		handler.WithBinders[echoRequest](binder.JSON()),
		handler.WithErrorHandler[echoRequest](handler.JSONErrorHandler(log)),
	)

	rec := post(h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, buf.String(), `"status":400`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestBlob(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, handler.Blob("image/png", []byte{0x89, 'P', 'N', 'G'}).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestFail_UsesErrorHandler(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		ctx.ResponseWriter().Header().Set("Retry-After", "120")
		return handler.Fail(handler.ErrTooManyRequests)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "120", rec.Header().Get("Retry-After"))
	assert.Equal(t, "too_many_requests", decode(t, rec).Error.Code)
}
