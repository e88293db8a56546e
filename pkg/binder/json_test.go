package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrmsu/libraryid/pkg/binder"
)

type loginBody struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func newRequest(body, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestJSON_Binds(t *testing.T) {
	t.Parallel()

	for _, ct := range []string{"application/json", "application/json; charset=utf-8"} {
		var got loginBody
		err := binder.JSON()(newRequest(`{"id":"KC-23-A-00762","password":" <b>&secret "}`, ct), &got)
		require.NoError(t, err, ct)
		assert.Equal(t, "KC-23-A-00762", got.ID)
		assert.Equal(t, " <b>&secret ", got.Password, "strings are not sanitised")
	}
}

func TestJSON_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		contentType string
		opts        []binder.JSONOption
		want        error
	}{
		{name: "missing content type", body: `{}`, want: binder.ErrMissingContentType},
		{name: "form content type", body: `id=1`, contentType: "application/x-www-form-urlencoded", want: binder.ErrUnsupportedMediaType},
		{name: "empty body", body: ``, contentType: "application/json", want: binder.ErrFailedToParseJSON},
		{name: "invalid json", body: `{"id":`, contentType: "application/json", want: binder.ErrFailedToParseJSON},
		{name: "unknown field", body: `{"id":"x","admin":true}`, contentType: "application/json", want: binder.ErrFailedToParseJSON},
		{name: "wrong type", body: `{"id":5}`, contentType: "application/json", want: binder.ErrFailedToParseJSON},
		{name: "trailing object", body: `{"id":"a"}{"id":"b"}`, contentType: "application/json", want: binder.ErrFailedToParseJSON},
		{
			name:        "too large",
			body:        `{"id":"` + strings.Repeat("a", 64) + `"}`,
			contentType: "application/json",
			opts:        []binder.JSONOption{binder.WithMaxSize(32)},
			want:        binder.ErrBodyTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got loginBody
			err := binder.JSON(tt.opts...)(newRequest(tt.body, tt.contentType), &got)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
