package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
)

// JSONResponse is the envelope every JSON endpoint answers with.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail is the error part of the envelope.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	header http.Header
	body   JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	for k, v := range j.header {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus overrides the status code.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// WithJSONMeta sets the meta object.
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) { r.body.Meta = meta }
}

// WithHeader sets a response header.
func WithHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.header == nil {
			r.header = make(http.Header)
		}
		r.header.Set(key, value)
	}
}

// JSON responds 200 with v under data.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError responds with err under error. HTTPError and ValidationError
// keep their code and key; any other error becomes a 500 whose message
// does not reveal err.
func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{}
	r.status, r.body.Error = errorToDetail(err)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error) (int, *ErrorDetail) {
	var verr ValidationError
	if errors.As(err, &verr) {
		d := &ErrorDetail{Code: "validation_error", Message: verr.Error()}
		if len(verr) > 0 {
			d.Details = make(map[string][]string, len(verr))
			maps.Copy(d.Details, verr)
		}
		return http.StatusUnprocessableEntity, d
	}

	var herr HTTPError
	if errors.As(err, &herr) {
		return herr.Code, &ErrorDetail{Code: herr.Key, Message: herr.Text()}
	}

	return ErrInternalServerError.Code, &ErrorDetail{
		Code:    ErrInternalServerError.Key,
		Message: ErrInternalServerError.Text(),
	}
}
