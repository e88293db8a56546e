package handler

import "net/http"

type emptyResponse struct {
	status int
	header http.Header
}

func (e emptyResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	for k, v := range e.header {
		w.Header()[k] = v
	}
	w.WriteHeader(e.status)
	return nil
}

// Empty responds 204 No Content.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

// EmptyWithStatus responds with status and no body.
func EmptyWithStatus(status int) Response {
	return emptyResponse{status: status}
}
