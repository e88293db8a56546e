package handler

import (
	"net/http"
	"strconv"
)

type blobResponse struct {
	contentType string
	data        []byte
}

func (b blobResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	h := w.Header()
	h.Set("Content-Type", b.contentType)
	h.Set("Content-Length", strconv.Itoa(len(b.data)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(b.data)
	return err
}

// Blob responds 200 with data as-is, e.g. a PNG image. The response is
// marked uncacheable.
func Blob(contentType string, data []byte) Response {
	return blobResponse{contentType: contentType, data: data}
}
