package server

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// ErrResponse is the JSON body of every API error.
type ErrResponse struct {
	HTTPStatusCode int `json:"-"`

	Status    string `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errResponse(r *http.Request, code int, msg string) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: code,
		Status:         http.StatusText(code),
		Error:          msg,
		RequestID:      middleware.GetReqID(r.Context()),
	}
}

func errInternal(r *http.Request) render.Renderer {
	return errResponse(r, http.StatusInternalServerError, "internal error")
}
