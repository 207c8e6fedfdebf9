package common

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
)

// DataResponse is the success envelope shared by all admin endpoints.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Status  int                    `json:"status"`
	Name    string                 `json:"name"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

// ErrorResponse is the failure envelope shared by all admin endpoints.
type ErrorResponse struct {
	Data  interface{} `json:"data"`
	Error ErrorBody   `json:"error"`
}

// RenderData writes {data: ...} with the given status.
func RenderData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, DataResponse{Data: data})
}

// RenderError maps err to the error envelope. Only structured errors with a
// client-facing code keep their message; everything else is rendered opaque.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if !apperrors.As(err, &appErr) {
		appErr = apperrors.InternalWrap(err, "unexpected error")
	}

	status := appErr.HTTPStatusCode()
	message := appErr.Message
	details := appErr.Details
	if status >= http.StatusInternalServerError && appErr.Code != apperrors.ErrCodeNotImplemented {
		slog.Error("Request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		message = http.StatusText(http.StatusInternalServerError)
		details = nil
	}
	if details == nil {
		details = map[string]interface{}{}
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Data: nil,
		Error: ErrorBody{
			Status:  status,
			Name:    appErr.Name(),
			Message: message,
			Details: details,
		},
	})
}
