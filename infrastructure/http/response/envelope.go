package response

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerror "github.com/vendora/vendora/domain/error"
)

type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorData is the data section of a failed response carrying an AppError.
type ErrorData struct {
	Code    domainerror.ErrorCode `json:"code"`
	Details string                `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, status bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	envelope := Envelope{
		Status:  status,
		Message: message,
		Data:    data,
	}

	_ = json.NewEncoder(w).Encode(envelope)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, true, message, data)
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, false, message, nil)
}

// FromError renders err with the status of its error family. Anything that
// is not an AppError becomes an opaque 500.
func FromError(w http.ResponseWriter, err error) {
	var appErr *domainerror.AppError
	if !errors.As(err, &appErr) {
		InternalServerError(w, "Internal server error")
		return
	}
	WriteJSON(w, domainerror.GetHTTPStatusCode(appErr), false, appErr.Message, ErrorData{
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func TooManyRequests(w http.ResponseWriter, err *domainerror.AppError) {
	FromError(w, err)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}
