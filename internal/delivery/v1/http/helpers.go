package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/DRSN-tech/products-api/pkg/e"
)

const maxBodySize = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// ToHTTPResponse переводит ошибку usecase в статус и текст ответа.
// internalMsg уходит клиенту вместо текста ошибки хранилища.
func ToHTTPResponse(err error, internalMsg string) (int, string) {
	switch {
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, "id and name are required"
	case errors.Is(err, e.ErrProductNameRequired):
		return http.StatusBadRequest, "name must not be empty"
	case errors.Is(err, e.ErrNegativePrice):
		return http.StatusBadRequest, "price must be >= 0"
	case errors.Is(err, e.ErrNegativeStock):
		return http.StatusBadRequest, "stock must be >= 0"
	case errors.Is(err, e.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, internalMsg
	}
}

func WriteError(w http.ResponseWriter, err error, internalMsg string) {
	code, msg := ToHTTPResponse(err, internalMsg)
	WriteSuccess(w, code, NewErrorResponse(msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeNotFound(w http.ResponseWriter) {
	WriteSuccess(w, http.StatusNotFound, NewErrorResponse("not found"))
}

// decodeJSON читает тело запроса. Пустое тело трактуется как {}.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}

	return nil
}

func invalidJSON(w http.ResponseWriter, err error) {
	WriteSuccess(w, http.StatusBadRequest, NewErrorResponse("invalid JSON: "+err.Error()))
}
