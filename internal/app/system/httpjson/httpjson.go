// Package httpjson holds the JSON request/response helpers shared by all
// feature handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Decode reads a JSON request body into dst. Unknown fields and oversized
// bodies are validation failures.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid request body", err)
	}
	return nil
}

// Write sends v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the wire shape for failures. Error carries the stable,
// machine-checkable kind; the message is for humans.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Error translates err into the API's error envelope. Internal errors omit
// the message so implementation detail never reaches callers.
func Error(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	body := errorBody{Error: string(kind)}
	if kind != apperr.Internal {
		body.Message = apperr.MessageOf(err)
	}
	Write(w, apperr.HTTPStatus(kind), body)
}

// ErrorKind writes an error of the given kind without needing an error value.
func ErrorKind(w http.ResponseWriter, kind apperr.Kind, msg string) {
	Error(w, apperr.New(kind, msg))
}

// IsEOF reports whether err stems from an empty body.
func IsEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
