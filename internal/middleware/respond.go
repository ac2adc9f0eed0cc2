package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// ErrResponseStarted wraps write failures that happen after the status line
// was sent. No other response can follow.
var ErrResponseStarted = errors.New("response already started")

// WriteJSON encodes v before touching the response so an encoding failure
// can still produce a clean 500.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseStarted, err)
	}
	return nil
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	if err := WriteJSON(w, status, ErrorBody{Error: msg}); err != nil {
		log.Printf("write error response: %v", err)
	}
}
