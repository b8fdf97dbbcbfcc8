// Package problem implements RFC 7807 application/problem+json error
// bodies for the streaming controller's HTTP error mapping.
package problem

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Problem is a minimal RFC 7807 problem detail body.
type Problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// New builds a Problem from an HTTP status and detail message.
func New(status int, detail string) Problem {
	return Problem{Title: http.StatusText(status), Status: status, Detail: detail}
}

// Write serializes p as application/problem+json with the matching status
// code. Errors from the writer itself are not recoverable at this layer and
// are ignored, matching the teacher's response-writing helpers.
func Write(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	_, _ = w.Write(b)
}
