package ipc

import (
	"encoding/json"
)

// Request is one line of client input.
type Request struct {
	ID      json.RawMessage `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response answers exactly one request. Either Result or Error is set.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result interface{}     `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error carries a stable kind for programmatic handling and a human message.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Kind + ": " + e.Message
}

// Error kinds produced by the server itself, in addition to engine.Kind.
const (
	KindInvalidRequest = "invalid_request"
	KindUnknownCommand = "unknown_command"
	KindUnsupported    = "unsupported"
)

type pathArgs struct {
	Path string `json:"path"`
}

type depthArgs struct {
	Path     string `json:"path"`
	MaxDepth *int   `json:"max_depth"`
}

type deleteArgs struct {
	Paths []string `json:"paths"`
}

type deleteResult struct {
	Path      string `json:"path"`
	Freed     int64  `json:"freed"`
	CoveredBy string `json:"covered_by,omitempty"`
	Error     *Error `json:"error,omitempty"`
}

type deleteReport struct {
	Results []deleteResult `json:"results"`
	Freed   int64          `json:"freed"`
	Failed  int            `json:"failed"`
}

type ok struct {
	OK bool `json:"ok"`
}
