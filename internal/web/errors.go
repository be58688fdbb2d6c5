package web

// errors.go provides unified error response handling for the web layer.
//
// All errors are logged with full technical details server-side and
// returned to clients as a user-friendly message with a short code that
// can be quoted when asking for help. Patterns are matched
// case-insensitively against the technical error text; the first match
// wins, so specific patterns come before general ones.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abfoods/orderdesk/internal/logging"
)

// UserMessage provides user-friendly error information.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Short code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors (FILE001-FILE005)
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Export a smaller inventory file and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Export a smaller inventory file and try again",
			Code:    "FILE001",
		},
	},
	{
		// "empty file" arrives wrapped in the generic parse-failure
		// text, so it must be matched before the FILE002 pattern.
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no rows",
			Action:  "Upload an export with a header row and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid inventory file",
		msg: UserMessage{
			Message: "The file could not be parsed",
			Action:  "Upload the unmodified CSV or XLSX export from the inventory system",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose an inventory export file to upload",
			Code:    "FILE004",
		},
	},

	// Item / cart errors (ITEM001)
	{
		pattern: "unknown item",
		msg: UserMessage{
			Message: "That item is not in the current inventory",
			Action:  "Re-upload the inventory file and try again",
			Code:    "ITEM001",
		},
	},

	// Upload slot errors (UPL002)
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "The server is busy parsing other uploads",
			Action:  "Wait a moment and try again",
			Code:    "UPL002",
		},
	},

	// Rate limiting (RATE001)
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is the fallback when no pattern matches. Check the
// server logs for the original technical error when a user reports
// ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error with request context and writes
// the mapped user message as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing to do but log.
		slog.Error("json encode error", "error", err)
	}
}
