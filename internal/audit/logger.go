package audit

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Actions recorded by the login pipeline.
const (
	ActionLogin       = "LOGIN"
	ActionUserCreated = "USER_CREATED"
	ActionUserUpdated = "USER_UPDATED"
)

// Event represents an audit log event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Action    string    `json:"action"`
	User      string    `json:"user,omitempty"`   // local user ID
	Target    string    `json:"target,omitempty"` // provider identity, PROVIDER:external_id
	Details   string    `json:"details,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

var (
	mu          sync.RWMutex
	auditLogger = zerolog.New(os.Stdout).With().Str("log", "audit").Logger()
)

// SetOutput redirects audit events, e.g. to a dedicated file.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	auditLogger = zerolog.New(w).With().Str("log", "audit").Logger()
}

// Log records an audit event.
func Log(service, action, user, target, details string, success bool, err error) {
	event := Event{
		Timestamp: time.Now().UTC(),
		Service:   service,
		Action:    action,
		User:      user,
		Target:    target,
		Details:   details,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}

	mu.RLock()
	defer mu.RUnlock()
	auditLogger.Log().Interface("audit_event", event).Msg("")
}
