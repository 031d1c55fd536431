package injector

import (
	"sync"

	"github.com/google/uuid"
)

// SessionIDProvider supplies the opaque session identifier stamped into
// every snapshot.
type SessionIDProvider interface {
	SessionID() string
}

// SessionIDFunc adapts a plain function to SessionIDProvider.
type SessionIDFunc func() string

// SessionID implements SessionIDProvider.
func (f SessionIDFunc) SessionID() string { return f() }

// StaticSessionID always returns the same id.
type StaticSessionID string

// SessionID implements SessionIDProvider.
func (s StaticSessionID) SessionID() string { return string(s) }

// uuidSession mints a random UUID on first use and keeps it for the life of
// the provider.
type uuidSession struct {
	once sync.Once
	id   string
}

// NewUUIDSession returns the default provider: one random UUID per provider.
func NewUUIDSession() SessionIDProvider {
	return &uuidSession{}
}

func (s *uuidSession) SessionID() string {
	s.once.Do(func() {
		s.id = uuid.NewString()
	})
	return s.id
}
