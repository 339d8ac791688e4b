package session

import (
	"errors"
	"fmt"

	"github.com/gin-contrib/sessions"
)

// Names of the two entries that make up a persisted session snapshot.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Storage is the durable side of a session: a small key/value area that
// survives between requests. Writes become durable only after Save.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Save() error
}

// MemoryStorage keeps entries in a map. The zero value is not usable; use NewMemoryStorage.
type MemoryStorage struct {
	entries map[string]string
	saved   map[string]string
	// SaveErr, when set, is returned by Save and nothing is persisted.
	SaveErr error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]string),
		saved:   make(map[string]string),
	}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) { m.entries[key] = value }

func (m *MemoryStorage) Delete(key string) { delete(m.entries, key) }

func (m *MemoryStorage) Save() error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saved = make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		m.saved[k] = v
	}
	return nil
}

// Persisted returns what the last successful Save wrote.
func (m *MemoryStorage) Persisted() map[string]string {
	out := make(map[string]string, len(m.saved))
	for k, v := range m.saved {
		out[k] = v
	}
	return out
}

// Reopen returns a fresh storage holding only the persisted entries, the way a
// new request sees the cookie the previous response wrote.
func (m *MemoryStorage) Reopen() *MemoryStorage {
	next := NewMemoryStorage()
	for k, v := range m.saved {
		next.entries[k] = v
		next.saved[k] = v
	}
	return next
}

// CookieStorage keeps both entries in one signed cookie managed by gin-contrib/sessions.
type CookieStorage struct {
	session sessions.Session
}

func NewCookieStorage(s sessions.Session) *CookieStorage {
	return &CookieStorage{session: s}
}

func (c *CookieStorage) Get(key string) (string, bool) {
	v := c.session.Get(key)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *CookieStorage) Set(key, value string) { c.session.Set(key, value) }

func (c *CookieStorage) Delete(key string) { c.session.Delete(key) }

func (c *CookieStorage) Save() error {
	if err := c.session.Save(); err != nil {
		return fmt.Errorf("save session cookie: %w", err)
	}
	return nil
}

var errNoStorage = errors.New("session storage not configured")
