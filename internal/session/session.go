// Package session holds the per-client state the blog keeps between
// requests: whether the database was reachable on the last access and how
// many connections this client caused.
package session

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	KeyDBState       = "dbstate"
	KeyDBConnections = "dbconnections"
	keyFlashes       = "_flash"
)

// Store is the per-client key/value persistence the tracker works on.
type Store interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
}

// MemoryStore is a Store kept in a map, used for tests and one-off tools.
type MemoryStore map[string]interface{}

func (m MemoryStore) Get(key string) (interface{}, bool) {
	value, ok := m[key]
	return value, ok
}

func (m MemoryStore) Set(key string, value interface{}) {
	m[key] = value
}

// CookieStore adapts a gorilla session to the Store interface.
type CookieStore struct {
	session *sessions.Session
}

func NewCookieStore(s *sessions.Session) *CookieStore {
	return &CookieStore{session: s}
}

func (c *CookieStore) Get(key string) (interface{}, bool) {
	value, ok := c.session.Values[key]
	return value, ok
}

func (c *CookieStore) Set(key string, value interface{}) {
	c.session.Values[key] = value
}

// Save writes the session cookie onto w. It must run before the response
// header is written.
func (c *CookieStore) Save(r *http.Request, w http.ResponseWriter) error {
	return c.session.Save(r, w)
}
