package storage

import (
	"errors"

	"github.com/uptrace/bun"
)

var (
	// ErrUnavailable means the database file does not exist.
	ErrUnavailable = errors.New("database is not initialized")

	// ErrNotFound means the lookup matched no row. It is not a failure.
	ErrNotFound = errors.New("post not found")
)

const (
	StateInitialized = "Database initialized"
	StateMissing     = "Database is not initialized!"
)

// Post is one row of the posts table
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Title   string `bun:"title" json:"title"`
	Content string `bun:"content" json:"content"`
}
