package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/thisdougb/techtrends/internal/config"
	"github.com/thisdougb/techtrends/internal/metrics"
	"github.com/thisdougb/techtrends/internal/session"
)

// Repository reads and writes posts. Every method opens its own connection
// through the accessor and releases it before returning.
//
// Outcomes are kept apart: a missing post is ErrNotFound, an empty table is
// an empty slice, and anything else (ErrUnavailable or a query error) is a
// failure.
type Repository struct {
	accessor *Accessor
}

// NewRepository creates a post repository on top of accessor
func NewRepository(accessor *Accessor) *Repository {
	return &Repository{accessor: accessor}
}

// Probe opens and releases one connection, reporting whether that worked.
func (r *Repository) Probe(ctx context.Context, tr *session.Tracker) error {
	return r.accessor.Probe(ctx, tr)
}

// GetPost looks a post up by primary key
func (r *Repository) GetPost(ctx context.Context, tr *session.Tracker, id int64) (*Post, error) {

	var post Post
	err := r.accessor.WithConn(ctx, tr, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(&post).Where("id = ?", id).Scan(ctx)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.failed(ctx, tr, "get_post", "An exception occurred when getting a post.", err)
		return nil, err
	}

	return &post, nil
}

// GetAllPosts returns every post in storage order. No posts is an empty,
// non-nil slice.
func (r *Repository) GetAllPosts(ctx context.Context, tr *session.Tracker) ([]Post, error) {

	posts := make([]Post, 0)
	err := r.accessor.WithConn(ctx, tr, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(&posts).Scan(ctx)
	})

	if err != nil {
		r.failed(ctx, tr, "get_all_posts", "An exception occurred when getting all posts.", err)
		return nil, err
	}

	return posts, nil
}

// GetPostsCount returns the number of stored posts
func (r *Repository) GetPostsCount(ctx context.Context, tr *session.Tracker) (int, error) {

	var count int
	err := r.accessor.WithConn(ctx, tr, func(ctx context.Context, db bun.IDB) error {
		var err error
		count, err = db.NewSelect().Model((*Post)(nil)).Count(ctx)
		return err
	})

	if err != nil {
		r.failed(ctx, tr, "get_posts_count", "An exception occurred when getting posts count.", err)
		return 0, err
	}

	return count, nil
}

// InsertPost stores a new post and returns its id. The single INSERT runs
// in autocommit mode, so it is committed before the connection closes.
func (r *Repository) InsertPost(ctx context.Context, tr *session.Tracker, title, content string) (int64, error) {

	post := &Post{Title: title, Content: content}
	err := r.accessor.WithConn(ctx, tr, func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewInsert().Model(post).Column("title", "content").Returning("id").Exec(ctx)
		return err
	})

	if err != nil {
		r.failed(ctx, tr, "insert_post", "An exception occurred when inserting a post.", err)
		return 0, err
	}

	metrics.PostCreated()
	return post.ID, nil
}

// failed logs a repository failure with the session dbstate. An unavailable
// store was already logged by the accessor.
func (r *Repository) failed(ctx context.Context, tr *session.Tracker, op, msg string, err error) {

	metrics.QueryFailed(op)

	if errors.Is(err, ErrUnavailable) {
		return
	}

	config.LogError(ctx, fmt.Sprintf("%s %v. %s", msg, err, tr.DBState()))
}
