package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	tr := newTestTracker()
	ctx := context.Background()

	id, err := repo.InsertPost(ctx, tr, "title", "content")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if id != 1 {
		t.Errorf("expected id 1, got %d", id)
	}

	post, err := repo.GetPost(ctx, tr, id)
	if err != nil || post.Title != "title" {
		t.Errorf("expected stored post, got %+v, %v", post, err)
	}

	if _, err := repo.GetPost(ctx, tr, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// insert + two gets = three connections, counter starts at 0
	if tr.DBConnections() != 2 {
		t.Errorf("expected counter 2, got %d", tr.DBConnections())
	}
}

func TestMemoryRepositoryFailures(t *testing.T) {
	repo := NewMemoryRepository()
	tr := newTestTracker()
	ctx := context.Background()

	boom := errors.New("boom")
	repo.FailNext("get_all_posts", boom)

	if _, err := repo.GetAllPosts(ctx, tr); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if _, err := repo.GetAllPosts(ctx, tr); err != nil {
		t.Errorf("injected error should fire once, got %v", err)
	}

	repo.SetUnavailable(true)
	if err := repo.Probe(ctx, tr); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if tr.DBState() != StateMissing {
		t.Errorf("expected %q, got %q", StateMissing, tr.DBState())
	}
}
