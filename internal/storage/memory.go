package storage

import (
	"context"
	"sync"

	"github.com/thisdougb/techtrends/internal/session"
)

// MemoryRepository keeps posts in memory. It follows the same connection
// accounting as Repository and lets tests force failures per operation.
type MemoryRepository struct {
	mu          sync.Mutex
	posts       []Post
	nextID      int64
	unavailable bool
	nextErr     map[string]error
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		posts:   make([]Post, 0),
		nextID:  1,
		nextErr: make(map[string]error),
	}
}

// SetUnavailable makes every operation behave as if the store file were missing
func (m *MemoryRepository) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

// FailNext makes the next call of op ("get_post", "get_all_posts",
// "get_posts_count", "insert_post", "probe") return err.
func (m *MemoryRepository) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextErr[op] = err
}

// connect mirrors Accessor.Open; callers hold m.mu
func (m *MemoryRepository) connect(tr *session.Tracker, op string) error {
	if m.unavailable {
		tr.SetDBState(StateMissing)
		return ErrUnavailable
	}
	tr.SetDBState(StateInitialized)
	tr.RecordConnection()

	if err, ok := m.nextErr[op]; ok {
		delete(m.nextErr, op)
		return err
	}
	return nil
}

func (m *MemoryRepository) Probe(_ context.Context, tr *session.Tracker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connect(tr, "probe")
}

func (m *MemoryRepository) GetPost(_ context.Context, tr *session.Tracker, id int64) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.connect(tr, "get_post"); err != nil {
		return nil, err
	}
	for _, p := range m.posts {
		if p.ID == id {
			post := p
			return &post, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) GetAllPosts(_ context.Context, tr *session.Tracker) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.connect(tr, "get_all_posts"); err != nil {
		return nil, err
	}
	posts := make([]Post, len(m.posts))
	copy(posts, m.posts)
	return posts, nil
}

func (m *MemoryRepository) GetPostsCount(_ context.Context, tr *session.Tracker) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.connect(tr, "get_posts_count"); err != nil {
		return 0, err
	}
	return len(m.posts), nil
}

func (m *MemoryRepository) InsertPost(_ context.Context, tr *session.Tracker, title, content string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.connect(tr, "insert_post"); err != nil {
		return 0, err
	}
	post := Post{ID: m.nextID, Title: title, Content: content}
	m.nextID++
	m.posts = append(m.posts, post)
	return post.ID, nil
}

// Len returns the number of stored posts (for testing)
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}
