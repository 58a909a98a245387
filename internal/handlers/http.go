package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/thisdougb/techtrends/internal/config"
	"github.com/thisdougb/techtrends/internal/render"
	"github.com/thisdougb/techtrends/internal/session"
	"github.com/thisdougb/techtrends/internal/storage"
)

// PostRepository is what the handlers need from storage. Every call gets
// the request tracker so connection accounting lands in the session.
type PostRepository interface {
	Probe(ctx context.Context, tr *session.Tracker) error
	GetPost(ctx context.Context, tr *session.Tracker, id int64) (*storage.Post, error)
	GetAllPosts(ctx context.Context, tr *session.Tracker) ([]storage.Post, error)
	GetPostsCount(ctx context.Context, tr *session.Tracker) (int, error)
	InsertPost(ctx context.Context, tr *session.Tracker, title, content string) (int64, error)
}

// Renderer produces the HTML pages
type Renderer interface {
	Render(w io.Writer, name string, page render.Page) error
}

// Plain-text bodies returned when a repository call fails. They go out with
// status 200.
const (
	ErrTextGetPosts   = "Database error when trying to get posts"
	ErrTextGetPost    = "Database error when trying to get post"
	ErrTextInsertPost = "Database error when trying to insert post"
)

const flashTitleRequired = "Title is required!"

// CreatePostForm is the submitted /create form
type CreatePostForm struct {
	Title   string `validate:"required"`
	Content string
}

var validate = validator.New()

// IndexHandler lists every post
func IndexHandler(repo PostRepository, pages Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tr := session.FromContext(ctx)

		posts, err := repo.GetAllPosts(ctx, tr)
		if err != nil {
			writeText(w, ErrTextGetPosts)
			return
		}

		config.LogInfo(ctx, "Home page was read!")
		writePage(ctx, w, pages, http.StatusOK, render.Index, render.Page{
			Flashes: tr.Flashes(),
			Posts:   posts,
		})
	}
}

// PostHandler shows one post. The router only lets digits through, so the
// only parse failure is an id too large to exist.
func PostHandler(repo PostRepository, pages Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tr := session.FromContext(ctx)

		raw := mux.Vars(r)["post_id"]
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			config.LogError(ctx, fmt.Sprintf("Post with id %s does not exist", raw))
			writePage(ctx, w, pages, http.StatusNotFound, render.NotFound, render.Page{Flashes: tr.Flashes()})
			return
		}

		post, err := repo.GetPost(ctx, tr, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			config.LogError(ctx, fmt.Sprintf("Post with id %d does not exist", id))
			writePage(ctx, w, pages, http.StatusNotFound, render.NotFound, render.Page{Flashes: tr.Flashes()})
			return
		case err != nil:
			writeText(w, ErrTextGetPost)
			return
		}

		config.LogInfo(ctx, fmt.Sprintf("Post with id %d with title \"%s\" was read!", id, post.Title))
		writePage(ctx, w, pages, http.StatusOK, render.Post, render.Page{
			Flashes: tr.Flashes(),
			Post:    post,
		})
	}
}

// AboutHandler renders the static about page
func AboutHandler(pages Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		config.LogInfo(ctx, "About page was read!")
		writePage(ctx, w, pages, http.StatusOK, render.About, render.Page{
			Flashes: session.FromContext(ctx).Flashes(),
		})
	}
}

// CreateHandler shows the post form on GET and stores a post on POST.
func CreateHandler(repo PostRepository, pages Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tr := session.FromContext(ctx)

		if r.Method != http.MethodPost {
			writePage(ctx, w, pages, http.StatusOK, render.Create, render.Page{Flashes: tr.Flashes()})
			return
		}

		form := CreatePostForm{
			Title:   r.PostFormValue("title"),
			Content: r.PostFormValue("content"),
		}

		if err := validate.Struct(form); err != nil {
			tr.AddFlash(flashTitleRequired)
			writePage(ctx, w, pages, http.StatusOK, render.Create, render.Page{
				Flashes: tr.Flashes(),
				Title:   form.Title,
				Content: form.Content,
			})
			return
		}

		if _, err := repo.InsertPost(ctx, tr, form.Title, form.Content); err != nil {
			writeText(w, ErrTextInsertPost)
			return
		}

		config.LogInfo(ctx, fmt.Sprintf("A new article with title \"%s\" was created", form.Title))
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

type healthResponse struct {
	Result string `json:"result"`
}

// HealthzHandler reports healthy only when a connection opens and the post
// count is non-zero. An empty but reachable store reports unhealthy.
func HealthzHandler(repo PostRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tr := session.FromContext(ctx)

		probeErr := repo.Probe(ctx, tr)
		count, countErr := repo.GetPostsCount(ctx, tr)

		if probeErr == nil && countErr == nil && count != 0 {
			config.LogInfo(ctx, "Healthz page showed a healthy status!")
			writeJSON(w, http.StatusOK, healthResponse{Result: "OK - healthy"})
			return
		}

		config.LogError(ctx, "Healthz page showed an unhealthy status!")
		writeJSON(w, http.StatusInternalServerError, healthResponse{Result: "ERROR - unhealthy"})
	}
}

// metricsResponse carries post_count as a number, or false when the count
// failed.
type metricsResponse struct {
	PostCount     interface{} `json:"post_count"`
	DBConnections int         `json:"db_connections"`
}

// MetricsHandler reports the post count and this client's connection
// counter. It always answers 200.
func MetricsHandler(repo PostRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tr := session.FromContext(ctx)

		resp := metricsResponse{PostCount: false}
		if count, err := repo.GetPostsCount(ctx, tr); err == nil {
			resp.PostCount = count
		}
		resp.DBConnections = tr.DBConnections()

		config.LogInfo(ctx, fmt.Sprintf("Metrics were read, showing %d connections", resp.DBConnections))
		writeJSON(w, http.StatusOK, resp)
	}
}

// NotFoundHandler renders the 404 page for unmatched routes
func NotFoundHandler(pages Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		writePage(ctx, w, pages, http.StatusNotFound, render.NotFound, render.Page{
			Flashes: session.FromContext(ctx).Flashes(),
		})
	}
}

func writePage(ctx context.Context, w http.ResponseWriter, pages Renderer, status int, name string, page render.Page) {
	var buf bytes.Buffer
	if err := pages.Render(&buf, name, page); err != nil {
		config.LogError(ctx, fmt.Sprintf("failed to render %s: %v", name, err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, text)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
