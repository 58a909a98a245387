package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
)

func TestRecordConnection(t *testing.T) {

	tr := NewTracker(MemoryStore{})

	if tr.DBConnections() != 0 {
		t.Fatalf("fresh tracker has %d connections", tr.DBConnections())
	}

	var TestCases = []struct {
		description string
		expected    int
	}{
		{description: "first connection initialises the counter", expected: 0},
		{description: "second connection increments", expected: 1},
		{description: "third connection increments", expected: 2},
	}

	for _, tc := range TestCases {
		tr.RecordConnection()
		if tr.DBConnections() != tc.expected {
			t.Errorf("%s: got %d, expected %d", tc.description, tr.DBConnections(), tc.expected)
		}
	}
}

func TestDBState(t *testing.T) {

	store := MemoryStore{}
	tr := NewTracker(store)

	if tr.DBState() != "" {
		t.Errorf("fresh state is %q", tr.DBState())
	}

	tr.SetDBState("Database initialized")
	if tr.DBState() != "Database initialized" {
		t.Errorf("state is %q", tr.DBState())
	}
	if store[KeyDBState] != "Database initialized" {
		t.Errorf("state not written to the store")
	}
}

func TestWrongTypesReadAsZero(t *testing.T) {

	tr := NewTracker(MemoryStore{KeyDBState: 42, KeyDBConnections: "many"})

	if tr.DBState() != "" {
		t.Errorf("non-string state read as %q", tr.DBState())
	}
	if tr.DBConnections() != 0 {
		t.Errorf("non-int counter read as %d", tr.DBConnections())
	}
}

func TestFlashes(t *testing.T) {

	tr := NewTracker(MemoryStore{})

	if len(tr.Flashes()) != 0 {
		t.Fatal("fresh tracker has flashes")
	}

	tr.AddFlash("Title is required!")
	tr.AddFlash("second")

	flashes := tr.Flashes()
	if len(flashes) != 2 || flashes[0] != "Title is required!" {
		t.Errorf("unexpected flashes %v", flashes)
	}
	if len(tr.Flashes()) != 0 {
		t.Error("flashes were not cleared")
	}
}

func TestTrackerContext(t *testing.T) {

	tr := NewTracker(MemoryStore{})
	ctx := WithTracker(context.Background(), tr)

	if FromContext(ctx) != tr {
		t.Error("tracker not found in context")
	}
	if FromContext(context.Background()) == nil {
		t.Error("missing tracker should give a throwaway tracker")
	}
}

func TestCookieStoreRoundTrip(t *testing.T) {

	cookies := sessions.NewCookieStore([]byte("test secret"))

	// first request: count a connection and save the cookie
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	s, err := cookies.Get(r, "session")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	store := NewCookieStore(s)
	tr := NewTracker(store)
	tr.RecordConnection()
	tr.RecordConnection()
	tr.SetDBState("Database initialized")

	if err := store.Save(r, w); err != nil {
		t.Fatalf("save: %v", err)
	}

	// second request carries the cookie back
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r2.AddCookie(c)
	}

	s2, err := cookies.Get(r2, "session")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	tr2 := NewTracker(NewCookieStore(s2))

	if tr2.DBConnections() != 1 {
		t.Errorf("connections after round trip: %d", tr2.DBConnections())
	}
	if tr2.DBState() != "Database initialized" {
		t.Errorf("state after round trip: %q", tr2.DBState())
	}
}
