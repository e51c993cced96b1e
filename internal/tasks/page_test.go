package tasks

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/s1natex/taskboard/internal/storage"
)

func newTestPage(t *testing.T) (*chi.Mux, *Board) {
	t.Helper()
	board := newTestBoard(t, storage.NewMemory())
	r := chi.NewRouter()
	RegisterPage(r, board, quietLogger())
	return r, board
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPage_RendersSections(t *testing.T) {
	r, board := newTestPage(t)
	mustAdd(t, board, "<b>escaped</b>")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Today", "Created a day ago", "Created a week ago", "&lt;b&gt;escaped&lt;/b&gt;", `id="pending-btn"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page is missing %q", want)
		}
	}
}

func TestPage_AddRedirectsWithFilter(t *testing.T) {
	r, board := newTestPage(t)

	rec := postForm(r, "/add", url.Values{"title": {"Buy milk"}, "filter": {"pending"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?filter=pending" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if got := titles(board.Tasks(FilterAll)); !equalStrings(got, []string{"Buy milk"}) {
		t.Fatalf("board = %v", got)
	}
}

func TestPage_BlankTitleIgnored(t *testing.T) {
	r, board := newTestPage(t)

	rec := postForm(r, "/add", url.Values{"title": {"   "}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if n := len(board.Tasks(FilterAll)); n != 0 {
		t.Fatalf("expected no tasks, got %d", n)
	}
}

func TestPage_OverlongTitleIgnored(t *testing.T) {
	r, board := newTestPage(t)

	rec := postForm(r, "/add", url.Values{"title": {strings.Repeat("x", maxTitleLen+1)}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if n := len(board.Tasks(FilterAll)); n != 0 {
		t.Fatalf("expected no tasks, got %d", n)
	}

	postForm(r, "/add", url.Values{"title": {strings.Repeat("x", maxTitleLen)}})
	if n := len(board.Tasks(FilterAll)); n != 1 {
		t.Fatalf("title at the limit should be accepted, got %d tasks", n)
	}
}

func TestPage_ToggleDeleteMove(t *testing.T) {
	r, board := newTestPage(t)
	a := mustAdd(t, board, "A")
	b := mustAdd(t, board, "B")

	postForm(r, "/tasks/"+strconv.FormatInt(a.ID, 10)+"/toggle", nil)
	if !board.Tasks(FilterAll)[0].Completed {
		t.Fatalf("toggle did not apply")
	}

	postForm(r, "/move/1/up", url.Values{"filter": {"all"}})
	if got := titles(board.Tasks(FilterAll)); !equalStrings(got, []string{"B", "A"}) {
		t.Fatalf("after move = %v", got)
	}

	postForm(r, "/tasks/"+strconv.FormatInt(b.ID, 10)+"/delete", nil)
	if got := titles(board.Tasks(FilterAll)); !equalStrings(got, []string{"A"}) {
		t.Fatalf("after delete = %v", got)
	}

	// stale ids and bogus moves are swallowed
	for _, path := range []string{"/tasks/999/delete", "/tasks/nope/toggle", "/move/7/down", "/move/0/left"} {
		if rec := postForm(r, path, nil); rec.Code != http.StatusSeeOther {
			t.Fatalf("%s: expected 303, got %d", path, rec.Code)
		}
	}
}
