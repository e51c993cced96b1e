package tasks

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/board.html
var templateFS embed.FS

var boardTemplate = template.Must(
	template.New("board.html").
		Funcs(template.FuncMap{
			"title": func(f Filter) string {
				s := string(f)
				if s == "" {
					return s
				}
				return strings.ToUpper(s[:1]) + s[1:]
			},
		}).
		ParseFS(templateFS, "templates/board.html"),
)

type pageData struct {
	Filter  Filter
	Filters []Filter
	Groups  []Group
}

// RegisterPage mounts the HTML board on r. Form posts redirect back to the board;
// blank titles and stale ids are ignored, as the page has nowhere to show them.
func RegisterPage(r chi.Router, board *Board, logger *slog.Logger) {
	p := &page{board: board, logger: logger}
	r.Get("/", p.render)
	r.Post("/add", p.add)
	r.Post("/tasks/{id}/toggle", p.toggle)
	r.Post("/tasks/{id}/delete", p.delete)
	r.Post("/move/{index}/{direction}", p.move)
}

type page struct {
	board  *Board
	logger *slog.Logger
}

func (p *page) render(w http.ResponseWriter, r *http.Request) {
	f := ParseFilter(r.URL.Query().Get("filter"))

	var buf bytes.Buffer
	err := boardTemplate.Execute(&buf, pageData{
		Filter:  f,
		Filters: Filters,
		Groups:  p.board.Groups(f),
	})
	if err != nil {
		p.logger.Error("page_render_failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// add applies the same title rules as the API before touching the board.
func (p *page) add(w http.ResponseWriter, r *http.Request) {
	title := r.PostFormValue("title")
	if errs := validateCreateTask(title, maxTitleLen); len(errs) > 0 {
		p.ignored(r, "add", fmt.Errorf("%w: %s", ErrInvalidInput, errs[0].Message))
		p.back(w, r)
		return
	}
	if _, err := p.board.Add(r.Context(), title); err != nil {
		p.ignored(r, "add", err)
	}
	p.back(w, r)
}

func (p *page) toggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err == nil {
		_, err = p.board.Toggle(r.Context(), id)
	}
	if err != nil {
		p.ignored(r, "toggle", err)
	}
	p.back(w, r)
}

func (p *page) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err == nil {
		err = p.board.Delete(r.Context(), id)
	}
	if err != nil {
		p.ignored(r, "delete", err)
	}
	p.back(w, r)
}

func (p *page) move(w http.ResponseWriter, r *http.Request) {
	f := ParseFilter(r.PostFormValue("filter"))
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err == nil {
		switch chi.URLParam(r, "direction") {
		case "up":
			err = p.board.MoveUp(r.Context(), f, index)
		case "down":
			err = p.board.MoveDown(r.Context(), f, index)
		default:
			err = ErrInvalidInput
		}
	}
	if err != nil {
		p.ignored(r, "move", err)
	}
	p.back(w, r)
}

func (p *page) ignored(r *http.Request, action string, err error) {
	p.logger.Debug("page_action_ignored",
		slog.String("action", action),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

// back redirects to the board, keeping the filter the form was posted from.
func (p *page) back(w http.ResponseWriter, r *http.Request) {
	f := ParseFilter(r.PostFormValue("filter"))
	http.Redirect(w, r, "/?filter="+url.QueryEscape(string(f)), http.StatusSeeOther)
}
