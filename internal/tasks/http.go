package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
)

const maxTitleLen = 200

type createTaskRequest struct {
	Title string `json:"title"`
}

type moveRequest struct {
	Index     int    `json:"index"`
	Direction string `json:"direction"`
	Filter    string `json:"filter"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errResponse struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details,omitempty"`
}

// RegisterRoutes mounts the JSON API on r.
func RegisterRoutes(r chi.Router, board *Board) {
	r.Get("/tasks", listTasks(board))
	r.Post("/tasks", createTask(board))
	r.Post("/tasks/move", moveTask(board))
	r.Delete("/tasks/{id}", deleteTask(board))
	r.Post("/tasks/{id}/toggle", toggleTask(board))
	r.Get("/groups", listGroups(board))
}

func createTask(board *Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		if vErrs := validateCreateTask(req.Title, maxTitleLen); len(vErrs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}

		t, err := board.Add(r.Context(), req.Title)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func listTasks(board *Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := ParseFilter(r.URL.Query().Get("filter"))
		writeJSON(w, http.StatusOK, board.Tasks(f))
	}
}

func listGroups(board *Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := ParseFilter(r.URL.Query().Get("filter"))
		writeJSON(w, http.StatusOK, board.Groups(f))
	}
}

func deleteTask(board *Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := board.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toggleTask(board *Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		t, err := board.Toggle(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func moveTask(board *Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		f := ParseFilter(req.Filter)
		var err error
		switch strings.ToLower(req.Direction) {
		case "up":
			err = board.MoveUp(r.Context(), f, req.Index)
		case "down":
			err = board.MoveDown(r.Context(), f, req.Index)
		default:
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error: "validation_error",
				Details: []fieldError{
					{Field: "direction", Message: `direction must be "up" or "down"`},
				},
			})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, board.Tasks(f))
	}
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{
			Error:   "invalid_id",
			Details: []fieldError{{Field: "id", Message: "id must be an integer"}},
		})
		return 0, false
	}
	return id, true
}

func validateCreateTask(title string, maxLen int) []fieldError {
	var errs []fieldError

	if strings.TrimSpace(title) == "" {
		errs = append(errs, fieldError{
			Field:   "title",
			Message: "title is required",
		})
	}

	if l := utf8.RuneCountInString(strings.TrimSpace(title)); l > maxLen {
		errs = append(errs, fieldError{
			Field:   "title",
			Message: fmt.Sprintf("title must be at most %d characters", maxLen),
		})
	}

	return errs
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found"})
	case errors.Is(err, ErrIndexOutOfRange):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:   "validation_error",
			Details: []fieldError{{Field: "index", Message: "index is outside the filtered list"}},
		})
	case errors.Is(err, ErrTitleRequired):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:   "validation_error",
			Details: []fieldError{{Field: "title", Message: "title is required"}},
		})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{Error: "validation_error"})
	case errors.Is(err, ErrStorageUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errResponse{Error: "storage_unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
