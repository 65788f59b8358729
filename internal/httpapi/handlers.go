package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ankittk/osboard/internal/board"
	"github.com/ankittk/osboard/internal/calendar"
	"github.com/ankittk/osboard/internal/configstore"
	"github.com/ankittk/osboard/internal/export"
	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/pkg/client"
	"github.com/ankittk/osboard/pkg/models"
	"github.com/go-chi/chi/v5"
)

var errBoardRequired = errors.New("httpapi: board required")

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handlers struct {
	board    Board
	activity ActivityLister
}

// statusFor maps board and remote errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, client.ErrConflict), errors.Is(err, board.ErrBusy), errors.Is(err, configstore.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, board.ErrUnknownOrder):
		return http.StatusNotFound
	case board.IsRejection(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSONError(w, statusFor(err), err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.board.View())
}

func (h *handlers) getFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.board.Filters())
}

func (h *handlers) putFilters(w http.ResponseWriter, r *http.Request) {
	var f models.Filters
	if !decode(w, r, &f) {
		return
	}
	if f.Month != "" {
		if _, err := calendar.ParseMonth(f.Month); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.board.SetFilters(r.Context(), f); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, h.board.View())
}

func (h *handlers) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Load(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, h.board.View())
}

func (h *handlers) drop(w http.ResponseWriter, r *http.Request) {
	var req models.DropRequest
	if !decode(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		writeJSONError(w, http.StatusBadRequest, "os_id required")
		return
	}
	if err := h.board.Drop(r.Context(), req); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, h.board.View())
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	var req models.CellRequest
	if !decodeCell(w, r, &req) {
		return
	}
	if err := h.board.Reset(r.Context(), req); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, h.board.View())
}

func decodeCell(w http.ResponseWriter, r *http.Request, req *models.CellRequest) bool {
	if !decode(w, r, req) {
		return false
	}
	if req.OrderID == "" || req.Date == "" {
		writeJSONError(w, http.StatusBadRequest, "os_id and date_key required")
		return false
	}
	return true
}

func (h *handlers) lock(w http.ResponseWriter, r *http.Request) {
	var req models.CellRequest
	if !decodeCell(w, r, &req) {
		return
	}
	locked, err := h.board.ToggleLock(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"locked": locked})
}

func (h *handlers) note(w http.ResponseWriter, r *http.Request) {
	var req models.NoteRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.board.SetNote(r.Context(), req); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *handlers) color(w http.ResponseWriter, r *http.Request) {
	var req models.ColorRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.board.SetColor(r.Context(), req); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *handlers) weekComment(w http.ResponseWriter, r *http.Request) {
	var req models.WeekCommentRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.board.AddWeekComment(r.Context(), req); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *handlers) week(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, board.ErrBadWeek.Error())
		return
	}
	v, err := h.board.Week(n)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) order(w http.ResponseWriter, r *http.Request) {
	o, ok := h.board.Order(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, board.ErrUnknownOrder.Error())
		return
	}
	writeJSON(w, o)
}

func (h *handlers) flush(w http.ResponseWriter, r *http.Request) {
	if err := h.board.FlushConfig(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *handlers) exportMonth(w http.ResponseWriter, r *http.Request) {
	v := h.board.View()
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(v)))
	if err := export.WriteMonth(w, v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *handlers) listActivity(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		writeJSON(w, []models.Activity{})
		return
	}
	q := store.ActivityQuery{OrderID: r.URL.Query().Get("os_id")}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = n
	}
	list, err := h.activity.ListActivity(r.Context(), q)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, list)
}
