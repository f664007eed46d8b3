package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/session"
	"github.com/newthinker/strategylab/internal/table"
	"go.uber.org/zap"
)

// refreshSeconds is how often a page with a pending run reloads itself.
const refreshSeconds = 2

// Export formats
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

const exportBaseName = "trade_history"

// Backtest renders the workspace in its current phase.
func (h *Handler) Backtest(w http.ResponseWriter, r *http.Request) {
	snap := h.workspaces.Get(session.IDFromContext(r.Context()))

	page := newPage(r, "Backtest")
	if snap.Busy() {
		page.Refresh = refreshSeconds
	}
	h.render(w, http.StatusOK, "backtest.html", newBacktestData(page, snap))
}

// Submit applies the posted fields and starts a run when they validate.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id := session.IDFromContext(r.Context())
	sess, _ := session.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	for _, f := range backtest.Fields {
		if _, ok := r.PostForm[string(f)]; !ok {
			continue
		}
		if _, err := h.workspaces.SetField(id, f, r.PostForm.Get(string(f))); err != nil {
			h.logger.Warn("field rejected", zap.String("field", string(f)), zap.Error(err))
		}
	}

	snap, ok := h.workspaces.Submit(r.Context(), id, sess)
	if !ok {
		h.render(w, http.StatusUnprocessableEntity, "backtest.html", newBacktestData(newPage(r, "Backtest"), snap))
		return
	}
	http.Redirect(w, r, "/backtest", http.StatusSeeOther)
}

// Field applies a single field edit and returns that field's markup. A
// pending error on the field is cleared without validating the rest.
func (h *Handler) Field(w http.ResponseWriter, r *http.Request) {
	field := backtest.Field(r.PostFormValue("field"))
	snap, err := h.workspaces.SetField(session.IDFromContext(r.Context()), field, r.PostFormValue("value"))
	if err != nil {
		http.Error(w, "unknown field", http.StatusBadRequest)
		return
	}
	h.renderFragment(w, "backtest.html", "field", fieldView(snap.Form, field, snap.Busy()))
}

// Table applies one trade table action and returns to the table.
func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	row, _ := strconv.Atoi(r.PostFormValue("row"))
	action := table.Action{
		Kind:   table.ActionKind(r.PostFormValue("action")),
		Column: r.PostFormValue("column"),
		Filter: r.PostFormValue("filter"),
		Row:    row,
	}

	if _, err := h.workspaces.ApplyTable(session.IDFromContext(r.Context()), action); err != nil && !errors.Is(err, core.ErrNoResult) {
		h.logger.Warn("table action failed", zap.Error(err))
	}
	http.Redirect(w, r, "/backtest#trades", http.StatusSeeOther)
}

// Export downloads the selected trades, or all trades when none are
// selected, as CSV or Parquet.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatCSV
	}

	trades, err := h.workspaces.Export(session.IDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "no backtest result to export", http.StatusNotFound)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case FormatCSV:
		contentType = "text/csv; charset=utf-8"
		err = table.WriteCSV(&buf, trades)
	case FormatParquet:
		contentType = "application/vnd.apache.parquet"
		err = table.WriteParquet(&buf, backtest.Records(trades))
	default:
		http.Error(w, "unsupported export format: "+format, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		http.Error(w, core.ErrExportFailed.Message, http.StatusInternalServerError)
		return
	}

	h.metrics.RecordExport(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportBaseName+"."+format+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}
