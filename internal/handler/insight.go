package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kasir/internal/domain/insight"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	p := insight.PeriodWeekly
	if v := r.URL.Query().Get("period"); v != "" {
		var err error
		if p, err = insight.ParsePeriod(v); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	summary, err := h.insights.BuildSummary(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.Encode)
}

func (h *Handler) generateInsight(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeString(r, "period")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := insight.ParsePeriod(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	text := h.insights.Insight(r.Context(), p)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) { strField(e, "insight", text) })
	})
}
