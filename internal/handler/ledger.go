package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/kasir/internal/domain/cashflow"
)

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, r, &validationError{msg: "since must be an RFC 3339 timestamp"})
			return
		}
		since = t
	}

	txs, err := h.journal.List(r.Context(), since)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, tx := range txs {
				encodeTransaction(e, tx)
			}
		})
	})
}

func (h *Handler) listCashFlow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := cashflow.Filter{Query: q.Get("q")}
	switch t := strings.ToUpper(q.Get("type")); t {
	case "", "ALL":
	case string(cashflow.TypeIn), string(cashflow.TypeOut):
		f.Type = cashflow.Type(t)
	default:
		h.writeError(w, r, &validationError{msg: "type must be ALL, IN or OUT"})
		return
	}

	records, err := h.cashflow.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, rec := range records {
				encodeCashFlow(e, rec)
			}
		})
	})
}

func (h *Handler) recordCashFlow(w http.ResponseWriter, r *http.Request) {
	var rec cashflow.Record
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "type":
			var s string
			s, err = d.Str()
			rec.Type = cashflow.Type(strings.ToUpper(s))
		case "amount":
			rec.Amount, err = decodeDecimal(d)
		case "description":
			rec.Description, err = d.Str()
		case "category":
			rec.Category, err = d.Str()
		case "date":
			var s string
			if s, err = d.Str(); err == nil && s != "" {
				rec.Date, err = parseDate(s)
			}
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	saved, err := h.cashflow.Record(r.Context(), rec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCashFlow(e, *saved) })
}

// parseDate accepts a full timestamp or a calendar date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func (h *Handler) cashFlowSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.cashflow.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			moneyField(e, "in", sum.In)
			moneyField(e, "out", sum.Out)
			moneyField(e, "balance", sum.Balance)
		})
	})
}

func encodeCashFlow(e *jx.Encoder, rec cashflow.Record) {
	e.Obj(func(e *jx.Encoder) {
		strField(e, "id", rec.ID)
		e.Field("date", func(e *jx.Encoder) { encodeTime(e, rec.Date) })
		strField(e, "type", string(rec.Type))
		moneyField(e, "amount", rec.Amount)
		strField(e, "description", rec.Description)
		strField(e, "category", rec.Category)
	})
}
