package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/kasir/internal/domain/cart"
	"github.com/xenking/kasir/internal/domain/pos"
	"github.com/xenking/kasir/internal/domain/transaction"
)

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	h.writeSnapshot(w, http.StatusCreated, h.sessions.Open(r.Context()))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	productID, err := decodeString(r, "productId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.sessions.AddItem(r.Context(), r.PathValue("id"), productID)
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) changeQuantity(w http.ResponseWriter, r *http.Request) {
	var (
		delta int
		found bool
	)
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "delta" {
			return d.Skip()
		}
		v, err := d.Int()
		delta, found = v, true
		return err
	})
	if err == nil && !found {
		err = &validationError{msg: "delta required"}
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.sessions.ChangeQuantity(r.Context(), r.PathValue("id"), r.PathValue("productId"), delta)
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Clear(r.Context(), r.PathValue("id"))
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) attachMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := decodeString(r, "memberId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.sessions.AttachMember(r.Context(), r.PathValue("id"), memberID)
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) detachMember(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.DetachMember(r.Context(), r.PathValue("id"))
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) addPromo(w http.ResponseWriter, r *http.Request) {
	productID, err := decodeString(r, "productId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.sessions.AddPromo(r.Context(), r.PathValue("id"), productID)
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) beginCheckout(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.BeginCheckout(r.Context(), r.PathValue("id"))
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) cancelCheckout(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.CancelCheckout(r.Context(), r.PathValue("id"))
	h.respondSnapshot(w, r, snap, err)
}

func (h *Handler) confirmCheckout(w http.ResponseWriter, r *http.Request) {
	method, err := decodeString(r, "paymentMethod")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tx, err := h.sessions.ConfirmCheckout(r.Context(), r.PathValue("id"), cart.PaymentMethod(strings.ToUpper(method)))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeTransaction(e, *tx) })
}

func (h *Handler) respondSnapshot(w http.ResponseWriter, r *http.Request, snap pos.Snapshot, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, snap)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, status int, s pos.Snapshot) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			strField(e, "id", s.SessionID)
			e.Field("openedAt", func(e *jx.Encoder) { encodeTime(e, s.OpenedAt) })
			strField(e, "state", s.State.String())
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, l := range s.Lines {
						h.encodeLine(e, l)
					}
				})
			})
			e.Field("member", func(e *jx.Encoder) {
				if s.Member == nil {
					e.Null()
					return
				}
				encodeMember(e, *s.Member)
			})
			e.Field("totals", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					moneyField(e, "subtotal", s.Totals.Subtotal)
					moneyField(e, "discount", s.Totals.Discount)
					moneyField(e, "tax", s.Totals.Tax)
					moneyField(e, "grandTotal", s.Totals.GrandTotal)
				})
			})
			moneyField(e, "taxRate", s.TaxRate)
			e.Field("promoEligible", func(e *jx.Encoder) { e.Bool(s.PromoEligible) })
		})
	})
}

func (h *Handler) encodeLine(e *jx.Encoder, l cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		strField(e, "productId", l.Product.ID)
		strField(e, "name", l.Product.Name)
		strField(e, "sku", l.Product.SKU)
		strField(e, "image", h.imageURL(l.Product.Image))
		moneyField(e, "price", l.Product.Price)
		moneyField(e, "discount", l.Product.Discount)
		intField(e, "quantity", l.Quantity)
		moneyField(e, "subtotal", l.Subtotal())
		moneyField(e, "discountAmount", l.Discount())
	})
}

func encodeTransaction(e *jx.Encoder, tx transaction.Transaction) {
	e.Obj(func(e *jx.Encoder) {
		strField(e, "id", tx.ID)
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, tx.CreatedAt) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range tx.Lines {
					e.Obj(func(e *jx.Encoder) {
						strField(e, "productId", l.ProductID)
						strField(e, "name", l.Name)
						moneyField(e, "unitPrice", l.UnitPrice)
						moneyField(e, "discount", l.Discount)
						intField(e, "quantity", l.Quantity)
					})
				}
			})
		})
		moneyField(e, "subtotal", tx.Subtotal)
		moneyField(e, "discount", tx.Discount)
		moneyField(e, "tax", tx.Tax)
		moneyField(e, "grandTotal", tx.GrandTotal)
		strField(e, "paymentMethod", string(tx.PaymentMethod))
		if tx.MemberID != "" {
			strField(e, "memberId", tx.MemberID)
		}
	})
}
