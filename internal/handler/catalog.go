package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/product"
)

func (h *Handler) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			strField(e, "name", h.store.Name)
			strField(e, "address", h.store.Address)
			strField(e, "phone", h.store.Phone)
			strField(e, "currency", h.store.Currency)
			moneyField(e, "taxRate", h.store.TaxRate)
			moneyField(e, "promoThreshold", h.store.PromoThreshold)
		})
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := product.Search(r.Context(), h.products, r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeProducts(w, r, products)
}

func (h *Handler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := product.LowStock(r.Context(), h.products)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeProducts(w, r, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	names, err := h.categoryNames(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProduct(e, names, *p) })
}

func (h *Handler) writeProducts(w http.ResponseWriter, r *http.Request, products []product.Product) {
	names, err := h.categoryNames(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				h.encodeProduct(e, names, p)
			}
		})
	})
}

func (h *Handler) categoryNames(r *http.Request) (product.CategoryNames, error) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return product.NewCategoryNames(cats), nil
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := product.CountByCategory(r.Context(), h.categories, h.products)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range counts {
				e.Obj(func(e *jx.Encoder) {
					strField(e, "id", c.ID)
					strField(e, "name", c.Name)
					intField(e, "productCount", c.Products)
				})
			}
		})
	})
}

func (h *Handler) encodeProduct(e *jx.Encoder, names product.CategoryNames, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		strField(e, "id", p.ID)
		strField(e, "name", p.Name)
		strField(e, "categoryId", p.CategoryID)
		strField(e, "categoryName", names.Name(p.CategoryID))
		moneyField(e, "price", p.Price)
		moneyField(e, "costPrice", p.CostPrice)
		intField(e, "stock", p.Stock)
		intField(e, "minStock", p.MinStock)
		moneyField(e, "discount", p.Discount)
		strField(e, "sku", p.SKU)
		strField(e, "image", h.imageURL(p.Image))
		e.Field("lowStock", func(e *jx.Encoder) { e.Bool(p.IsLowStock()) })
	})
}

// imageURL resolves a relative image path against the configured base URL.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimPrefix(path, "/")
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, m := range members {
				encodeMember(e, m)
			}
		})
	})
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.members.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMember(e, *m) })
}

func encodeMember(e *jx.Encoder, m member.Member) {
	e.Obj(func(e *jx.Encoder) {
		strField(e, "id", m.ID)
		strField(e, "name", m.Name)
		strField(e, "phone", m.Phone)
		intField(e, "points", m.Points)
		strField(e, "joinDate", m.JoinDate.Format("2006-01-02"))
	})
}
