package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MrEthical07/storefront/cart"
	"github.com/MrEthical07/storefront/cms"
	"github.com/MrEthical07/storefront/commerce"
	"github.com/go-chi/chi/v5"
)

type productsResponse struct {
	Success bool `json:"success"`
	commerce.ProductPage
}

type productResponse struct {
	Success bool                   `json:"success"`
	Product commerce.ProductDetail `json:"product"`
}

type checkoutRequest struct {
	Lines []cart.LineInput `json:"lines"`
}

type checkoutResponse struct {
	Success     bool     `json:"success"`
	CartID      string   `json:"cartId,omitempty"`
	CheckoutURL string   `json:"checkoutUrl,omitempty"`
	UserErrors  []string `json:"userErrors,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// intParam parses name leniently: missing or malformed values yield 0 so
// the engine applies its default.
func intParam(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func (h *handlers) products(w http.ResponseWriter, r *http.Request) {
	page, err := h.engine.Products(r.Context(), commerce.ProductQuery{
		First: intParam(r, "first"),
		After: r.URL.Query().Get("after"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productsResponse{Success: true, ProductPage: page})
}

func (h *handlers) product(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Product(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: p})
}

// checkout reports upstream user errors with 422 so clients can show them.
func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	res, err := h.engine.Checkout(r.Context(), req.Lines)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := checkoutResponse{
		Success:     res.CheckoutURL != "",
		CartID:      res.CartID,
		CheckoutURL: res.CheckoutURL,
		UserErrors:  res.UserErrors,
		Errors:      res.Errors,
	}
	status := http.StatusOK
	if !out.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, out)
}

func (h *handlers) posts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.engine.Posts(r.Context(), cms.PostQuery{
		Category: q.Get("category"),
		Featured: q.Get("featured") == "true",
		PerPage:  intParam(r, "perPage"),
		After:    q.Get("after"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) post(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Post(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) categories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cats, err := h.engine.Categories(r.Context(), cms.CategoryQuery{
		Limit:        intParam(r, "limit"),
		IncludeEmpty: q.Get("excludeEmpty") == "false",
		OrderByName:  q.Get("orderBy") == "name",
		Ascending:    q.Get("orderDir") == "asc",
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []cms.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *handlers) graphql(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if !h.decodeJSON(w, r, &body) {
		return
	}
	out, err := h.engine.GraphQL(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
