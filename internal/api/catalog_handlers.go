package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/ec-storefront/internal/api/responses"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/logger"
)

const maxRelatedLimit = 50

// CatalogHandlers serves product and category reads.
type CatalogHandlers struct {
	catalog *catalog.Service
	log     *logger.Logger
}

func NewCatalogHandlers(svc *catalog.Service, log *logger.Logger) *CatalogHandlers {
	return &CatalogHandlers{catalog: svc, log: log}
}

// ListProducts runs a catalog query built from the query string.
func (h *CatalogHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	products, err := h.catalog.Query(r.Context(), spec)
	h.respond(w, r, products, err)
}

func (h *CatalogHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	p, err := h.catalog.Product(r.Context(), id)
	h.respond(w, r, p, err)
}

func (h *CatalogHandlers) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	limit, err := queryInt(r, "limit", catalog.DefaultRelatedLimit, 1, maxRelatedLimit)
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	products, err := h.catalog.Related(r.Context(), id, limit)
	h.respond(w, r, products, err)
}

func (h *CatalogHandlers) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context())
	h.respond(w, r, products, err)
}

func (h *CatalogHandlers) NewArrivals(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.NewArrivals(r.Context())
	h.respond(w, r, products, err)
}

func (h *CatalogHandlers) SaleItems(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.SaleItems(r.Context())
	h.respond(w, r, products, err)
}

func (h *CatalogHandlers) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.catalog.Facets(r.Context())
	h.respond(w, r, facets, err)
}

// ListCategories returns all categories ordered by name.
func (h *CatalogHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	h.respond(w, r, categories, err)
}

func (h *CatalogHandlers) MainCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.MainCategories(r.Context())
	h.respond(w, r, categories, err)
}

func (h *CatalogHandlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	h.respond(w, r, c, err)
}

func (h *CatalogHandlers) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	responses.WriteSuccess(w, data)
}
