package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/validation"
)

const maxBodyBytes = 1 << 20

// productQuery is the raw query string of GET /products.
type productQuery struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Gender      string `json:"gender" validate:"omitempty,oneof=all men women unisex"`
	MinPrice    string `json:"minPrice"`
	MaxPrice    string `json:"maxPrice"`
	Colors      string `json:"colors"`
	Sizes       string `json:"sizes"`
	SortBy      string `json:"sortBy"`
	Query       string `json:"q"`
}

// parseFilterSpec turns the GET /products query string into a FilterSpec.
func parseFilterSpec(r *http.Request) (catalog.FilterSpec, error) {
	values := r.URL.Query()
	q := productQuery{
		Category:    strings.TrimSpace(values.Get("category")),
		Subcategory: strings.TrimSpace(values.Get("subcategory")),
		Gender:      strings.TrimSpace(values.Get("gender")),
		MinPrice:    strings.TrimSpace(values.Get("minPrice")),
		MaxPrice:    strings.TrimSpace(values.Get("maxPrice")),
		Colors:      values.Get("colors"),
		Sizes:       values.Get("sizes"),
		SortBy:      strings.TrimSpace(values.Get("sortBy")),
		Query:       values.Get("q"),
	}
	if err := validation.Struct(q); err != nil {
		return catalog.FilterSpec{}, err
	}

	spec := catalog.FilterSpec{
		Category:    q.Category,
		Subcategory: q.Subcategory,
		Gender:      q.Gender,
		Colors:      splitList(q.Colors),
		Sizes:       splitList(q.Sizes),
		SortBy:      catalog.SortBy(q.SortBy),
		SearchQuery: q.Query,
	}

	details := map[string]string{}
	var err error
	if spec.PriceMin, err = parseDecimal(q.MinPrice); err != nil {
		details["minPrice"] = "must be a decimal number"
	}
	if spec.PriceMax, err = parseDecimal(q.MaxPrice); err != nil {
		details["maxPrice"] = "must be a decimal number"
	}
	if len(details) > 0 {
		return catalog.FilterSpec{}, apperr.New(apperr.CodeInvalidArgument, "validation failed").WithDetails(details)
	}
	return spec, nil
}

func parseDecimal(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// splitList parses a comma separated list, dropping blank entries.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.CodeInvalidArgument, "invalid "+key).WithDetails(map[string]string{key: "must be a positive integer"})
	}
	return id, nil
}

func queryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.CodeInvalidArgument, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, apperr.New(apperr.CodeInvalidArgument, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// decodeJSONBody decodes a single JSON object into dest and validates it.
func decodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, err, "invalid request body").WithDetails(map[string]string{"body": err.Error()})
	}
	return validation.Struct(dest)
}
