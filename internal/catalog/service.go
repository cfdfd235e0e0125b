package catalog

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/metrics"
)

// Service answers catalog reads by fetching a snapshot from a Source and
// running the pure engine over it.
type Service struct {
	source     Source
	categories CategorySource
	log        *logger.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration
}

type Option func(*Service)

func WithCategories(cs CategorySource) Option {
	return func(s *Service) { s.categories = cs }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l.Component("catalog") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFetchTimeout bounds every source call; zero leaves the caller's deadline alone.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(source Source, opts ...Option) *Service {
	s := &Service{source: source, log: logger.Nop()}
	if cs, ok := source.(CategorySource); ok {
		s.categories = cs
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the full catalog.
func (s *Service) Snapshot(ctx context.Context) ([]product.Product, error) {
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	start := time.Now()
	products, err := s.source.FetchAll(ctx)
	s.metrics.ObserveCatalogFetch("fetch_all", time.Since(start), err)
	if err != nil {
		s.log.Error(ctx, "fetching catalog", err)
		return nil, unavailable(err, "catalog fetch failed")
	}
	return products, nil
}

// Query runs spec against the catalog.
func (s *Service) Query(ctx context.Context, spec FilterSpec) ([]product.Product, error) {
	s.metrics.IncCatalogQuery(spec.Mode())

	candidates, err := s.candidates(ctx, spec)
	if err != nil {
		return nil, err
	}
	return Query(candidates, spec), nil
}

func (s *Service) candidates(ctx context.Context, spec FilterSpec) ([]product.Product, error) {
	n, ok := s.source.(Narrower)
	if !ok {
		return s.Snapshot(ctx)
	}
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	start := time.Now()
	products, err := n.FetchMatching(ctx, spec)
	s.metrics.ObserveCatalogFetch("fetch_matching", time.Since(start), err)
	if err != nil {
		s.log.Error(ctx, "fetching catalog candidates", err)
		return nil, unavailable(err, "catalog fetch failed")
	}
	return products, nil
}

func (s *Service) Product(ctx context.Context, id int64) (product.Product, error) {
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	start := time.Now()
	p, err := s.source.FetchByID(ctx, id)
	s.metrics.ObserveCatalogFetch("fetch_by_id", time.Since(start), err)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return product.Product{}, err
		}
		s.log.Error(ctx, "fetching product", err)
		return product.Product{}, unavailable(err, "product fetch failed")
	}
	return p, nil
}

// Related returns products related to id; an unknown id yields an empty list.
func (s *Service) Related(ctx context.Context, id int64, limit int) ([]product.Product, error) {
	products, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Related(products, id, limit), nil
}

func (s *Service) Featured(ctx context.Context) ([]product.Product, error) {
	return s.selectFrom(ctx, Featured)
}

func (s *Service) NewArrivals(ctx context.Context) ([]product.Product, error) {
	return s.selectFrom(ctx, NewArrivals)
}

func (s *Service) SaleItems(ctx context.Context) ([]product.Product, error) {
	return s.selectFrom(ctx, SaleItems)
}

func (s *Service) Facets(ctx context.Context) (Facets, error) {
	products, err := s.Snapshot(ctx)
	if err != nil {
		return Facets{}, err
	}
	return ComputeFacets(products), nil
}

func (s *Service) selectFrom(ctx context.Context, sel func([]product.Product) []product.Product) ([]product.Product, error) {
	products, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return sel(products), nil
}

// Categories

// ListCategories returns all categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]product.Category, error) {
	cats, err := s.fetchCategories(ctx)
	if err != nil {
		return nil, err
	}
	sorted := slices.Clone(cats)
	slices.SortStableFunc(sorted, func(a, b product.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return sorted, nil
}

func (s *Service) CategoryByID(ctx context.Context, id int64) (product.Category, error) {
	return s.findCategory(ctx, func(c product.Category) bool { return c.ID == id })
}

func (s *Service) CategoryBySlug(ctx context.Context, slug string) (product.Category, error) {
	return s.findCategory(ctx, func(c product.Category) bool { return c.Slug == slug })
}

// MainCategories returns the top-level categories in navigation order,
// skipping any that the source does not define.
func (s *Service) MainCategories(ctx context.Context) ([]product.Category, error) {
	cats, err := s.fetchCategories(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]product.Category, 0, len(product.MainCategorySlugs))
	for _, slug := range product.MainCategorySlugs {
		if i := slices.IndexFunc(cats, func(c product.Category) bool { return c.Slug == slug }); i >= 0 {
			result = append(result, cats[i])
		}
	}
	return result, nil
}

func (s *Service) findCategory(ctx context.Context, match func(product.Category) bool) (product.Category, error) {
	cats, err := s.fetchCategories(ctx)
	if err != nil {
		return product.Category{}, err
	}
	if i := slices.IndexFunc(cats, match); i >= 0 {
		return cats[i], nil
	}
	return product.Category{}, product.ErrCategoryNotFound
}

func (s *Service) fetchCategories(ctx context.Context) ([]product.Category, error) {
	if s.categories == nil {
		return []product.Category{}, nil
	}
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	start := time.Now()
	cats, err := s.categories.FetchCategories(ctx)
	s.metrics.ObserveCatalogFetch("fetch_categories", time.Since(start), err)
	if err != nil {
		s.log.Error(ctx, "fetching categories", err)
		return nil, unavailable(err, "category fetch failed")
	}
	return cats, nil
}

func (s *Service) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// unavailable keeps already-coded errors and wraps everything else as SOURCE_UNAVAILABLE.
func unavailable(err error, msg string) error {
	if apperr.As(err) != nil {
		return err
	}
	return apperr.Wrap(apperr.CodeSourceUnavailable, err, msg)
}
