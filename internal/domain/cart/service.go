package cart

import (
	"context"
	"time"

	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/example/ec-storefront/internal/validation"
)

var ErrOutOfStock = apperr.New(apperr.CodeInvalidArgument, "product is out of stock")

// ProductLookup resolves catalog products; catalog.Service satisfies it.
type ProductLookup interface {
	Product(ctx context.Context, id int64) (product.Product, error)
}

// Publisher sends cart events keyed by session id.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// AddRequest adds a catalog product to a cart. Empty Size or Color select
// the product's first offered value; zero Quantity means one.
type AddRequest struct {
	ProductID int64  `json:"productId" validate:"gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"min=0,max=999"`
}

// Service runs cart operations on behalf of shopper sessions and announces
// every applied mutation.
type Service struct {
	sessions  *Sessions
	products  ProductLookup
	publisher Publisher
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService wires the cart service. publisher, log and m may be nil.
func NewService(sessions *Sessions, products ProductLookup, publisher Publisher, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		sessions:  sessions,
		products:  products,
		publisher: publisher,
		log:       log.Component("cart-service"),
		metrics:   m,
		now:       time.Now,
	}
}

func (s *Service) Cart(ctx context.Context, sessionID string) (*Cart, error) {
	return s.sessions.Open(ctx, sessionID)
}

// AddProduct resolves the product, fills in the default variant, checks
// the variant is offered and adds the line at the product's discounted price.
func (s *Service) AddProduct(ctx context.Context, sessionID string, req AddRequest) (Line, error) {
	if err := validation.Struct(req); err != nil {
		return Line{}, err
	}

	p, err := s.products.Product(ctx, req.ProductID)
	if err != nil {
		return Line{}, err
	}
	if !p.InStock {
		return Line{}, ErrOutOfStock
	}

	v := Variant{Size: req.Size, Color: req.Color}
	if v.Size == "" {
		v.Size = p.DefaultSize()
	}
	if v.Color == "" {
		v.Color = p.DefaultColor()
	}
	if details := unofferedVariant(p, v); details != nil {
		return Line{}, apperr.New(apperr.CodeInvalidArgument, "variant not offered").WithDetails(details)
	}

	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	c, err := s.sessions.Open(ctx, sessionID)
	if err != nil {
		return Line{}, err
	}
	line, err := c.AddItem(ctx, p.ID, p.DiscountedPrice(), v, qty)
	if !s.applied("add", err) {
		return Line{}, err
	}

	s.publish(ctx, sessionID, EventItemAdded, ItemAddedToCart{
		LineID:       line.LineID,
		ProductID:    line.ProductID,
		Size:         line.Size,
		Color:        line.Color,
		Quantity:     qty,
		LineQuantity: line.Quantity,
		UnitPrice:    line.UnitPrice,
	})
	return line, err
}

func unofferedVariant(p product.Product, v Variant) map[string]string {
	details := map[string]string{}
	if !p.HasSize(v.Size) {
		details["size"] = "not offered for this product"
	}
	if !p.HasColor(v.Color) {
		details["color"] = "not offered for this product"
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// UpdateQuantity sets a line's quantity; qty <= 0 removes it.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, lineID string, qty int) ([]Line, error) {
	c, err := s.sessions.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	before, _ := c.Line(lineID)

	lines, err := c.UpdateQuantity(ctx, lineID, qty)
	op := "update"
	if qty <= 0 {
		op = "remove"
	}
	if !s.applied(op, err) {
		return nil, err
	}

	if qty <= 0 {
		s.publish(ctx, sessionID, EventItemRemoved, ItemRemovedFromCart{LineID: lineID, ProductID: before.ProductID})
	} else {
		s.publish(ctx, sessionID, EventQuantityUpdated, CartItemQuantityUpdated{
			LineID:    lineID,
			ProductID: before.ProductID,
			Quantity:  qty,
		})
	}
	return lines, err
}

func (s *Service) RemoveItem(ctx context.Context, sessionID, lineID string) ([]Line, error) {
	c, err := s.sessions.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	before, _ := c.Line(lineID)

	lines, err := c.RemoveItem(ctx, lineID)
	if !s.applied("remove", err) {
		return nil, err
	}

	s.publish(ctx, sessionID, EventItemRemoved, ItemRemovedFromCart{LineID: lineID, ProductID: before.ProductID})
	return lines, err
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	c, err := s.sessions.Open(ctx, sessionID)
	if err != nil {
		return err
	}
	removed := len(c.Lines())
	if removed == 0 {
		return c.Clear(ctx)
	}

	err = c.Clear(ctx)
	if !s.applied("clear", err) {
		return err
	}

	s.publish(ctx, sessionID, EventCartCleared, CartCleared{LinesRemoved: removed})
	return err
}

// applied reports whether the ledger took the mutation. A persistence
// failure still counts as applied.
func (s *Service) applied(op string, err error) bool {
	if err == nil {
		s.metrics.IncCartMutation(op)
		return true
	}
	if apperr.IsCode(err, apperr.CodeSourceUnavailable) {
		s.metrics.IncCartMutation(op)
		s.metrics.IncPersistFailure(op)
		return true
	}
	return false
}

func (s *Service) publish(ctx context.Context, sessionID, eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	ctx = s.log.WithSessionID(ctx, sessionID)

	ev, err := newEvent(eventType, sessionID, s.now().UTC(), payload)
	if err != nil {
		s.log.Error(ctx, "encoding cart event", err)
		return
	}
	if err := s.publisher.Publish(ctx, sessionID, ev); err != nil {
		s.log.Warn(ctx, "publishing "+eventType, err)
	}
}
