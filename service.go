// Package matchcore is the public façade of the in-memory, single-
// instrument-family, price-time-priority continuous limit order book
// matching engine. It orchestrates validation, market-order pricing,
// store/book insertion, matching invocation, and exposes the read and
// mutation operations collaborators need (spec.md §4.5, §6).
//
// Grounded on the teacher's internal/net/server.go message dispatch
// (NewOrder/CancelOrder/LogBook) and internal/engine/engine.go's Engine
// struct, collapsed into a single synchronous façade: spec.md §1 and §5
// place networking and concurrency out of scope for this module, so
// there is no wire protocol or dispatch loop here, only direct method
// calls.
package matchcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"matchcore/internal/book"
	"matchcore/internal/clock"
	"matchcore/internal/config"
	"matchcore/internal/match"
	"matchcore/internal/store"
	"matchcore/internal/tradelog"
	"matchcore/internal/types"
)

// Stable error substrings callers may match on (spec.md §6).
var (
	ErrNegativePrice     = errors.New("Price cannot be negative")
	ErrNonPositiveQty    = errors.New("Quantity must be greater than zero")
	ErrNoMarketReference = errors.New("Market order cannot be placed without any existing orders to determine price")
)

// errSlippage builds the stable-substring slippage rejection message,
// including both prices as spec.md §6 requires.
func errSlippage(marketPrice, requestPrice decimal.Decimal) error {
	return fmt.Errorf(
		"Market order price cannot be more than 5%% away from the current market price (market price: %s, requested price: %s)",
		marketPrice.String(), requestPrice.String(),
	)
}

// AddOrderRequest is the input to AddOrder (spec.md §6).
type AddOrderRequest struct {
	ItemID      string
	UserID      string
	Side        types.Side
	OrderType   types.OrderType
	TimeInForce types.TimeInForce
	Price       decimal.Decimal
	Quantity    decimal.Decimal
}

// Service is the order book service façade: the single owner of the
// order store, both price-level indices, and the trade log, exclusively
// mutated by its own methods (spec.md §5).
type Service struct {
	store  *store.Store
	book   *book.Book
	trades *tradelog.Log
	engine *match.Engine
	clk    clock.Clock
	ids    clock.IDGenerator
	cfg    config.Config
	log    zerolog.Logger
}

// New constructs an empty Service. clk and ids are the injected
// monotonic clock and UUID factory (spec.md §6); pass clock.NewSystem()
// and clock.NewUUIDGenerator() in production, or clock.NewFake(...)/
// clock.NewSequentialIDs() in tests. Pass zerolog.Nop() for logger to
// discard all output.
func New(cfg config.Config, clk clock.Clock, ids clock.IDGenerator, logger zerolog.Logger) *Service {
	st := store.New()
	bk := book.New()
	tl := tradelog.New()
	return &Service{
		store:  st,
		book:   bk,
		trades: tl,
		engine: match.New(st, bk, tl, clk, ids, cfg, logger),
		clk:    clk,
		ids:    ids,
		cfg:    cfg,
		log:    logger,
	}
}

// NewFromEnv constructs a Service with its Config loaded via
// config.Load — environment variables (MATCHCORE_MARKET_SLIPPAGE_TOLERANCE,
// MATCHCORE_DAY_ORDER_DURATION) overriding the spec defaults, plus an
// optional config file if opts supplies one. This is the production
// construction path; tests that want fixed tunables should call New
// with config.Default() directly instead.
func NewFromEnv(clk clock.Clock, ids clock.IDGenerator, logger zerolog.Logger, opts ...config.Option) (*Service, error) {
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return New(cfg, clk, ids, logger), nil
}

// AddOrder validates, admits, prices (for Market orders), and matches a
// new order, returning its post-match snapshot (spec.md §4.5).
func (s *Service) AddOrder(req AddOrderRequest) (types.Order, error) {
	if req.Price.Sign() < 0 {
		s.log.Warn().Str("item_id", req.ItemID).Msg(ErrNegativePrice.Error())
		return types.Order{}, ErrNegativePrice
	}
	if req.Quantity.Sign() <= 0 {
		s.log.Warn().Str("item_id", req.ItemID).Msg(ErrNonPositiveQty.Error())
		return types.Order{}, ErrNonPositiveQty
	}

	now := s.clk.Now()
	order := &types.Order{
		ID:             s.ids.New(),
		ItemID:         req.ItemID,
		UserID:         req.UserID,
		Side:           req.Side,
		OrderType:      req.OrderType,
		TimeInForce:    req.TimeInForce,
		Price:          req.Price,
		Quantity:       req.Quantity,
		QuantityFilled: decimal.Zero,
		Status:         types.Open,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      expiryFor(req.TimeInForce, now, s.cfg),
	}

	if req.OrderType == types.Market {
		marketPrice, ok := s.book.Best(req.ItemID, req.Side.Opposite())
		if !ok {
			s.log.Warn().Str("item_id", req.ItemID).Msg(ErrNoMarketReference.Error())
			return types.Order{}, ErrNoMarketReference
		}

		if adverseSlippage(req.Side, marketPrice, req.Price, s.cfg.MarketSlippageTolerance) {
			err := errSlippage(marketPrice, req.Price)
			s.log.Warn().Str("item_id", req.ItemID).Err(err).Msg("market order rejected for slippage")
			return types.Order{}, err
		}
		order.Price = marketPrice
	}

	s.store.Insert(order)
	s.log.Info().
		Stringer("order_id", order.ID).
		Str("item_id", order.ItemID).
		Str("side", order.Side.String()).
		Str("type", order.OrderType.String()).
		Str("tif", order.TimeInForce.String()).
		Stringer("price", order.Price).
		Stringer("quantity", order.Quantity).
		Msg("order admitted")

	s.engine.MatchIncoming(order)

	return order.Clone(), nil
}

// expiryFor computes ExpiresAt per spec.md §3: created_at + 24h for DAY,
// created_at itself for IOC (a marker, not used for ticking), nil for
// GTC/FOK.
func expiryFor(tif types.TimeInForce, createdAt time.Time, cfg config.Config) *time.Time {
	switch tif {
	case types.DAY:
		t := createdAt.Add(cfg.DayOrderDuration)
		return &t
	case types.IOC:
		t := createdAt
		return &t
	default:
		return nil
	}
}

// adverseSlippage reports whether marketPrice has moved against the
// requester by more than tolerance, per spec.md §4.5 step 4c: for a Buy
// market order the reference (best ask) must not exceed the requested
// bound by more than the tolerance fraction; for Sell it must not fall
// below it.
func adverseSlippage(side types.Side, marketPrice, requestPrice, tolerance decimal.Decimal) bool {
	bound := requestPrice.Mul(tolerance)
	if side == types.Buy {
		return marketPrice.GreaterThan(requestPrice.Add(bound))
	}
	return marketPrice.LessThan(requestPrice.Sub(bound))
}

// GetOrderByID returns the order by ID and whether it was found.
func (s *Service) GetOrderByID(id uuid.UUID) (types.Order, bool) {
	o := s.store.Get(id)
	if o == nil {
		return types.Order{}, false
	}
	return o.Clone(), true
}

// GetOrders returns every known order, in no particular order.
func (s *Service) GetOrders() []types.Order {
	return s.store.All()
}

// GetCurrentMarketPrice returns the best opposite-side resting price for
// itemID: the reference price a Market order on side would receive
// (spec.md §4.5).
func (s *Service) GetCurrentMarketPrice(itemID string, side types.Side) (decimal.Decimal, bool) {
	return s.book.Best(itemID, side.Opposite())
}

// CancelOrder marks an order Cancelled and removes it from the book, if
// it is found and not already terminal. Idempotent on unknown or
// terminal orders, which return false rather than an error (spec.md §7).
func (s *Service) CancelOrder(id uuid.UUID) bool {
	o := s.store.Get(id)
	if o == nil || o.Status.Terminal() {
		return false
	}
	o.Status = types.Cancelled
	o.UpdatedAt = s.clk.Now()
	s.book.Remove(o.ItemID, o.Side, o.Price, o.ID)
	s.log.Info().Stringer("order_id", o.ID).Msg("order cancelled")
	return true
}

// UpdateOrderStatus is an administrative mutator: it does not re-match
// and does not reshuffle index position.
func (s *Service) UpdateOrderStatus(id uuid.UUID, status types.Status) bool {
	o := s.store.Get(id)
	if o == nil {
		return false
	}
	o.Status = status
	o.UpdatedAt = s.clk.Now()
	return true
}

// UpdateOrderPrice is an administrative mutator. It does not relocate
// the order within the price-level index — callers must cancel and
// re-add to reprice (spec.md §4.5, §9: a known limitation mirrored
// intentionally from the source, not fixed here).
func (s *Service) UpdateOrderPrice(id uuid.UUID, price decimal.Decimal) bool {
	o := s.store.Get(id)
	if o == nil {
		return false
	}
	o.Price = price
	o.UpdatedAt = s.clk.Now()
	return true
}

// UpdateOrderQuantity is an administrative mutator: it does not re-match.
func (s *Service) UpdateOrderQuantity(id uuid.UUID, quantity decimal.Decimal) bool {
	o := s.store.Get(id)
	if o == nil {
		return false
	}
	o.Quantity = quantity
	o.UpdatedAt = s.clk.Now()
	return true
}

// Trades returns every committed trade, oldest first.
func (s *Service) Trades() []tradelog.Trade {
	return s.trades.All()
}
