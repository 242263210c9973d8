package matchcore

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/clock"
	"matchcore/internal/config"
	"matchcore/internal/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService() *Service {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	ids := clock.NewSequentialIDs()
	return New(config.Default(), clk, ids, zerolog.Nop())
}

func TestAddOrder_RejectsNegativePriceBeforeQuantity(t *testing.T) {
	s := newTestService()
	_, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("-1"), Quantity: dec("-1"),
	})
	assert.ErrorIs(t, err, ErrNegativePrice, "negative price must be checked before quantity")
}

func TestAddOrder_RejectsNonPositiveQuantity(t *testing.T) {
	s := newTestService()
	_, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("10"), Quantity: dec("0"),
	})
	assert.ErrorIs(t, err, ErrNonPositiveQty)
}

func TestAddOrder_LimitOrderRestsAndIsRetrievable(t *testing.T) {
	s := newTestService()
	order, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("100"), Quantity: dec("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.Open, order.Status)

	got, ok := s.GetOrderByID(order.ID)
	require.True(t, ok)
	assert.Equal(t, order.ID, got.ID)

	price, ok := s.GetCurrentMarketPrice("BTC", types.Sell)
	require.True(t, ok, "a resting buy is the reference price for a sell market order")
	assert.True(t, price.Equal(dec("100")))
}

func TestAddOrder_MarketOrderWithNoLiquidityIsRejected(t *testing.T) {
	s := newTestService()
	_, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Market, TimeInForce: types.IOC,
		Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, ErrNoMarketReference)
}

func TestAddOrder_MarketOrderPricesFromOppositeSideBestAndAdmits(t *testing.T) {
	s := newTestService()
	_, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Sell, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("100"), Quantity: dec("5"),
	})
	require.NoError(t, err)

	order, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Market, TimeInForce: types.IOC,
		Price: dec("100"), Quantity: dec("5"),
	})
	require.NoError(t, err)
	assert.True(t, order.Price.Equal(dec("100")), "a buy market order prices from the best ask")
	assert.Equal(t, types.Closed, order.Status)

	trades := s.Trades()
	require.Equal(t, 1, len(trades))
	assert.True(t, trades[0].Price.Equal(dec("100")))
}

func TestAddOrder_MarketOrderRejectedForAdverseSlippage(t *testing.T) {
	s := newTestService()
	_, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Sell, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("1000"), Quantity: dec("5"),
	})
	require.NoError(t, err)

	// Best ask is 1000; a buy market order bounded at 100 tolerates at most
	// 5% = 105 before rejecting for slippage.
	_, err = s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Market, TimeInForce: types.IOC,
		Price: dec("100"), Quantity: dec("5"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5%")
}

func TestAddOrder_MarketOrderAdmittedWithinSlippageTolerance(t *testing.T) {
	s := newTestService()
	_, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Sell, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("101"), Quantity: dec("5"),
	})
	require.NoError(t, err)

	order, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Market, TimeInForce: types.IOC,
		Price: dec("100"), Quantity: dec("5"),
	})
	require.NoError(t, err)
	assert.True(t, order.Price.Equal(dec("101")))
}

func TestCancelOrder_RemovesFromBookAndIsIdempotent(t *testing.T) {
	s := newTestService()
	order, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("100"), Quantity: dec("5"),
	})
	require.NoError(t, err)

	assert.True(t, s.CancelOrder(order.ID))
	got, ok := s.GetOrderByID(order.ID)
	require.True(t, ok)
	assert.Equal(t, types.Cancelled, got.Status)

	_, ok = s.GetCurrentMarketPrice("BTC", types.Sell)
	assert.False(t, ok, "a cancelled order must no longer be visible to a market order lookup")

	assert.False(t, s.CancelOrder(order.ID), "cancelling an already-terminal order returns false")
}

func TestCancelOrder_UnknownIDReturnsFalse(t *testing.T) {
	s := newTestService()
	assert.False(t, s.CancelOrder(uuid.New()))
}

func TestUpdateOrderQuantity_DoesNotReMatch(t *testing.T) {
	s := newTestService()
	order, err := s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("100"), Quantity: dec("5"),
	})
	require.NoError(t, err)

	assert.True(t, s.UpdateOrderQuantity(order.ID, dec("9")))
	got, ok := s.GetOrderByID(order.ID)
	require.True(t, ok)
	assert.True(t, got.Quantity.Equal(dec("9")))
	assert.Equal(t, types.Open, got.Status, "an administrative quantity change does not trigger matching")
}

func TestUpdateOrderStatus_UnknownIDReturnsFalse(t *testing.T) {
	s := newTestService()
	assert.False(t, s.UpdateOrderStatus(s.ids.New(), types.Cancelled))
}

func TestNewFromEnv_LoadsConfigFromEnvironment(t *testing.T) {
	t.Setenv("MATCHCORE_MARKET_SLIPPAGE_TOLERANCE", "0.1")

	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	ids := clock.NewSequentialIDs()
	s, err := NewFromEnv(clk, ids, zerolog.Nop())
	require.NoError(t, err)

	// Best ask 110 against a bound of 100 is 10% away, which only the
	// overridden 10% tolerance (not the 5% default) admits.
	_, err = s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Sell, OrderType: types.Limit, TimeInForce: types.GTC,
		Price: dec("110"), Quantity: dec("5"),
	})
	require.NoError(t, err)

	_, err = s.AddOrder(AddOrderRequest{
		ItemID: "BTC", Side: types.Buy, OrderType: types.Market, TimeInForce: types.IOC,
		Price: dec("100"), Quantity: dec("5"),
	})
	assert.NoError(t, err)
}
