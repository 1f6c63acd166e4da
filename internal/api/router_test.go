package api_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/trade-ledger/internal/api"
	"github.com/ksred/trade-ledger/internal/testutil"
	"github.com/ksred/trade-ledger/internal/types"
	"github.com/ksred/trade-ledger/pkg/response"
)

func TestTradeEndpoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := api.NewRouter(db, nil)
	portfolio := testutil.CreatePortfolio(t, db, "Portfolio 1")
	testutil.CreateShare(t, db, "APP", "150.50", "Apple Inc.")

	buy := types.TradeRequest{PortfolioID: portfolio.ID, ShareSymbol: "APP"}

	quantity := func(t *testing.T) int64 {
		t.Helper()
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/shares/APP/quantity?portfolio_id=1", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var out types.QuantityResponse
		testutil.DecodeEnvelope(t, w, &out)
		return out.AvailableQuantity
	}

	t.Run("buy succeeds", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/api/v1/trades/buy", buy)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var out types.TradeResponse
		env := testutil.DecodeEnvelope(t, w, &out)
		assert.True(t, env.Success)
		assert.Equal(t, "Buy operation successful", out.Message)
		require.NotNil(t, out.Trade)
		assert.Equal(t, types.TradeTypeBuy, out.Trade.Type)
		assert.True(t, out.Trade.Price.Equal(decimal.RequireFromString("150.50")))
		assert.Equal(t, int64(1), quantity(t))
	})

	t.Run("sell succeeds", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/api/v1/trades/sell", buy)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, int64(0), quantity(t))
	})

	t.Run("second sell is rejected", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/api/v1/trades/sell", buy)
		require.Equal(t, http.StatusBadRequest, w.Code)

		env := testutil.DecodeEnvelope(t, w, nil)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, response.ErrCodeInsufficientShares, env.Error.Code)
		assert.Equal(t, "insufficient stocks for selling", env.Error.Message)
		assert.Equal(t, int64(0), quantity(t))
	})

	t.Run("unknown portfolio", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/api/v1/trades/buy",
			types.TradeRequest{PortfolioID: 99, ShareSymbol: "APP"})
		require.Equal(t, http.StatusBadRequest, w.Code)

		env := testutil.DecodeEnvelope(t, w, nil)
		assert.Equal(t, response.ErrCodeUnknownPortfolio, env.Error.Code)
		assert.Equal(t, int64(2), testutil.CountTrades(t, db))
	})

	t.Run("unknown symbol", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/api/v1/trades/sell",
			types.TradeRequest{PortfolioID: portfolio.ID, ShareSymbol: "ZZZ"})
		require.Equal(t, http.StatusBadRequest, w.Code)

		env := testutil.DecodeEnvelope(t, w, nil)
		assert.Equal(t, response.ErrCodeUnknownSymbol, env.Error.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/api/v1/trades/buy", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("portfolio ledger", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/portfolios/1/trades", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var trades []types.Trade
		testutil.DecodeEnvelope(t, w, &trades)
		require.Len(t, trades, 2)
		assert.Equal(t, types.TradeTypeBuy, trades[0].Type)
		assert.Equal(t, types.TradeTypeSell, trades[1].Type)
	})
}

func TestQuantityEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := api.NewRouter(db, nil)
	portfolio := testutil.CreatePortfolio(t, db, "Portfolio 1")
	testutil.CreateShare(t, db, "TSL", "269.15", "Tesla Inc.")
	testutil.CreateTrade(t, db, types.TradeTypeSell, portfolio.ID, "TSL", 0, 4)

	t.Run("negative ledger reports zero", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/shares/TSL/quantity?portfolio_id=1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var out types.QuantityResponse
		testutil.DecodeEnvelope(t, w, &out)
		assert.Equal(t, "TSL", out.ShareSymbol)
		assert.Equal(t, int64(0), out.AvailableQuantity)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/shares/ZZZ/quantity?portfolio_id=1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing portfolio id", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/shares/TSL/quantity", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHoldingsEndpoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := api.NewRouter(db, nil)
	p1 := testutil.CreatePortfolio(t, db, "Portfolio 1")
	p2 := testutil.CreatePortfolio(t, db, "Portfolio 2")
	testutil.CreateShare(t, db, "APP", "150.50", "Apple Inc.")
	testutil.CreateShare(t, db, "GOG", "2500.75", "Alphabet Inc.")

	testutil.CreateTrade(t, db, types.TradeTypeBuy, p1.ID, "APP", 10, 0)
	testutil.CreateTrade(t, db, types.TradeTypeSell, p2.ID, "GOG", 0, 5)
	testutil.CreateTrade(t, db, types.TradeTypeBuy, p2.ID, "GOG", 6, 0)

	t.Run("grouped across portfolios", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/holdings", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var out types.HoldingsResponse
		testutil.DecodeEnvelope(t, w, &out)
		assert.Nil(t, out.PortfolioID)
		assert.ElementsMatch(t, []types.Holding{
			{ShareSymbol: "APP", NetQuantity: 10},
			{ShareSymbol: "GOG", NetQuantity: 1},
		}, out.Holdings)
	})

	t.Run("single portfolio", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/portfolios/2/holdings", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var out types.HoldingsResponse
		testutil.DecodeEnvelope(t, w, &out)
		require.NotNil(t, out.PortfolioID)
		assert.Equal(t, p2.ID, *out.PortfolioID)
		assert.Equal(t, []types.Holding{{ShareSymbol: "GOG", NetQuantity: 1}}, out.Holdings)
	})

	t.Run("unknown portfolio", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/portfolios/99/holdings", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non numeric portfolio", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodGet, "/api/v1/portfolios/abc/holdings", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthz(t *testing.T) {
	router := api.NewRouter(testutil.SetupTestDB(t), nil)

	w := testutil.PerformRequest(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
