package registry_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/apperrors"
	"github.com/ksred/trade-ledger/internal/registry"
	"github.com/ksred/trade-ledger/internal/testutil"
	"github.com/ksred/trade-ledger/internal/types"
	"github.com/ksred/trade-ledger/pkg/response"
)

func TestCreateClient(t *testing.T) {
	ctx := context.Background()
	svc := registry.NewService(testutil.SetupTestDB(t))

	client, err := svc.CreateClient(ctx, "Client 1", "client1@example.com")
	require.NoError(t, err)
	assert.NotZero(t, client.ID)

	_, err = svc.CreateClient(ctx, "Someone else", "client1@example.com")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = svc.CreateClient(ctx, "Client 2", "not-an-email")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	found, err := svc.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Client 1", found.Name)

	_, err = svc.GetClient(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreatePortfolio(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := registry.NewService(db)
	client := testutil.CreateClient(t, db, "Client 1", "client1@example.com")

	_, err := svc.CreatePortfolio(ctx, "Orphan", 99)
	assert.ErrorIs(t, err, apperrors.ErrUnknownClient)

	portfolio, err := svc.CreatePortfolio(ctx, "Portfolio 1", client.ID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, portfolio.ClientID)

	_, err = svc.CreatePortfolio(ctx, "Portfolio 2", client.ID)
	require.NoError(t, err)

	portfolios, err := svc.ClientPortfolios(ctx, client.ID)
	require.NoError(t, err)
	assert.Len(t, portfolios, 2)

	_, err = svc.ClientPortfolios(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestShares(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := registry.NewService(db)

	share, err := svc.CreateShare(ctx, "APP", decimal.RequireFromString("150.50"), "Apple Inc.")
	require.NoError(t, err)
	assert.Equal(t, "APP", share.Symbol)

	_, err = svc.CreateShare(ctx, "APP", decimal.RequireFromString("1.00"), "Another Apple")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = svc.CreateShare(ctx, "apl", decimal.RequireFromString("1.00"), "Lowercase")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	t.Run("price update keeps recorded trade prices", func(t *testing.T) {
		portfolio := testutil.CreatePortfolio(t, db, "Portfolio 1")
		trade := testutil.CreateTrade(t, db, types.TradeTypeBuy, portfolio.ID, "APP", 1, 0)

		updated, err := svc.UpdateSharePrice(ctx, "APP", decimal.RequireFromString("175.25"))
		require.NoError(t, err)
		assert.True(t, updated.Price.Equal(decimal.RequireFromString("175.25")))

		var stored types.Trade
		require.NoError(t, db.First(&stored, trade.ID).Error)
		assert.True(t, stored.Price.Equal(trade.Price))
	})

	t.Run("invalid price", func(t *testing.T) {
		_, err := svc.UpdateSharePrice(ctx, "APP", decimal.RequireFromString("-1"))
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		share, err := svc.GetShare(ctx, "APP")
		require.NoError(t, err)
		assert.True(t, share.Price.Equal(decimal.RequireFromString("175.25")))
	})

	t.Run("unknown share", func(t *testing.T) {
		_, err := svc.UpdateSharePrice(ctx, "ZZZ", decimal.RequireFromString("1"))
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	shares, err := svc.ListShares(ctx)
	require.NoError(t, err)
	assert.Len(t, shares, 1)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()

	h := registry.NewGinHandlers(registry.NewService(testutil.SetupTestDB(t)))
	router := gin.New()
	router.POST("/clients", h.CreateClientHandler())
	router.GET("/clients/:client_id", h.GetClientHandler())
	router.GET("/clients/:client_id/portfolios", h.ClientPortfoliosHandler())
	router.POST("/portfolios", h.CreatePortfolioHandler())
	router.GET("/portfolios/:portfolio_id", h.GetPortfolioHandler())
	router.POST("/shares", h.CreateShareHandler())
	router.GET("/shares", h.ListSharesHandler())
	router.GET("/shares/:symbol", h.GetShareHandler())
	router.PUT("/shares/:symbol/price", h.UpdateSharePriceHandler())
	return router
}

func TestRegistryHandlers(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{"create client", http.MethodPost, "/clients", types.CreateClientRequest{Name: "Client 1", Email: "client1@example.com"}, http.StatusCreated, ""},
		{"duplicate client", http.MethodPost, "/clients", types.CreateClientRequest{Name: "Client 1", Email: "client1@example.com"}, http.StatusConflict, response.ErrCodeDuplicateResource},
		{"invalid email", http.MethodPost, "/clients", map[string]string{"name": "Client 2", "email": "nope"}, http.StatusBadRequest, response.ErrCodeBadRequest},
		{"get client", http.MethodGet, "/clients/1", nil, http.StatusOK, ""},
		{"missing client", http.MethodGet, "/clients/99", nil, http.StatusNotFound, response.ErrCodeNotFound},
		{"bad client id", http.MethodGet, "/clients/abc", nil, http.StatusBadRequest, response.ErrCodeBadRequest},
		{"create portfolio", http.MethodPost, "/portfolios", types.CreatePortfolioRequest{Name: "Portfolio 1", ClientID: 1}, http.StatusCreated, ""},
		{"portfolio for unknown client", http.MethodPost, "/portfolios", types.CreatePortfolioRequest{Name: "Orphan", ClientID: 99}, http.StatusBadRequest, response.ErrCodeUnknownClient},
		{"get portfolio", http.MethodGet, "/portfolios/1", nil, http.StatusOK, ""},
		{"client portfolios", http.MethodGet, "/clients/1/portfolios", nil, http.StatusOK, ""},
		{"create share", http.MethodPost, "/shares", map[string]string{"symbol": "APP", "price": "150.50", "company_name": "Apple Inc."}, http.StatusCreated, ""},
		{"lowercase share", http.MethodPost, "/shares", map[string]string{"symbol": "apl", "price": "1.00", "company_name": "Lower"}, http.StatusBadRequest, response.ErrCodeValidationFailed},
		{"duplicate share", http.MethodPost, "/shares", map[string]string{"symbol": "APP", "price": "1.00", "company_name": "Again"}, http.StatusConflict, response.ErrCodeDuplicateResource},
		{"list shares", http.MethodGet, "/shares", nil, http.StatusOK, ""},
		{"get share", http.MethodGet, "/shares/APP", nil, http.StatusOK, ""},
		{"missing share", http.MethodGet, "/shares/ZZZ", nil, http.StatusNotFound, response.ErrCodeNotFound},
		{"update price", http.MethodPut, "/shares/APP/price", map[string]string{"price": "175.25"}, http.StatusOK, ""},
		{"three decimal price", http.MethodPut, "/shares/APP/price", map[string]string{"price": "1.005"}, http.StatusBadRequest, response.ErrCodeValidationFailed},
	}

	// Cases run in order; later ones depend on resources created earlier.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.PerformRequest(t, router, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			env := testutil.DecodeEnvelope(t, w, nil)
			if tt.wantErr == "" {
				assert.True(t, env.Success)
				return
			}
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}

func TestUpdatePriceHandlerResult(t *testing.T) {
	router := newRouter(t)

	w := testutil.PerformRequest(t, router, http.MethodPost, "/shares",
		map[string]string{"symbol": "IBM", "price": "210.45", "company_name": "IBM Inc."})
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutil.PerformRequest(t, router, http.MethodPut, "/shares/IBM/price", map[string]string{"price": "199.99"})
	require.Equal(t, http.StatusOK, w.Code)

	var share types.Share
	testutil.DecodeEnvelope(t, w, &share)
	assert.Equal(t, "IBM", share.Symbol)
	assert.True(t, share.Price.Equal(decimal.RequireFromString("199.99")))
}
