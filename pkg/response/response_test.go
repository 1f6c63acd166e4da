package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/apperrors"
	"github.com/ksred/trade-ledger/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"unknown symbol", apperrors.ErrUnknownSymbol, http.StatusBadRequest, response.ErrCodeUnknownSymbol, "invalid symbol"},
		{"unknown portfolio", apperrors.ErrUnknownPortfolio, http.StatusBadRequest, response.ErrCodeUnknownPortfolio, "unregistered portfolio"},
		{"unknown client", apperrors.ErrUnknownClient, http.StatusBadRequest, response.ErrCodeUnknownClient, "unregistered client"},
		{"insufficient shares", apperrors.ErrInsufficientShares, http.StatusBadRequest, response.ErrCodeInsufficientShares, "insufficient stocks for selling"},
		{"validation", apperrors.Invalid("bad price"), http.StatusBadRequest, response.ErrCodeValidationFailed, "validation failed: bad price"},
		{"immutable ledger", apperrors.ErrLedgerImmutable, http.StatusBadRequest, response.ErrCodeLedgerImmutable, "trades are immutable once recorded"},
		{"duplicate", apperrors.ErrDuplicate, http.StatusConflict, response.ErrCodeDuplicateResource, "Resource already exists"},
		{"duplicate key", gorm.ErrDuplicatedKey, http.StatusConflict, response.ErrCodeDuplicateResource, "Resource already exists"},
		{"not found", fmt.Errorf("get share: %w", gorm.ErrRecordNotFound), http.StatusNotFound, response.ErrCodeNotFound, "Resource not found"},
		{"storage failure", apperrors.Storage("sum shares bought", errors.New("database is locked")), http.StatusInternalServerError, response.ErrCodeInternalError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			response.Handle(c, nil, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
			assert.NotContains(t, w.Body.String(), "database is locked")
		})
	}
}

func TestHandleSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	response.Handle(c, map[string]int{"available_quantity": 3}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"available_quantity":3}}`, w.Body.String())
}
