package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-ledger-service/internal/adapter/http/dto"
	"wallet-ledger-service/internal/adapter/http/middleware"
	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/internal/core/ports/mocks"
	"wallet-ledger-service/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJSONContext(t *testing.T, w *httptest.ResponseRecorder, method string, body any) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		c.Request = httptest.NewRequest(method, "/", bytes.NewReader(raw))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, "/", nil)
	}
	return c
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	userID := uuid.New()
	mockAuth.EXPECT().
		Register(gomock.Any(), "alice", "password123", "alice@example.com", "").
		Return(&domain.User{ID: userID, Username: "alice"}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.RegisterRequest{
		Username: "alice",
		Password: "password123",
		Email:    "alice@example.com",
	})

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, userID.String(), data["user_id"])
	assert.Equal(t, "alice", data["username"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	// Empty body => binding error
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_UsernameTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().
		Register(gomock.Any(), "taken", "password123", "", "").
		Return(nil, apperror.ErrUsernameExists())

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.RegisterRequest{
		Username: "taken",
		Password: "password123",
	})

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	userID := uuid.New()
	mockAuth.EXPECT().
		Login(gomock.Any(), "alice", "password123").
		Return("jwt-token-123", &domain.User{ID: userID, Username: "alice"}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.LoginRequest{
		Username: "alice",
		Password: "password123",
	})

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "jwt-token-123", data["token"])
	assert.Equal(t, userID.String(), data["user_id"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().
		Login(gomock.Any(), "bad", "bad-password").
		Return("", nil, apperror.ErrInvalidCredentials())

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.LoginRequest{
		Username: "bad",
		Password: "bad-password",
	})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Wallet Handler Tests ---

func TestGetWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	walletID := uuid.New()
	mockLedger.EXPECT().GetWallet(gomock.Any(), userID).Return(&domain.Wallet{
		ID:       walletID,
		UserID:   userID,
		Balance:  decimal.RequireFromString("50000.00"),
		Currency: "IRR",
	}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodGet, nil)
	c.Set(middleware.CtxUserID, userID)

	h.GetWallet(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, walletID.String(), data["id"])
	assert.Equal(t, "50000.00", data["balance"])
	assert.Equal(t, "IRR", data["currency"])
}

func TestGetWallet_MissingUserID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodGet, nil)

	h.GetWallet(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListTransactions_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	walletID := uuid.New()
	mockLedger.EXPECT().ListRecentTransactions(gomock.Any(), userID, 0).Return([]domain.Transaction{
		{
			ID:          uuid.New(),
			WalletID:    walletID,
			Type:        domain.TransactionTypeCharge,
			Amount:      decimal.RequireFromString("25000.00"),
			Description: "Gateway charge",
			CreatedAt:   time.Now(),
		},
		{
			ID:        uuid.New(),
			WalletID:  walletID,
			Type:      domain.TransactionTypeTransferOut,
			Amount:    decimal.RequireFromString("10000.00"),
			CreatedAt: time.Now().Add(-time.Minute),
		},
	}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodGet, nil)
	c.Set(middleware.CtxUserID, userID)

	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "CHARGE", first["transaction_type"])
	assert.Equal(t, "25000.00", first["amount"])
}

func TestCharge_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	amount := decimal.RequireFromString("25000.50")
	mockLedger.EXPECT().Charge(gomock.Any(), userID, amount, "manual top up").Return(&domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Balance:  decimal.RequireFromString("75000.50"),
		Currency: "IRR",
	}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.ChargeRequest{
		Amount:      "25000.50",
		Description: "manual top up",
	})
	c.Set(middleware.CtxUserID, userID)

	h.Charge(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "75000.50", data["balance"])
}

func TestCharge_MalformedAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.ChargeRequest{Amount: "not-a-number"})
	c.Set(middleware.CtxUserID, uuid.New())

	h.Charge(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransfer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	receiverID := uuid.New()
	amount := decimal.RequireFromString("10000.00")
	mockLedger.EXPECT().Transfer(gomock.Any(), userID, receiverID, amount).Return(&domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Balance:  decimal.RequireFromString("40000.00"),
		Currency: "IRR",
	}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.TransferRequest{
		ReceiverWalletID: receiverID.String(),
		Amount:           "10000.00",
	})
	c.Set(middleware.CtxUserID, userID)

	h.Transfer(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "40000.00", data["balance"])
}

func TestTransfer_InvalidReceiverID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.TransferRequest{
		ReceiverWalletID: "not-a-uuid",
		Amount:           "10000.00",
	})
	c.Set(middleware.CtxUserID, uuid.New())

	h.Transfer(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	receiverID := uuid.New()
	mockLedger.EXPECT().
		Transfer(gomock.Any(), userID, receiverID, gomock.Any()).
		Return(nil, apperror.ErrInsufficientFunds())

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.TransferRequest{
		ReceiverWalletID: receiverID.String(),
		Amount:           "999999.00",
	})
	c.Set(middleware.CtxUserID, userID)

	h.Transfer(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestSettle_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	amount := decimal.RequireFromString("30000.00")
	mockLedger.EXPECT().Settle(gomock.Any(), userID, amount, "payout").Return(&domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Balance:  decimal.RequireFromString("20000.00"),
		Currency: "IRR",
	}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.SettleRequest{
		Amount:      "30000.00",
		Description: "payout",
	})
	c.Set(middleware.CtxUserID, userID)

	h.Settle(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Payment Handler Tests ---

func TestInitiatePayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment)

	userID := uuid.New()
	paymentID := uuid.New()
	mockPayment.EXPECT().
		InitiatePayment(gomock.Any(), userID, int64(100000), "wallet top up").
		Return(&ports.PaymentInitiation{
			Payment: &domain.Payment{
				ID:        paymentID,
				Amount:    100000,
				Status:    domain.PaymentStatusPending,
				Authority: "A000123",
			},
			PaymentURL: "https://gateway.example/pg/StartPay/A000123",
		}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.PaymentInitiateRequest{
		Amount:      100000,
		Description: "wallet top up",
	})
	c.Set(middleware.CtxUserID, userID)

	h.InitiatePayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "https://gateway.example/pg/StartPay/A000123", data["payment_url"])
	payment := data["payment"].(map[string]interface{})
	assert.Equal(t, paymentID.String(), payment["id"])
	assert.Equal(t, "pending", payment["status"])
}

func TestInitiatePayment_NonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.PaymentInitiateRequest{Amount: -5})
	c.Set(middleware.CtxUserID, uuid.New())

	h.InitiatePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment)

	userID := uuid.New()
	refID := "310100000001"
	mockPayment.EXPECT().
		VerifyPayment(gomock.Any(), userID, "A000123", int64(100000)).
		Return(&ports.PaymentVerification{
			Payment: &domain.Payment{
				ID:        uuid.New(),
				Amount:    100000,
				Status:    domain.PaymentStatusSuccess,
				Authority: "A000123",
				RefID:     &refID,
			},
			RefID: refID,
		}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.PaymentVerifyRequest{
		Authority: "A000123",
		Amount:    100000,
	})
	c.Set(middleware.CtxUserID, userID)

	h.VerifyPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, refID, data["ref_id"])
	assert.Equal(t, false, data["already_verified"])
}

func TestVerifyPayment_UnknownAuthority(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment)

	userID := uuid.New()
	mockPayment.EXPECT().
		VerifyPayment(gomock.Any(), userID, "A-unknown", int64(100000)).
		Return(nil, apperror.ErrNotFound("payment"))

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.PaymentVerifyRequest{
		Authority: "A-unknown",
		Amount:    100000,
	})
	c.Set(middleware.CtxUserID, userID)

	h.VerifyPayment(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment)

	userID := uuid.New()
	mockPayment.EXPECT().
		CancelPayment(gomock.Any(), userID, "A000123").
		Return(&domain.Payment{
			ID:        uuid.New(),
			Amount:    100000,
			Status:    domain.PaymentStatusCanceled,
			Authority: "A000123",
		}, nil)

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, dto.PaymentCancelRequest{Authority: "A000123"})
	c.Set(middleware.CtxUserID, userID)

	h.CancelPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "canceled", data["status"])
}

// --- Health Check Tests ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(ctx context.Context) error { return s.err }
func (s stubChecker) Name() string                   { return s.name }

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(
		stubChecker{name: "postgresql"},
		stubChecker{name: "redis", err: errors.New("connection refused")},
	)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	redisDep := deps["redis"].(map[string]interface{})
	assert.Equal(t, "unhealthy", redisDep["status"])
}
