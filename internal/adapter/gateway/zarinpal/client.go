// Package zarinpal implements ports.GatewayClient against the Zarinpal
// payment gateway REST API (v4).
package zarinpal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"wallet-ledger-service/config"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Zarinpal payment gateway.
type Client struct {
	merchantID  string
	requestURL  string
	verifyURL   string
	startPayURL string
	callbackURL string
	httpClient  HTTPClient
	log         zerolog.Logger
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg config.GatewayConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		merchantID:  cfg.MerchantID,
		requestURL:  cfg.RequestURL,
		verifyURL:   cfg.VerifyURL,
		startPayURL: cfg.StartPayURL,
		callbackURL: cfg.CallbackURL,
		httpClient:  httpClient,
		log:         log,
	}
}

// Gateway result codes: 100 means verified, 101 means verified on an
// earlier call for the same authority.
const (
	codeOK              = 100
	codeAlreadyVerified = 101
)

type requestPayload struct {
	MerchantID  string          `json:"merchant_id"`
	Amount      int64           `json:"amount"`
	CallbackURL string          `json:"callback_url"`
	Description string          `json:"description"`
	Metadata    requestMetadata `json:"metadata"`
}

type requestMetadata struct {
	Email  string `json:"email,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

type verifyPayload struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

// The gateway reuses the data field: an object on success, an empty
// array on error with the detail under errors. Both fields stay raw
// until the shape is known.
type gatewayResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type responseData struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Authority string          `json:"authority"`
	RefID     json.RawMessage `json:"ref_id"`
	CardPan   string          `json:"card_pan"`
}

// RequestPayment registers a payment and returns the authority plus the
// redirect URL the payer must visit.
func (c *Client) RequestPayment(ctx context.Context, req ports.GatewayRequest) (*ports.GatewayRequestResult, error) {
	payload := requestPayload{
		MerchantID:  c.merchantID,
		Amount:      req.Amount,
		CallbackURL: c.callbackURL,
		Description: req.Description,
		Metadata: requestMetadata{
			Email:  req.Email,
			Mobile: req.Mobile,
		},
	}

	data, err := c.post(ctx, c.requestURL, payload)
	if err != nil {
		return nil, err
	}
	if data.Code != codeOK {
		return nil, apperror.ErrGatewayRejected(fmt.Sprintf("code %d: %s", data.Code, data.Message))
	}
	if data.Authority == "" {
		return nil, apperror.ErrGatewayRejected("missing authority in response")
	}

	c.log.Debug().
		Str("authority", data.Authority).
		Int64("amount", req.Amount).
		Msg("gateway payment registered")

	return &ports.GatewayRequestResult{
		Authority:  data.Authority,
		PaymentURL: c.startPayURL + data.Authority,
	}, nil
}

// VerifyPayment confirms a payment with the gateway. Codes 100 and 101
// both count as verified; 101 means the gateway saw this authority
// verified before.
func (c *Client) VerifyPayment(ctx context.Context, authority string, amount int64) (*ports.GatewayVerifyResult, error) {
	payload := verifyPayload{
		MerchantID: c.merchantID,
		Amount:     amount,
		Authority:  authority,
	}

	data, err := c.post(ctx, c.verifyURL, payload)
	if err != nil {
		return nil, err
	}
	if data.Code != codeOK && data.Code != codeAlreadyVerified {
		return nil, apperror.ErrGatewayRejected(fmt.Sprintf("code %d: %s", data.Code, data.Message))
	}

	// ref_id arrives as a JSON number; keep it as the string the
	// gateway printed.
	refID := string(bytes.Trim(data.RefID, `"`))
	if refID == "null" {
		refID = ""
	}

	c.log.Debug().
		Str("authority", authority).
		Str("ref_id", refID).
		Int("code", data.Code).
		Msg("gateway payment verified")

	return &ports.GatewayVerifyResult{
		RefID:   refID,
		CardPan: data.CardPan,
		Code:    data.Code,
	}, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) (*responseData, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal gateway payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build gateway request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("gateway returned %d", resp.StatusCode))
	}

	var parsed gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("decode gateway response: %w", err))
	}

	var data responseData
	if len(parsed.Data) > 0 && parsed.Data[0] == '{' {
		if err := json.Unmarshal(parsed.Data, &data); err != nil {
			return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("decode gateway data: %w", err))
		}
		return &data, nil
	}

	// Error envelope with no data section.
	if len(parsed.Errors) > 0 && string(parsed.Errors) != "[]" {
		var gwErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(parsed.Errors, &gwErr); err == nil && gwErr.Code != 0 {
			return nil, apperror.ErrGatewayRejected(fmt.Sprintf("code %d: %s", gwErr.Code, gwErr.Message))
		}
		return nil, apperror.ErrGatewayRejected(string(parsed.Errors))
	}

	return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("empty gateway response"))
}
