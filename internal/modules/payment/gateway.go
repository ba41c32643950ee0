package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"coworking/internal/config"

	"github.com/google/uuid"
)

type RefundCommand struct {
	TransactionID string
	Amount        float64
	Currency      string
	IPAddress     string
	ActorID       int64
	Memo          string
}

type RefundResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// Client calls the payment gateway refund API.
type Client struct {
	baseURL    string
	signer     *Signer
	merchant   string
	httpClient *http.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		signer:     NewSigner(cfg.Merchant, cfg.Secret),
		merchant:   cfg.Merchant,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type refundRequest struct {
	Merchant      string `json:"merchant"`
	Token         string `json:"token"`
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	IPAddress     string `json:"ipAddress,omitempty"`
	ActorID       int64  `json:"actorId,omitempty"`
	Memo          string `json:"memo,omitempty"`
}

type refundResponse struct {
	Success  bool   `json:"success"`
	RefundID string `json:"refundId"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// ExecuteRefund refunds amount (major units) of the original transaction.
// A gateway decline is a result with Success false, not an error.
func (c *Client) ExecuteRefund(ctx context.Context, cmd RefundCommand) (*RefundResult, error) {
	minor := toMinorUnits(cmd.Amount)
	token := c.signer.Token(map[string]string{
		"Amount":        strconv.FormatInt(minor, 10),
		"Currency":      cmd.Currency,
		"TransactionId": cmd.TransactionID,
	})

	body, err := json.Marshal(refundRequest{
		Merchant:      c.merchant,
		Token:         token,
		TransactionID: cmd.TransactionID,
		Amount:        minor,
		Currency:      cmd.Currency,
		IPAddress:     cmd.IPAddress,
		ActorID:       cmd.ActorID,
		Memo:          cmd.Memo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/refunds", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute refund: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result refundResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Message == "" && !result.Success {
		result.Message = fmt.Sprintf("refund declined with status %q (http %d)", result.Status, resp.StatusCode)
	}
	return &RefundResult{Success: result.Success, TransactionID: result.RefundID, Message: result.Message}, nil
}

// Sandbox approves every refund. Used when no gateway is configured.
type Sandbox struct{}

func (Sandbox) ExecuteRefund(_ context.Context, cmd RefundCommand) (*RefundResult, error) {
	if cmd.TransactionID == "" {
		return &RefundResult{Success: false, Message: "missing transaction id"}, nil
	}
	return &RefundResult{Success: true, TransactionID: "SBX-" + uuid.NewString(), Message: "sandbox refund"}, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
