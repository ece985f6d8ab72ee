package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"TokenBank/internal/model"
)

// HTTPGateway implements Gateway against a custody-bridge REST API.
type HTTPGateway struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPGateway creates a new custody-bridge gateway.
func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// transferRequest is the JSON body for both pull and push calls.
type transferRequest struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type transferResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func (g *HTTPGateway) Pull(ctx context.Context, token model.Asset, from string, amount *big.Int) error {
	return g.post(ctx, "/api/v1/pull", transferRequest{
		Asset: token.String(), Account: from, Amount: amount.String(),
	})
}

func (g *HTTPGateway) PushToken(ctx context.Context, token model.Asset, to string, amount *big.Int) error {
	return g.post(ctx, "/api/v1/push", transferRequest{
		Asset: token.String(), Account: to, Amount: amount.String(),
	})
}

func (g *HTTPGateway) PushNative(ctx context.Context, to string, amount *big.Int) error {
	return g.post(ctx, "/api/v1/push", transferRequest{
		Asset: model.Native.String(), Account: to, Amount: amount.String(),
	})
}

func (g *HTTPGateway) post(ctx context.Context, path string, reqBody transferRequest) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal transfer: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("custody %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("custody %s: status %d, body: %s", path, resp.StatusCode, string(raw))
	}
	var tr transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("custody %s: decode: %w", path, err)
	}
	if !tr.OK {
		return fmt.Errorf("custody %s: rejected: %s", path, tr.Reason)
	}
	return nil
}
