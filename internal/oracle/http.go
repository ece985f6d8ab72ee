package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"
)

// HTTPSource implements Source against a price-feed REST API.
type HTTPSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPSource creates a new HTTP price source.
func NewHTTPSource(baseURL, apiKey string) *HTTPSource {
	return &HTTPSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSource) Name() string { return "http" }

// feedQuote is the expected JSON shape from the price feed.
type feedQuote struct {
	Price     string `json:"price"`
	Precision uint32 `json:"precision"`
}

// CurrentPrice fetches the latest native-asset price. Any upstream problem,
// including a non-positive price, surfaces as ErrPriceUnavailable.
func (s *HTTPSource) CurrentPrice(ctx context.Context) (Quote, error) {
	endpoint := fmt.Sprintf("%s/api/v1/price", s.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: build request: %w", ErrPriceUnavailable, err)
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: fetch: %w", ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: status %d", ErrPriceUnavailable, resp.StatusCode)
	}
	var fq feedQuote
	if err := json.NewDecoder(resp.Body).Decode(&fq); err != nil {
		return Quote{}, fmt.Errorf("%w: decode: %w", ErrPriceUnavailable, err)
	}
	price, ok := new(big.Int).SetString(fq.Price, 10)
	if !ok {
		return Quote{}, fmt.Errorf("%w: malformed price %q", ErrPriceUnavailable, fq.Price)
	}
	if price.Sign() <= 0 {
		return Quote{}, fmt.Errorf("%w: non-positive price %s", ErrPriceUnavailable, price)
	}
	return Quote{Price: price, Precision: fq.Precision}, nil
}
