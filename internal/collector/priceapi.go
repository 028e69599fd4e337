package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"PriceSentinel/internal/model"
)

const maxErrorBody = 512

// PriceAPIFetcher implements Fetcher against the remote price API
// (POST /get_price).
type PriceAPIFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewPriceAPIFetcher creates a fetcher with per-phase timeouts and optional proxy support.
func NewPriceAPIFetcher(baseURL string, timeouts Timeouts, proxyURL string) *PriceAPIFetcher {
	return &PriceAPIFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Transport: NewTransport(timeouts, proxyURL)},
	}
}

func (f *PriceAPIFetcher) Name() string { return "price-api" }

type priceRequest struct {
	URL string `json:"url"`
}

// priceResponse accepts the price either as a JSON string or a bare number.
type priceResponse struct {
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Currency string          `json:"currency"`
}

func (f *PriceAPIFetcher) FetchPrice(ctx context.Context, productURL string) (*model.Quote, error) {
	body, err := json.Marshal(priceRequest{URL: productURL})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/get_price", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", model.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: status %d, body: %s", model.ErrNetwork, resp.StatusCode, string(raw))
	}

	var pr priceResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("%w: decode price response: %w", model.ErrParse, err)
	}
	price, err := rawPrice(pr.Price)
	if err != nil {
		return nil, err
	}
	return &model.Quote{Name: pr.Name, Price: price, Currency: pr.Currency}, nil
}

func rawPrice(raw json.RawMessage) (string, error) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", fmt.Errorf("%w: response has no price", model.ErrParse)
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", fmt.Errorf("%w: decode price: %w", model.ErrParse, err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return "", fmt.Errorf("%w: price is neither string nor number: %s", model.ErrParse, string(v))
	}
	return n.String(), nil
}
