package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type HTTPOption func(*HTTPProvider)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		p.client = c
	}
}

func WithAPIKey(key string) HTTPOption {
	return func(p *HTTPProvider) {
		p.apiKey = key
	}
}

func NewHTTPProvider(baseURL string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *HTTPProvider) Name() string {
	return "http"
}

func (p *HTTPProvider) SearchAirports(ctx context.Context, term, lang string) ([]models.RawAirport, error) {
	params := url.Values{}
	params.Set("term", term)
	if lang != "" {
		params.Set("lang", lang)
	}

	var out []models.RawAirport
	if err := p.get(ctx, EndpointAirports, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *HTTPProvider) SearchFlights(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, error) {
	params := url.Values{}
	params.Set("from_iata", q.FromIATA)
	params.Set("to_iata", q.ToIATA)
	params.Set("date", q.Date)

	var out models.RawFlightResponse
	if err := p.get(ctx, EndpointFlights, params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (p *HTTPProvider) get(ctx context.Context, endpoint string, params url.Values, dst any) error {
	u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return NewProviderError(p.Name(), err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return NewProviderError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return NewProviderError(p.Name(), &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode})
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return NewProviderError(p.Name(), fmt.Errorf("decode %s response: %w", endpoint, err))
	}
	return nil
}
