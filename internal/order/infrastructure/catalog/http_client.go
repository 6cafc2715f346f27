package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/dmehra2102/shopnow/internal/order/application"
	"github.com/dmehra2102/shopnow/internal/order/domain"
)

// HTTPClient resolves products through the catalog's REST read endpoint.
type HTTPClient struct {
	log     *slog.Logger
	baseURL string
	client  *http.Client
}

func NewHTTPClient(log *slog.Logger, baseURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPClient{log: log, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type productBody struct {
	SKUCode string          `json:"skuCode"`
	Price   json.RawMessage `json:"price"`
}

func (c *HTTPClient) Resolve(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	if strings.TrimSpace(productID) == "" {
		return domain.ProductSnapshot{}, fmt.Errorf("%w: empty product id", application.ErrProductNotFound)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products/"+url.PathEscape(productID), nil)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %w", application.ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	// Line items must copy committed catalog state, not a cached product.
	req.Header.Set("Cache-Control", "no-cache")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %w", application.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %s", application.ErrProductNotFound, productID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.ProductSnapshot{}, fmt.Errorf("%w: catalog returned %d", application.ErrCatalogUnavailable, resp.StatusCode)
	}

	var body productBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.WarnContext(ctx, "malformed catalog response", "product_id", productID, "err", err)
		return domain.ProductSnapshot{}, fmt.Errorf("%w: decode product: %w", application.ErrCatalogUnavailable, err)
	}
	// The price is either a quoted decimal or a bare JSON number.
	return toSnapshot(productID, body.SKUCode, strings.Trim(string(body.Price), `"`))
}
