package goldapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"goldtracker/internal/models"
)

// LatestPrices returns the current quote list. Public endpoint.
func (c *Client) LatestPrices(ctx context.Context) ([]models.GoldPrice, error) {
	raw, err := c.do(ctx, http.MethodGet, epPricesLatest, nil, nil, false)
	if err != nil {
		return nil, err
	}
	return decode[[]models.GoldPrice](raw, "latest prices")
}

// PriceHistory returns historical quotes. Public endpoint.
func (c *Client) PriceHistory(ctx context.Context) ([]models.GoldPrice, error) {
	raw, err := c.do(ctx, http.MethodGet, epPricesHistory, nil, nil, false)
	if err != nil {
		return nil, err
	}
	return decode[[]models.GoldPrice](raw, "price history")
}

// PricesByType returns quotes for one gold type. Public endpoint.
func (c *Client) PricesByType(ctx context.Context, goldType string) ([]models.GoldPrice, error) {
	endpoint := fmt.Sprintf(epPricesByType, url.PathEscape(goldType))
	raw, err := c.do(ctx, http.MethodGet, endpoint, nil, nil, false)
	if err != nil {
		return nil, err
	}
	return decode[[]models.GoldPrice](raw, "prices by type")
}
