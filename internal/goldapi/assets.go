package goldapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"goldtracker/internal/errors"
	"goldtracker/internal/models"
)

// CreateAssetRequest carries a new purchase lot. Amount is in chi,
// BuyPrice in VND per chi.
type CreateAssetRequest struct {
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	BuyPrice float64 `json:"buyPrice"`
	Note     string  `json:"note"`
}

// Validate enforces the client-side invariants before the network call.
// The server remains the final arbiter.
func (r CreateAssetRequest) Validate() error {
	if r.Type == "" {
		return errors.Validation("a gold type is required")
	}
	if r.Amount <= 0 {
		return errors.Validation("the amount must be greater than zero")
	}
	if r.BuyPrice <= 0 {
		return errors.Validation("the purchase price must be greater than zero")
	}
	return nil
}

// UpdateAssetRequest carries a partial lot update. Nil fields are omitted.
type UpdateAssetRequest struct {
	Type      *string  `json:"type,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
	BuyPrice  *float64 `json:"buyPrice,omitempty"`
	SellPrice *float64 `json:"sellPrice,omitempty"`
	IsSold    *bool    `json:"isSold,omitempty"`
	SellDate  *string  `json:"sellDate,omitempty"`
	Note      *string  `json:"note,omitempty"`
}

// Validate rejects non-positive values on the fields that carry them.
func (r UpdateAssetRequest) Validate() error {
	if r.Amount != nil && *r.Amount <= 0 {
		return errors.Validation("the amount must be greater than zero")
	}
	if r.BuyPrice != nil && *r.BuyPrice <= 0 {
		return errors.Validation("the purchase price must be greater than zero")
	}
	if r.SellPrice != nil && *r.SellPrice <= 0 {
		return errors.Validation("the sale price must be greater than zero")
	}
	return nil
}

// ListAssets returns the user's purchase lots. Requires the bearer token.
func (c *Client) ListAssets(ctx context.Context) ([]models.Asset, error) {
	raw, err := c.do(ctx, http.MethodGet, epAssets, nil, nil, true)
	if err != nil {
		return nil, err
	}
	return decode[[]models.Asset](raw, "assets")
}

// CreateAsset records a new lot.
func (c *Client) CreateAsset(ctx context.Context, req CreateAssetRequest) (*models.Asset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	raw, err := c.do(ctx, http.MethodPost, epAssets, nil, req, true)
	if err != nil {
		return nil, err
	}
	asset, err := decode[models.Asset](raw, "created asset")
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateAsset mutates an existing lot.
func (c *Client) UpdateAsset(ctx context.Context, id string, req UpdateAssetRequest) (*models.Asset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf(epAsset, url.PathEscape(id))
	raw, err := c.do(ctx, http.MethodPut, endpoint, nil, req, true)
	if err != nil {
		return nil, err
	}
	asset, err := decode[models.Asset](raw, "updated asset")
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// DeleteAsset removes a lot.
func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf(epAsset, url.PathEscape(id))
	_, err := c.do(ctx, http.MethodDelete, endpoint, nil, nil, true)
	return err
}
