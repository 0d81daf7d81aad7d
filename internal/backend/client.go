package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/entity"
)

// ErrBackendUnavailable marks a failed read against the backend of record.
// Callers treat it as "no data yet", not as a fatal error.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrItemNotFound marks a catalog lookup miss.
var ErrItemNotFound = errors.New("item not found in catalog")

// Client talks to the POS backend of record over its REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new instance of Client.
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, httpClient: http.DefaultClient}
}

// FetchLoadRows fetches the raw route-load rows for a vendor and date.
func (c *Client) FetchLoadRows(ctx context.Context, key entity.DraftKey) ([]entity.LoadRow, error) {
	reqURL := fmt.Sprintf("%s/api/cargues?vendor_id=%s&date=%s&kind=%s",
		c.baseURL, url.QueryEscape(key.VendorID), url.QueryEscape(key.Date), url.QueryEscape(key.Kind))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var rows []entity.LoadRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: decoding rows: %v", ErrBackendUnavailable, err)
	}

	return rows, nil
}

// ResolveItem resolves an item name to its canonical catalog id. The backend
// matches names case-insensitively.
func (c *Client) ResolveItem(ctx context.Context, name string) (string, error) {
	reqURL := fmt.Sprintf("%s/api/products/lookup?name=%s", c.baseURL, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return "", fmt.Errorf("%w: decoding product: %v", ErrBackendUnavailable, err)
	}

	return product.ID, nil
}

// WriteCorrection replaces one item's ordered quantity on the backend of
// record. The backend supports no partial-field update, only a full replace
// of that item's quantity.
func (c *Client) WriteCorrection(ctx context.Context, key entity.DraftKey, itemName string, quantity int) error {
	payload, err := json.Marshal(map[string]interface{}{
		"vendor_id":        key.VendorID,
		"date":             key.Date,
		"item_name":        itemName,
		"quantity_ordered": quantity,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/cargues/quantity", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("correction rejected for %q: status %d", itemName, resp.StatusCode)
	}

	return nil
}
