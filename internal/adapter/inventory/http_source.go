package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"spareparts-billing/internal/core/domain"
)

// HTTPSource fetches global inventory views from the inventory-of-record
// service. It is the slow path behind the Redis cache; callers should not
// hit it directly.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates an inventory-of-record client.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchGlobalInventory retrieves per-location stock for one part from the
// inventory of record.
func (s *HTTPSource) FetchGlobalInventory(ctx context.Context, partID string) (*domain.GlobalInventoryView, error) {
	endpoint := fmt.Sprintf("%s/api/v1/parts/%s/inventory", s.baseURL, url.PathEscape(partID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build inventory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory for part %s: %w", partID, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory source returned status %d for part %s", resp.StatusCode, partID)
	}

	view := &domain.GlobalInventoryView{}
	if err := json.NewDecoder(resp.Body).Decode(view); err != nil {
		return nil, fmt.Errorf("decode inventory response: %w", err)
	}
	if view.PartID == "" {
		view.PartID = partID
	}

	total := 0
	for _, loc := range view.Locations {
		total += loc.Available
	}
	view.TotalAvailable = total
	return view, nil
}
