// internal/carrier/client.go
//
// HTTP implementation of Backend. One POST per operation, JSON both ways,
// authenticated with the X-API-TOKEN header. The client timeout bounds every
// call so a dead backend surfaces as a classified error instead of a hung
// dialog.

package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fruttersoft/shipdeck/internal/allocation"
	"github.com/fruttersoft/shipdeck/internal/document"
	"github.com/fruttersoft/shipdeck/internal/workflow"
)

const (
	servicesPath  = "/api/v2/services"
	createPath    = "/api/v1/create-shipments"
	ruleBasedPath = "/api/v1/create-shipments/rule-based"
	cancelPath    = "/api/v1/cancel"
	trackingsPath = "/api/v2/trackings"

	// DefaultTimeout bounds each backend call when the config gives none.
	DefaultTimeout = 30 * time.Second
)

// HTTPBackend talks to the carrier API over HTTP.
type HTTPBackend struct {
	base  string
	token string
	http  *http.Client
}

// NewHTTPBackend creates a client for the given base URL and API token.
// A zero timeout falls back to DefaultTimeout.
func NewHTTPBackend(base, token string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPBackend{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

// FetchServices implements Backend.
func (b *HTTPBackend) FetchServices(ctx context.Context, doc *document.Shipment) ([]Service, error) {
	var resp struct {
		Data struct {
			Rates []Service `json:"rates"`
		} `json:"data"`
	}
	if err := b.post(ctx, servicesPath, buildServicesRequest(doc), &resp); err != nil {
		return nil, workflow.FetchFailed("service catalog", err)
	}
	return resp.Data.Rates, nil
}

// creationResponse is the envelope both creation endpoints return.
type creationResponse struct {
	Data struct {
		Files *struct {
			Label struct {
				LabelMeta struct {
					URL string `json:"url"`
					AWB string `json:"awb"`
				} `json:"label_meta"`
			} `json:"label"`
		} `json:"files"`
		Slug        string `json:"slug"`
		Status      string `json:"status"`
		ServiceType string `json:"service_type"`
		OrderID     string `json:"order_id"`
	} `json:"data"`
}

func (r creationResponse) result() (CreationResult, error) {
	if r.Data.Files == nil {
		return CreationResult{}, fmt.Errorf("no label in response")
	}
	meta := r.Data.Files.Label.LabelMeta
	return CreationResult{
		LabelURL:        meta.URL,
		AWBNumber:       meta.AWB,
		ServiceProvider: r.Data.Slug,
		ServiceType:     r.Data.ServiceType,
		TrackingStatus:  r.Data.Status,
		ShipmentID:      r.Data.OrderID,
	}, nil
}

// CreateShipment implements Backend.
func (b *HTTPBackend) CreateShipment(ctx context.Context, doc *document.Shipment, offering ServiceOffering, part allocation.Partition) (CreationResult, error) {
	var resp creationResponse
	if err := b.post(ctx, createPath, buildCreateRequest(doc, &offering, part), &resp); err != nil {
		return CreationResult{}, workflow.CreationFailed("create shipment", err)
	}
	result, err := resp.result()
	if err != nil {
		return CreationResult{}, workflow.CreationFailed("create shipment", err)
	}
	return result, nil
}

// CreateRuleBased implements Backend.
func (b *HTTPBackend) CreateRuleBased(ctx context.Context, doc *document.Shipment, part allocation.Partition) (CreationResult, error) {
	var resp creationResponse
	if err := b.post(ctx, ruleBasedPath, buildCreateRequest(doc, nil, part), &resp); err != nil {
		return CreationResult{}, workflow.CreationFailed("create rule-based shipment", err)
	}
	result, err := resp.result()
	if err != nil {
		return CreationResult{}, workflow.CreationFailed("create rule-based shipment", err)
	}
	return result, nil
}

// Cancel implements Backend.
func (b *HTTPBackend) Cancel(ctx context.Context, shipmentID string) error {
	req := struct {
		OrderID []string `json:"order_id"`
	}{OrderID: []string{shipmentID}}
	if err := b.post(ctx, cancelPath, req, nil); err != nil {
		return workflow.CreationFailed("cancel shipment", err)
	}
	return nil
}

// Track implements Backend.
func (b *HTTPBackend) Track(ctx context.Context, awbNumber string) (TrackingResult, error) {
	req := struct {
		TrackID string `json:"track_id"`
	}{TrackID: awbNumber}
	var resp []TrackingResult
	if err := b.post(ctx, trackingsPath, req, &resp); err != nil {
		return TrackingResult{}, workflow.FetchFailed("tracking", err)
	}
	if len(resp) == 0 {
		return TrackingResult{}, workflow.FetchFailed("tracking", fmt.Errorf("empty response"))
	}
	return resp[0], nil
}

func (b *HTTPBackend) post(ctx context.Context, path string, in, out any) error {
	body := new(bytes.Buffer)
	if err := json.NewEncoder(body).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-TOKEN", b.token)
	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("post %s: %s: %s", path, resp.Status, strings.TrimSpace(string(text)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ Backend = (*HTTPBackend)(nil)
