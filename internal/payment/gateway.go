package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// GatewayStatusPaid is the gateway-side status of a completed payment.
const GatewayStatusPaid = "PAID"

// Record is the gateway's authoritative view of a payment. Gateway responses
// are untrusted input; the intake service validates every field it uses.
type Record struct {
	ID        string
	Status    string
	Total     int64
	OrderName string
}

// Gateway represents a connector to the external payment processor.
type Gateway interface {
	Lookup(ctx context.Context, paymentID string) (Record, error)
}

// PortOneGateway queries the PortOne REST API for payment records.
type PortOneGateway struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewPortOneGateway builds a gateway client. baseURL defaults to the public
// PortOne API endpoint when empty.
func NewPortOneGateway(baseURL, secret string) *PortOneGateway {
	if baseURL == "" {
		baseURL = "https://api.portone.io"
	}
	return &PortOneGateway{
		baseURL: baseURL,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type gatewayResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount struct {
		Total *int64 `json:"total"`
	} `json:"amount"`
	OrderName string `json:"orderName"`
}

// Lookup fetches the payment record identified by paymentID.
func (g *PortOneGateway) Lookup(ctx context.Context, paymentID string) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return Record{}, err
	}
	req.Header.Set("Authorization", "PortOne "+g.secret)

	resp, err := g.client.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Record{}, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var body gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Record{}, fmt.Errorf("decode gateway response: %w", err)
	}
	if body.Amount.Total == nil {
		return Record{}, fmt.Errorf("gateway response missing amount total")
	}

	return Record{
		ID:        body.ID,
		Status:    body.Status,
		Total:     *body.Amount.Total,
		OrderName: body.OrderName,
	}, nil
}

// StaticGateway serves pre-registered records without network I/O. Useful for
// development mode and tests.
type StaticGateway struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewStaticGateway builds an empty static gateway.
func NewStaticGateway() *StaticGateway {
	return &StaticGateway{records: make(map[string]Record)}
}

// Approve registers a PAID record for the payment identifier.
func (g *StaticGateway) Approve(paymentID string, total int64, orderName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records[paymentID] = Record{ID: paymentID, Status: GatewayStatusPaid, Total: total, OrderName: orderName}
}

// Lookup returns the registered record or an error for unknown payments.
func (g *StaticGateway) Lookup(_ context.Context, paymentID string) (Record, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.records[paymentID]
	if !ok {
		return Record{}, fmt.Errorf("payment %s not known to gateway", paymentID)
	}
	return rec, nil
}
