// Package authority is the typed gateway to the remote catalog and ledger
// service that owns seat occupancy.  It performs transport and decoding
// only; all business rules live in the service package.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client is the set of calls the engine makes against the authority.
type Client interface {
	FetchCatalog(ctx context.Context) ([]RemoteEvent, error)
	FetchSeatSnapshot(ctx context.Context, remoteID int64) ([]RemoteSeat, error)
	FetchSparseSeatState(ctx context.Context, remoteID int64) ([]RemoteSeatState, error)
	SubmitHold(ctx context.Context, remoteID int64, seats []Position) (*HoldAck, error)
	SubmitSale(ctx context.Context, req SaleRequest) (*SaleResponse, error)
}

// Config holds the connection settings for the HTTP client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// DefaultTimeout bounds every authority call when Config.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("authority: %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	base  string
	token string
	http  *http.Client
	log   logrus.FieldLogger
}

// NewHTTPClient builds a client for cfg.  A zero timeout becomes
// DefaultTimeout; there is no way to disable it.
func NewHTTPClient(cfg Config, log logrus.FieldLogger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
		http:  &http.Client{Timeout: timeout},
		log:   log,
	}
}

func (c *HTTPClient) FetchCatalog(ctx context.Context) ([]RemoteEvent, error) {
	body, err := c.do(ctx, http.MethodGet, "/eventos", nil)
	if err != nil {
		return nil, err
	}
	var events []RemoteEvent
	if _, err := decodeObject(body, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *HTTPClient) FetchSeatSnapshot(ctx context.Context, remoteID int64) ([]RemoteSeat, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/eventos/%d/asientos", remoteID), nil)
	if err != nil {
		return nil, err
	}
	return decodeSeatList(body)
}

func (c *HTTPClient) FetchSparseSeatState(ctx context.Context, remoteID int64) ([]RemoteSeatState, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/eventos/%d/estado-asientos", remoteID), nil)
	if err != nil {
		return nil, err
	}
	return decodeSeatList(body)
}

// SubmitHold registers a hold for seats.  A nil ack with a nil error means
// the authority answered with an empty body.
func (c *HTTPClient) SubmitHold(ctx context.Context, remoteID int64, seats []Position) (*HoldAck, error) {
	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/eventos/%d/bloqueos", remoteID),
		holdRequest{EventID: remoteID, Seats: seats})
	if err != nil {
		return nil, err
	}
	var ack HoldAck
	found, err := decodeObject(body, &ack)
	if err != nil || !found {
		return nil, err
	}
	return &ack, nil
}

// SubmitSale asks the authority to confirm a sale.  A nil response with a
// nil error means the authority answered with an empty body.
func (c *HTTPClient) SubmitSale(ctx context.Context, req SaleRequest) (*SaleResponse, error) {
	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/eventos/%d/venta", req.EventID), req)
	if err != nil {
		return nil, err
	}
	var resp SaleResponse
	found, err := decodeObject(body, &resp)
	if err != nil || !found {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var rdr io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("authority: encode %s: %w", path, err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("authority: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{"method": method, "path": path}).WithError(err).Warn("authority call failed")
		return nil, fmt.Errorf("authority: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("authority: read %s %s: %w", method, path, err)
	}
	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  res.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("authority call")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{Method: method, Path: path, Code: res.StatusCode, Body: snippet}
	}
	return body, nil
}
