// Package httpsign implements datapackage.Signer over HTTP: it POSTs the
// datapackage hash to an authsign-style endpoint and decodes the signed
// response.
package httpsign

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/waczpack/waczpack/pkg/datapackage"
)

// DefaultTimeout is the deadline applied to a signing call when the
// caller does not configure one.
const DefaultTimeout = 30 * time.Second

// ErrSignerTimeout is returned when the signing call exceeds its deadline.
var ErrSignerTimeout = errors.New("signer timed out")

// ErrSigningFailed is returned for any other transport or decoding error.
var ErrSigningFailed = errors.New("signing failed")

type signRequest struct {
	Hash    string `json:"hash"`
	Created string `json:"created"`
}

// Client implements datapackage.Signer by POSTing to a configured
// authsign-style endpoint. A breaker in front of the endpoint makes a
// flaky signing service fail fast instead of stalling every run.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	breaker  *breaker
}

// New returns a Client that POSTs to endpoint. timeout defaults to
// DefaultTimeout when zero or negative.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     &http.Client{},
		breaker:  newBreaker(),
	}
}

var _ datapackage.Signer = (*Client)(nil)

// Sign implements datapackage.Signer.
func (c *Client) Sign(ctx context.Context, hash, created string) (datapackage.SignedData, error) {
	if !c.breaker.allow() {
		return datapackage.SignedData{}, fmt.Errorf("%w: circuit open for %s", ErrSigningFailed, c.endpoint)
	}

	sd, err := c.sign(ctx, hash, created)
	c.breaker.record(err)

	if err != nil {
		return datapackage.SignedData{}, err
	}

	return sd, nil
}

func (c *Client) sign(ctx context.Context, hash, created string) (datapackage.SignedData, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(signRequest{Hash: hash, Created: created})
	if err != nil {
		return datapackage.SignedData{}, fmt.Errorf("%w: marshaling request: %v", ErrSigningFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return datapackage.SignedData{}, fmt.Errorf("%w: building request: %v", ErrSigningFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return datapackage.SignedData{}, ErrSignerTimeout
		}

		return datapackage.SignedData{}, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return datapackage.SignedData{}, fmt.Errorf("%w: unexpected status %d", ErrSigningFailed, resp.StatusCode)
	}

	var sd datapackage.SignedData
	if err := json.NewDecoder(resp.Body).Decode(&sd); err != nil {
		return datapackage.SignedData{}, fmt.Errorf("%w: decoding response: %v", ErrSigningFailed, err)
	}

	return sd, nil
}
