// Package ledger adapts ledgerv1.Client to a token's external ledger
// endpoint over plain JSON/HTTP. No example in the retrieved corpus
// ships a client library for this kind of external asset ledger, so
// this is a deliberately thin net/http adapter rather than an
// ecosystem dependency — see DESIGN.md.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ledgerv1 "github.com/beacon-exchange/beacon/internal/domain/ledger/v1"
	"github.com/beacon-exchange/beacon/pkg/errors"
)

// Factory resolves one ledgerv1.Client per token id, each pointed at
// baseURL + "/" + token (spec §4.A: one external ledger per token).
type Factory struct {
	baseURL string
	http    *http.Client
}

// NewFactory creates a Factory. baseURL is the ledger gateway's root;
// each token's endpoint is baseURL/<token>.
func NewFactory(baseURL string, timeout time.Duration) *Factory {
	return &Factory{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// For returns the ledgerv1.Client for token.
func (f *Factory) For(token string) (ledgerv1.Client, error) {
	if token == "" {
		return nil, errors.New(errors.Validation, "token", "token id is empty")
	}
	return &client{endpoint: fmt.Sprintf("%s/%s", f.baseURL, token), http: f.http}, nil
}

type client struct {
	endpoint string
	http     *http.Client
}

func (c *client) call(ctx context.Context, method string, req, resp any) error {
	buf, err := json.Marshal(req)
	if err != nil {
		return errors.TracerFromError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/"+method, bytes.NewReader(buf))
	if err != nil {
		return errors.TracerFromError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.New(errors.Ledger, "", "ledger call %s failed: %v", method, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return errors.New(errors.Ledger, "", "ledger call %s returned status %d", method, httpResp.StatusCode)
	}
	if resp == nil {
		return nil
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}

func (c *client) BalanceOf(ctx context.Context, owner string) (uint64, error) {
	var out struct {
		Balance uint64 `json:"balance"`
	}
	if err := c.call(ctx, "balance_of", map[string]string{"owner": owner}, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (c *client) Transfer(ctx context.Context, to string, amount, fee uint64) (ledgerv1.Result, error) {
	var out struct {
		BlockIndex uint64 `json:"block_index"`
	}
	req := map[string]any{"to": to, "amount": amount, "fee": fee}
	if err := c.call(ctx, "transfer", req, &out); err != nil {
		return ledgerv1.Result{}, err
	}
	return ledgerv1.Result{BlockIndex: out.BlockIndex}, nil
}

func (c *client) TransferFrom(ctx context.Context, from, to string, amount uint64) (ledgerv1.Result, error) {
	var out struct {
		BlockIndex uint64 `json:"block_index"`
	}
	req := map[string]any{"from": from, "to": to, "amount": amount}
	if err := c.call(ctx, "transfer_from", req, &out); err != nil {
		return ledgerv1.Result{}, err
	}
	return ledgerv1.Result{BlockIndex: out.BlockIndex}, nil
}

func (c *client) Metadata(ctx context.Context) (ledgerv1.Metadata, error) {
	var out ledgerv1.Metadata
	if err := c.call(ctx, "metadata", map[string]string{}, &out); err != nil {
		return ledgerv1.Metadata{}, err
	}
	return out, nil
}
