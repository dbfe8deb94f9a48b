// Package walletd is a client for the walletd HTTP API.
//
// The client speaks walletd's explicit JSON schema, which is distinct
// from the consensus binary encoding; the two must never be conflated.
// Only the endpoints a wallet needs are covered: chain tip, address
// balances, UTXOs and events, and the transaction pool.
package walletd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/suffix-labs/sia-wallet/pkg/types"
)

// A RequestError is returned when a request reaches walletd but is
// rejected. The response body is walletd's error message.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: walletd returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// A Client makes requests against a walletd server.
type Client struct {
	baseURL  string
	password string
	http     *http.Client
	log      zerolog.Logger
}

// An Option configures a Client.
type Option func(*Client)

// WithPassword sets the API password sent with every request.
func WithPassword(password string) Option {
	return func(c *Client) { c.password = password }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient returns a Client for the walletd server at baseURL, e.g.
// "https://sia.example.com" (the client appends "/api/...").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, resp interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.password != "" {
		req.SetBasicAuth("", c.password)
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer httpResp.Body.Close()
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("walletd request")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: httpResp.StatusCode,
			Body:       string(bytes.TrimSpace(msg)),
		}
	}
	if resp == nil {
		return nil
	}
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, resp interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, resp)
}

func (c *Client) post(ctx context.Context, path string, body, resp interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, resp)
}

// ConsensusTip returns the current consensus tip: the height and ID of
// the latest block.
func (c *Client) ConsensusTip(ctx context.Context) (types.ChainIndex, error) {
	var tip types.ChainIndex
	err := c.get(ctx, "/api/consensus/tip", &tip)
	return tip, err
}

// A Balance is the spendable state of a single address.
type Balance struct {
	Siacoins         types.Currency `json:"siacoins"`
	ImmatureSiacoins types.Currency `json:"immatureSiacoins"`
	Siafunds         uint64         `json:"siafunds"`
}

// AddressBalance returns the balance of addr. In personal index mode
// walletd only serves addresses registered with a wallet.
func (c *Client) AddressBalance(ctx context.Context, addr types.Address) (Balance, error) {
	var bal Balance
	err := c.get(ctx, fmt.Sprintf("/api/addresses/%v/balance", addr), &bal)
	return bal, err
}

// AddressSiacoinOutputs returns the unspent siacoin outputs owned by
// addr, paginated by offset and limit.
func (c *Client) AddressSiacoinOutputs(ctx context.Context, addr types.Address, offset, limit int) ([]types.SiacoinElement, error) {
	var utxos []types.SiacoinElement
	path := fmt.Sprintf("/api/addresses/%v/outputs/siacoin?offset=%d&limit=%d", addr, offset, limit)
	err := c.get(ctx, path, &utxos)
	return utxos, err
}

// An Event is a chain event relevant to a wallet: a transaction, a
// payout, or a contract resolution. Data's schema depends on Type.
type Event struct {
	ID             types.Hash256    `json:"id"`
	Index          types.ChainIndex `json:"index"`
	Confirmations  uint64           `json:"confirmations"`
	Type           string           `json:"type"`
	Data           json.RawMessage  `json:"data"`
	MaturityHeight uint64           `json:"maturityHeight"`
	Timestamp      time.Time        `json:"timestamp"`
	Relevant       []types.Address  `json:"relevant,omitempty"`
}

// Event types reported by walletd.
const (
	EventTypeMiner                = "miner"
	EventTypeFoundation           = "foundation"
	EventTypeSiafundClaim         = "siafundClaim"
	EventTypeV1Transaction        = "v1Transaction"
	EventTypeV2Transaction        = "v2Transaction"
	EventTypeV1ContractResolution = "v1ContractResolution"
	EventTypeV2ContractResolution = "v2ContractResolution"
)

// AddressEvents returns the events relevant to addr, most recent first.
func (c *Client) AddressEvents(ctx context.Context, addr types.Address, offset, limit int) ([]Event, error) {
	var events []Event
	path := fmt.Sprintf("/api/addresses/%v/events?offset=%d&limit=%d", addr, offset, limit)
	err := c.get(ctx, path, &events)
	return events, err
}

// Event returns the event with the given ID, which for transaction
// events is the transaction ID.
func (c *Client) Event(ctx context.Context, id types.Hash256) (Event, error) {
	var ev Event
	err := c.get(ctx, fmt.Sprintf("/api/events/%v", id), &ev)
	return ev, err
}

// TxpoolFee returns the recommended miner fee in hastings per byte of
// transaction weight.
func (c *Client) TxpoolFee(ctx context.Context) (types.Currency, error) {
	var fee types.Currency
	err := c.get(ctx, "/api/txpool/fee", &fee)
	return fee, err
}

// TxpoolTransactions returns the transactions currently in the pool.
func (c *Client) TxpoolTransactions(ctx context.Context) (v1 []types.V1Transaction, v2 []types.V2Transaction, err error) {
	var resp struct {
		Transactions   []types.V1Transaction `json:"transactions"`
		V2Transactions []types.V2Transaction `json:"v2transactions"`
	}
	err = c.get(ctx, "/api/txpool/transactions", &resp)
	return resp.Transactions, resp.V2Transactions, err
}

// TxpoolBroadcast submits transactions to the pool for relay and
// eventual inclusion in a block.
func (c *Client) TxpoolBroadcast(ctx context.Context, v1 []types.V1Transaction, v2 []types.V2Transaction) error {
	req := struct {
		Transactions   []types.V1Transaction `json:"transactions"`
		V2Transactions []types.V2Transaction `json:"v2transactions"`
	}{v1, v2}
	if req.Transactions == nil {
		req.Transactions = []types.V1Transaction{}
	}
	if req.V2Transactions == nil {
		req.V2Transactions = []types.V2Transaction{}
	}
	return c.post(ctx, "/api/txpool/broadcast", req, nil)
}

// BroadcastV2 submits a single v2 transaction.
func (c *Client) BroadcastV2(ctx context.Context, txn types.V2Transaction) error {
	return c.TxpoolBroadcast(ctx, nil, []types.V2Transaction{txn})
}
