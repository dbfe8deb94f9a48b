// Package requests implements the siacoin: payment request URI format.
//
// A payment request encodes one or more recipients (address, amount,
// label, message) in a URI that can be shared via QR codes, links, or
// text:
//
//	siacoin:<address>?amount=<hastings>&label=<label>&message=<message>
//
// Multiple recipients use indexed parameters:
//
//	siacoin:?address.0=<addr0>&amount.0=<amt0>&address.1=<addr1>&amount.1=<amt1>
//
// Amounts are integer hastings. Addresses carry their usual checksum, so
// a corrupted URI fails to parse rather than paying the wrong recipient.
package requests

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/suffix-labs/sia-wallet/pkg/types"
)

// maxRecipientIndex bounds the indexed-parameter form.
const maxRecipientIndex = 9999

// MalformedRequestError is returned when a payment request URI cannot be
// parsed.
type MalformedRequestError struct {
	Field  string // The parameter that failed to parse
	Reason string // Why it failed
}

func (e *MalformedRequestError) Error() string {
	return fmt.Sprintf("malformed payment request: %s: %s", e.Field, e.Reason)
}

// Payment is a single recipient within a payment request.
type Payment struct {
	Address types.Address   // Recipient address
	Amount  *types.Currency // Amount in hastings (nil = sender chooses)
	Label   *string         // Optional label for the recipient
	Message *string         // Optional message to display to the sender
}

// PaymentRequest is a parsed siacoin: payment request. It carries one or
// more payments in recipient-index order.
type PaymentRequest struct {
	Payments []Payment
}

// Total sums the amounts of all payments. Payments without an amount
// contribute nothing. An overflowing sum is reported as an error rather
// than wrapping.
func (req *PaymentRequest) Total() (types.Currency, error) {
	total := types.ZeroCurrency
	for i, p := range req.Payments {
		if p.Amount == nil {
			continue
		}
		sum, overflow := total.AddWithOverflow(*p.Amount)
		if overflow {
			return types.ZeroCurrency, &MalformedRequestError{
				Field:  fmt.Sprintf("amount.%d", i),
				Reason: "total overflows",
			}
		}
		total = sum
	}
	return total, nil
}

// Parse parses a siacoin: payment request URI. The "siacoin:" scheme
// prefix is optional. Single-recipient requests may carry the address in
// the URI body or as an "address" parameter; multi-recipient requests use
// indexed parameters ("address.0", "amount.0", ...).
func Parse(uri string) (*PaymentRequest, error) {
	uri = strings.TrimPrefix(uri, "siacoin:")

	var base, query string
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		base, query = uri[:i], uri[i+1:]
	} else if strings.Contains(uri, "=") {
		query = uri
	} else {
		base = uri
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, &MalformedRequestError{Field: "query", Reason: err.Error()}
	}

	var payments []Payment
	if hasIndexedParams(params) {
		payments, err = parseIndexedPayments(params)
	} else {
		var p Payment
		p, err = parsePayment(base, params, "")
		payments = []Payment{p}
	}
	if err != nil {
		return nil, err
	}
	return &PaymentRequest{Payments: payments}, nil
}

// parsePayment parses one recipient. For the single-recipient form,
// suffix is empty and base may carry the address; for the indexed form,
// suffix is ".N" and base is empty.
func parsePayment(base string, params url.Values, suffix string) (Payment, error) {
	addrStr := base
	if v := params.Get("address" + suffix); v != "" {
		addrStr = v
	}
	if addrStr == "" {
		return Payment{}, &MalformedRequestError{Field: "address" + suffix, Reason: "missing"}
	}
	addr, err := types.ParseAddress(addrStr)
	if err != nil {
		return Payment{}, &MalformedRequestError{Field: "address" + suffix, Reason: err.Error()}
	}
	p := Payment{Address: addr}

	if v := params.Get("amount" + suffix); v != "" {
		amount, err := types.ParseCurrency(v)
		if err != nil {
			return Payment{}, &MalformedRequestError{Field: "amount" + suffix, Reason: err.Error()}
		}
		p.Amount = &amount
	}
	if v := params.Get("label" + suffix); v != "" {
		p.Label = &v
	}
	if v := params.Get("message" + suffix); v != "" {
		p.Message = &v
	}
	return p, nil
}

// parseIndexedPayments parses the multi-recipient form. Recipients are
// returned in ascending index order; gaps in the index sequence are
// allowed.
func parseIndexedPayments(params url.Values) ([]Payment, error) {
	indices := make(map[int]bool)
	maxIdx := -1
	for key := range params {
		if idx := extractIndex(key); idx >= 0 {
			indices[idx] = true
			if idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	var payments []Payment
	for i := 0; i <= maxIdx; i++ {
		if !indices[i] {
			continue
		}
		p, err := parsePayment("", params, fmt.Sprintf(".%d", i))
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if len(payments) == 0 {
		return nil, &MalformedRequestError{Field: "address", Reason: "no recipients"}
	}
	return payments, nil
}

func hasIndexedParams(params url.Values) bool {
	for key := range params {
		if extractIndex(key) >= 0 {
			return true
		}
	}
	return false
}

// extractIndex returns the recipient index of a parameter name like
// "address.3", or -1 if the name carries no valid index.
func extractIndex(name string) int {
	dot := strings.IndexByte(name, '.')
	if dot < 0 || strings.IndexByte(name[dot+1:], '.') >= 0 {
		return -1
	}
	idx, err := strconv.Atoi(name[dot+1:])
	if err != nil || idx < 0 || idx > maxRecipientIndex {
		return -1
	}
	return idx
}

// Encode renders the request as a siacoin: URI. It is the inverse of
// Parse: single-recipient requests use the compact form with the address
// in the URI body, multi-recipient requests use indexed parameters.
func (req *PaymentRequest) Encode() string {
	if len(req.Payments) == 0 {
		return "siacoin:"
	}
	if len(req.Payments) == 1 {
		p := req.Payments[0]
		uri := "siacoin:" + p.Address.String()
		params := url.Values{}
		addPaymentParams(params, p, "")
		if len(params) > 0 {
			uri += "?" + params.Encode()
		}
		return uri
	}
	params := url.Values{}
	for i, p := range req.Payments {
		suffix := fmt.Sprintf(".%d", i)
		params.Add("address"+suffix, p.Address.String())
		addPaymentParams(params, p, suffix)
	}
	return "siacoin:?" + params.Encode()
}

func addPaymentParams(params url.Values, p Payment, suffix string) {
	if p.Amount != nil {
		params.Add("amount"+suffix, p.Amount.String())
	}
	if p.Label != nil {
		params.Add("label"+suffix, *p.Label)
	}
	if p.Message != nil {
		params.Add("message"+suffix, *p.Message)
	}
}
