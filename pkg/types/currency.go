package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strings"

	"github.com/suffix-labs/sia-wallet/pkg/encoding"
)

// A Currency represents an amount of hastings, the smallest unit of
// currency in the Sia network. 1 SC is 10^24 hastings, so amounts do not
// fit in 64 bits; Currency is an unsigned 128-bit integer.
type Currency struct {
	Lo, Hi uint64
}

// Currency values.
var (
	ZeroCurrency Currency
	MaxCurrency  = NewCurrency(math.MaxUint64, math.MaxUint64)
)

// HastingsPerSiacoin is the number of hastings in 1 SC.
var HastingsPerSiacoin = NewCurrency(2003764205206896640, 54210) // 10^24

// DustThreshold is the minimum amount of currency for a transaction
// output.
var DustThreshold = NewCurrency64(1)

// DefaultMinerFee is a fallback fee amount for transactions, used when no
// fee estimate is available.
var DefaultMinerFee = NewCurrency64(10000000000000000000) // 10^19

// NewCurrency returns the Currency value (lo,hi).
func NewCurrency(lo, hi uint64) Currency {
	return Currency{lo, hi}
}

// NewCurrency64 converts c to a Currency value.
func NewCurrency64(c uint64) Currency {
	return Currency{c, 0}
}

// Siacoins converts n siacoins to a Currency value.
func Siacoins(n uint32) Currency { return HastingsPerSiacoin.Mul64(uint64(n)) }

// IsZero returns true if c == 0.
func (c Currency) IsZero() bool { return c == ZeroCurrency }

// Equals returns true if c == v.
//
// Currency values can be compared directly with ==, but use of the Equals
// method is preferred for consistency.
func (c Currency) Equals(v Currency) bool { return c == v }

// Cmp compares c and v and returns:
//
//	-1 if c <  v
//	 0 if c == v
//	+1 if c >  v
func (c Currency) Cmp(v Currency) int {
	if c == v {
		return 0
	} else if c.Hi < v.Hi || (c.Hi == v.Hi && c.Lo < v.Lo) {
		return -1
	}
	return 1
}

// Add returns c+v. If the sum would overflow, Add panics; use
// AddWithOverflow when the inputs are untrusted.
func (c Currency) Add(v Currency) Currency {
	s, overflow := c.AddWithOverflow(v)
	if overflow {
		panic("overflow")
	}
	return s
}

// AddWithOverflow returns c+v, along with a boolean indicating whether
// the result overflowed.
func (c Currency) AddWithOverflow(v Currency) (Currency, bool) {
	lo, carry := bits.Add64(c.Lo, v.Lo, 0)
	hi, carry := bits.Add64(c.Hi, v.Hi, carry)
	return Currency{lo, hi}, carry != 0
}

// Sub returns c-v. If the difference would underflow, Sub panics; use
// SubWithUnderflow when the inputs are untrusted.
func (c Currency) Sub(v Currency) Currency {
	s, underflow := c.SubWithUnderflow(v)
	if underflow {
		panic("underflow")
	}
	return s
}

// SubWithUnderflow returns c-v, along with a boolean indicating whether
// the result underflowed.
func (c Currency) SubWithUnderflow(v Currency) (Currency, bool) {
	lo, borrow := bits.Sub64(c.Lo, v.Lo, 0)
	hi, borrow := bits.Sub64(c.Hi, v.Hi, borrow)
	return Currency{lo, hi}, borrow != 0
}

// Mul64 returns c*v. If the product would overflow, Mul64 panics.
func (c Currency) Mul64(v uint64) Currency {
	hi0, lo0 := bits.Mul64(c.Lo, v)
	hi1, lo1 := bits.Mul64(c.Hi, v)
	hi2, c0 := bits.Add64(hi0, lo1, 0)
	if hi1 != 0 || c0 != 0 {
		panic("overflow")
	}
	return Currency{lo0, hi2}
}

// Big returns c as a *big.Int.
func (c Currency) Big() *big.Int {
	b := make([]byte, 16)
	putUint64BE(b[:8], c.Hi)
	putUint64BE(b[8:], c.Lo)
	return new(big.Int).SetBytes(b)
}

func putUint64BE(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// String implements fmt.Stringer. The value is rendered in decimal
// hastings, matching the walletd API representation.
func (c Currency) String() string {
	return c.Big().String()
}

// ParseCurrency parses a decimal hastings string as a Currency value.
func ParseCurrency(s string) (Currency, error) {
	i, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return ZeroCurrency, fmt.Errorf("invalid currency value %q", s)
	}
	if i.Sign() < 0 || i.BitLen() > 128 {
		return ZeroCurrency, fmt.Errorf("currency value %q out of range", s)
	}
	b := i.Bytes()
	buf := make([]byte, 16)
	copy(buf[16-len(b):], b)
	return Currency{
		Hi: uint64BE(buf[:8]),
		Lo: uint64BE(buf[8:]),
	}, nil
}

func uint64BE(b []byte) (v uint64) {
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return
}

// MarshalJSON implements json.Marshaler. The walletd API transmits
// currency values as decimal strings.
func (c Currency) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler. Both string and bare integer
// forms are accepted.
func (c *Currency) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	parsed, err := ParseCurrency(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// V2EncodeTo writes the v2 encoding of c: 16 little-endian bytes. This is
// the form used everywhere within v2 transactions.
func (c Currency) V2EncodeTo(e *encoding.Encoder) {
	e.WriteUint64(c.Lo)
	e.WriteUint64(c.Hi)
}

// V2DecodeFrom reads the v2 encoding of c.
func (c *Currency) V2DecodeFrom(d *encoding.Decoder) {
	c.Lo = d.ReadUint64()
	c.Hi = d.ReadUint64()
}

// V1EncodeTo writes the v1 encoding of c: a length-prefixed big-endian
// byte string with leading zero bytes trimmed. A zero value encodes as
// the full untrimmed 16-byte buffer.
func (c Currency) V1EncodeTo(e *encoding.Encoder) {
	buf := make([]byte, 16)
	putUint64BE(buf[:8], c.Hi)
	putUint64BE(buf[8:], c.Lo)
	i := 0
	for i < len(buf) && buf[i] == 0 {
		i++
	}
	if i == len(buf) {
		i = 0
	}
	e.WriteBytes(buf[i:])
}

// V1DecodeFrom reads the v1 encoding of c.
func (c *Currency) V1DecodeFrom(d *encoding.Decoder) {
	b := d.ReadBytes()
	if len(b) > 16 {
		d.SetErr(fmt.Errorf("v1 currency value exceeds 128 bits (%d bytes)", len(b)))
		return
	}
	buf := make([]byte, 16)
	copy(buf[16-len(b):], b)
	c.Hi = uint64BE(buf[:8])
	c.Lo = uint64BE(buf[8:])
}
