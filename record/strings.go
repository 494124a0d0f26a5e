package record

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// bech32Charset is the bech32 5-bit alphabet. BOLT-12 strings reuse
// bech32's character set and bit-grouping but omit the checksum, so we do
// the charset<->5-bit mapping ourselves (bech32.Encode/Decode always
// append/verify a checksum) while still using bech32.ConvertBits, the
// library's exported 5-bit<->8-bit regrouping routine, for the actual bit
// shuffling.
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var bech32CharsetRev = func() [128]int8 {
	var rev [128]int8
	for i := range rev {
		rev[i] = -1
	}
	for i, c := range bech32Charset {
		rev[c] = int8(i)
	}
	return rev
}()

// NormalizeBolt12String strips the '+' line-continuation convention BOLT-12
// strings allow for splitting long offers across multiple lines, along with
// any surrounding whitespace that convention introduces.
func NormalizeBolt12String(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '+' {
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// EncodeBolt12String renders kind's HRP + raw bytes as a checksum-less
// bech32 string, e.g. "lno1...".
func EncodeBolt12String(kind Kind, data []byte) (string, error) {
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(kind.HRP())
	b.WriteByte('1')
	for _, g := range conv {
		if int(g) >= len(bech32Charset) {
			return "", fieldErr("bech32", ErrMalformedTLV)
		}
		b.WriteByte(bech32Charset[g])
	}
	return b.String(), nil
}

// DecodeBolt12String strips continuation characters, verifies the human
// readable prefix matches kind, and returns the decoded raw TLV bytes.
func DecodeBolt12String(kind Kind, s string) ([]byte, error) {
	s = NormalizeBolt12String(s)
	s = strings.ToLower(s)

	hrp := kind.HRP() + "1"
	if !strings.HasPrefix(s, hrp) {
		return nil, fieldErr("hrp", ErrMalformedTLV)
	}
	payload := s[len(hrp):]

	groups := make([]byte, len(payload))
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c >= 128 || bech32CharsetRev[c] < 0 {
			return nil, fieldErr("bech32-char", ErrMalformedTLV)
		}
		groups[i] = byte(bech32CharsetRev[c])
	}

	data, err := bech32.ConvertBits(groups, 5, 8, false)
	if err != nil {
		return nil, fieldErr("bech32", err)
	}
	return data, nil
}
