package record

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/tlv"
)

// Tagged-hash domain separators for the BOLT-12 merkle tree.
const (
	tagLnLeaf   = "LnLeaf"
	tagLnNonce  = "LnNonce"
	tagLnBranch = "LnBranch"
)

// firstTLVTag builds the synthetic "first TLV" fed into every nonce leaf as
// a kind-specific domain separator. invoice_request uses tag 0, offer and
// invoice use tag 1.
func firstTLVTag(kind Kind) rawField {
	typ := tlv.Type(1)
	if kind == KindInvoiceRequest {
		typ = tlv.Type(0)
	}
	return rawField{Type: typ, Value: []byte(kind.String())}
}

// Merkle computes the BOLT-12 merkle root over fields, excluding any
// signature-bearing field (type >= 240). The root is independent of the
// order fields are passed in, since leaves are built in ascending type
// order regardless.
func Merkle(kind Kind, fields []rawField) [32]byte {
	firstTLV, err := encodeStream([]rawField{firstTLVTag(kind)})
	if err != nil {
		// Encoding a single well-formed field never fails.
		panic(err)
	}

	sorted := make([]rawField, 0, len(fields))
	for _, f := range fields {
		if isSignatureField(f.Type) {
			continue
		}
		sorted = append(sorted, f)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Type < sorted[j].Type })

	leaves := make([][32]byte, 0, len(sorted))
	for _, f := range sorted {
		fieldBytes, err := encodeStream([]rawField{f})
		if err != nil {
			panic(err)
		}

		nonceInput := make([]byte, 0, len(firstTLV)+len(fieldBytes))
		nonceInput = append(nonceInput, firstTLV...)
		nonceInput = append(nonceInput, fieldBytes...)

		nonceLeaf := chainhash.TaggedHash(tagLnNonce, nonceInput)
		valueLeaf := chainhash.TaggedHash(tagLnLeaf, fieldBytes)

		leaves = append(leaves, combineBranch(*nonceLeaf, *valueLeaf))
	}

	return merkleRoot(leaves)
}

// combineBranch hashes two sibling leaves/branches together in
// lexicographic order, so that which side of the pair each element started
// on never affects the result.
func combineBranch(a, b [32]byte) [32]byte {
	l, r := sort2(a, b)
	h := chainhash.TaggedHash(tagLnBranch, l[:], r[:])
	return *h
}

func sort2(a, b [32]byte) ([32]byte, [32]byte) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// merkleRoot folds leaves pairwise until a single root remains. An odd
// element at any level is carried to the next level unpaired.
func merkleRoot(leaves [][32]byte) [32]byte {
	if len(leaves) == 0 {
		return [32]byte{}
	}

	level := leaves
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, combineBranch(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}
