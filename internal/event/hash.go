package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainEvent separates event hashes from any other SHA-256 use.
// The version suffix leaves room for a future algorithm change.
const DomainEvent = "noderegistry/event/v1"

// GenesisHash is the PrevHash of the first event in a log.
const GenesisHash = ""

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeHash returns the chain hash of e given its Seq, ID and PrevHash.
// The event's own Hash field is ignored. Strings are hashed byte-for-byte,
// without normalization, so two urls that differ only in Unicode form get
// different hashes.
func ComputeHash(e Event) (string, error) {
	m := e.Fields()
	m["seq"] = e.Seq
	m["id"] = e.ID
	m["prev_hash"] = e.PrevHash

	data, err := marshalSorted(m, false)
	if err != nil {
		return "", fmt.Errorf("event hash: %w", err)
	}
	return hashWithDomain(DomainEvent, data), nil
}

// Seal assigns seq, id and prevHash to e and computes its hash.
func Seal(e Event, seq int64, id, prevHash string) (Event, error) {
	e.Seq = seq
	e.ID = id
	e.PrevHash = prevHash
	h, err := ComputeHash(e)
	if err != nil {
		return Event{}, err
	}
	e.Hash = h
	return e, nil
}

// ChainError reports the first event that breaks the hash chain.
type ChainError struct {
	Seq    int64
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("event chain broken at seq %d: %s", e.Seq, e.Reason)
}

// VerifyChain checks that events form a gap-free, correctly hashed chain
// starting at seq 1.
func VerifyChain(events []Event) error {
	prev := GenesisHash
	for i, e := range events {
		want := int64(i + 1)
		if e.Seq != want {
			return &ChainError{Seq: e.Seq, Reason: fmt.Sprintf("expected seq %d", want)}
		}
		if e.PrevHash != prev {
			return &ChainError{Seq: e.Seq, Reason: "prev_hash does not match predecessor"}
		}
		h, err := ComputeHash(e)
		if err != nil {
			return &ChainError{Seq: e.Seq, Reason: err.Error()}
		}
		if h != e.Hash {
			return &ChainError{Seq: e.Seq, Reason: "hash mismatch"}
		}
		prev = e.Hash
	}
	return nil
}
