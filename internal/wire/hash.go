package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent = "dobble/event/v1"
	DomainView  = "dobble/view/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed id of a journaled event.
// The id is stable across replays given the same inputs.
func EventID(sessionID string, seq int64, kind string, payload []byte) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"session_id": sessionID,
		"seq":        seq,
		"kind":       kind,
		"payload":    string(payload),
	})
	if err != nil {
		return "", fmt.Errorf("event id: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// ViewDigest hashes the canonical form of a view. Two replays of the same
// event sequence must yield the same digest.
func ViewDigest(view any) (string, error) {
	canonical, err := MarshalCanonical(view)
	if err != nil {
		return "", fmt.Errorf("view digest: %w", err)
	}
	return hashWithDomain(DomainView, canonical), nil
}
