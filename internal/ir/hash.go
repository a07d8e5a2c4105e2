package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainScene = "scenekit/scene/v1"
	DomainBatch = "scenekit/batch/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content fingerprint of a scene. Two scenes with
// the same elements in the same order (including versions and nonces) have
// the same fingerprint.
func Fingerprint(s Scene) (string, error) {
	if s == nil {
		s = Scene{}
	}
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	return hashWithDomain(DomainScene, canonical), nil
}

// BatchFingerprint computes a content fingerprint of any batch payload
// (actions or a reconcile batch) for the batch log.
func BatchFingerprint(payload any) (string, error) {
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("BatchFingerprint: %w", err)
	}
	return hashWithDomain(DomainBatch, canonical), nil
}
