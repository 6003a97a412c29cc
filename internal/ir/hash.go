package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainNode = "provgraph/node/v1"
	DomainEdge = "provgraph/edge/v1"
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

// CanonicalNode returns the canonical object form of a node record.
func CanonicalNode(n NodeRecord) Object {
	return Object{
		"id":      String(n.ID.String()),
		"payload": String(hex.EncodeToString(n.Payload)),
	}
}

// CanonicalEdge returns the canonical object form of an edge record.
func CanonicalEdge(e EdgeRecord) Object {
	return Object{
		"relation_id": String(strconv.FormatUint(e.RelationID, 10)),
		"source":      String(e.Source.String()),
		"destination": String(e.Destination.String()),
		"payload":     String(hex.EncodeToString(e.Payload)),
	}
}

// NodeDigest computes the content address of a node record.
func NodeDigest(n NodeRecord) (string, error) {
	canonical, err := MarshalCanonical(CanonicalNode(n))
	if err != nil {
		return "", fmt.Errorf("NodeDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}

// EdgeDigest computes the content address of an edge record.
// Two edges with identical fields share a digest; arrival order is not part of it.
func EdgeDigest(e EdgeRecord) (string, error) {
	canonical, err := MarshalCanonical(CanonicalEdge(e))
	if err != nil {
		return "", fmt.Errorf("EdgeDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEdge, canonical), nil
}

// MustEdgeDigest is like EdgeDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEdgeDigest(e EdgeRecord) string {
	d, err := EdgeDigest(e)
	if err != nil {
		panic(err)
	}
	return d
}
