package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeDigest_Deterministic(t *testing.T) {
	e := EdgeRecord{
		RelationID:  42,
		Source:      MustNodeID("a"),
		Destination: MustNodeID("b"),
		Payload:     []byte{0x01, 0x02},
	}

	d1, err := EdgeDigest(e)
	require.NoError(t, err)
	d2, err := EdgeDigest(e.Clone())
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestEdgeDigest_FieldSensitive(t *testing.T) {
	base := EdgeRecord{RelationID: 1, Source: MustNodeID("a"), Destination: MustNodeID("b")}

	variants := map[string]EdgeRecord{
		"relation":    {RelationID: 2, Source: base.Source, Destination: base.Destination},
		"source":      {RelationID: 1, Source: MustNodeID("c"), Destination: base.Destination},
		"destination": {RelationID: 1, Source: base.Source, Destination: MustNodeID("c")},
		"payload":     {RelationID: 1, Source: base.Source, Destination: base.Destination, Payload: []byte("x")},
	}

	want := MustEdgeDigest(base)
	for name, v := range variants {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, want, MustEdgeDigest(v))
		})
	}
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t, hashWithDomain(DomainNode, data), hashWithDomain(DomainEdge, data))
}

func TestCanonicalEdge_LargeRelationID(t *testing.T) {
	e := EdgeRecord{RelationID: 18446744073709551615}
	obj := CanonicalEdge(e)
	assert.Equal(t, String("18446744073709551615"), obj["relation_id"])
}

func TestNodeDigest(t *testing.T) {
	n := NodeRecord{ID: MustNodeID("a"), Payload: []byte("p")}
	d, err := NodeDigest(n)
	require.NoError(t, err)
	assert.Len(t, d, 64)
}
