package store

import (
	"context"
	"fmt"

	"github.com/roach88/provgraph/internal/ir"
)

// ResolvedEdge is a persisted resolution: the edge plus both endpoint
// records as they were indexed when the edge resolved.
type ResolvedEdge struct {
	Session     string        `json:"session"`
	Seq         int64         `json:"seq"`
	Batch       uint64        `json:"batch"`
	Edge        ir.EdgeRecord `json:"edge"`
	Source      ir.NodeRecord `json:"source"`
	Destination ir.NodeRecord `json:"destination"`
	Digest      string        `json:"digest"`
}

// ReadResolved returns every edge resolved in session, in resolution order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadResolved(ctx context.Context, session string) ([]ResolvedEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, batch, relation_id, source, destination,
		       source_payload, destination_payload, payload, digest
		FROM resolved_edges
		WHERE session_id = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query resolved edges: %w", err)
	}
	defer rows.Close()

	edges := []ResolvedEdge{}
	for rows.Next() {
		re, err := scanResolved(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, re)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolved edges: %w", err)
	}
	return edges, nil
}

// CountResolved returns the number of edges resolved in session.
func (s *Store) CountResolved(ctx context.Context, session string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM resolved_edges WHERE session_id = ?", session,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count resolved edges: %w", err)
	}
	return n, nil
}

func scanResolved(row rowScanner) (ResolvedEdge, error) {
	var (
		re           ResolvedEdge
		batch, relID int64
		source, dest string
		srcPL, dstPL []byte
		edgePL       []byte
	)
	err := row.Scan(&re.Session, &re.Seq, &batch, &relID, &source, &dest,
		&srcPL, &dstPL, &edgePL, &re.Digest)
	if err != nil {
		return ResolvedEdge{}, fmt.Errorf("scan resolved edge: %w", err)
	}

	srcID, err := ir.ParseNodeID(source)
	if err != nil {
		return ResolvedEdge{}, fmt.Errorf("resolved edge %d: source: %w", re.Seq, err)
	}
	dstID, err := ir.ParseNodeID(dest)
	if err != nil {
		return ResolvedEdge{}, fmt.Errorf("resolved edge %d: destination: %w", re.Seq, err)
	}

	re.Batch = uint64(batch)
	re.Edge = ir.EdgeRecord{
		RelationID:  uint64(relID),
		Source:      srcID,
		Destination: dstID,
		Payload:     edgePL,
	}
	re.Source = ir.NodeRecord{ID: srcID, Payload: srcPL}
	re.Destination = ir.NodeRecord{ID: dstID, Payload: dstPL}
	return re, nil
}
