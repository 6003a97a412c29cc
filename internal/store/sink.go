package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/ir"
)

// Sink persists resolved edges for one session.
//
// Sink implements engine.Resolver, and engine.Observer so that each
// resolution pass is written in a single transaction: BatchStarted opens it,
// BatchFinished commits it. Register the same Sink as both:
//
//	sink := st.NewSink(ctx, sess.ID)
//	asm := engine.New(engine.WithResolver(sink), engine.WithObserver(sink))
//
// The assembler calls these methods under its lock, one at a time, so Sink
// does no locking of its own. It is not safe for concurrent use otherwise.
//
// The context is captured at construction because the Resolver interface has
// none. Its values reach every statement but its cancellation does not: the
// assembler has already dequeued an edge when Resolve runs, so a pass must
// always finish writing and commit.
type Sink struct {
	engine.NopObserver

	store   *Store
	ctx     context.Context
	session string

	tx    *sql.Tx
	batch uint64
	seq   int64

	written int64
	err     error
}

// NewSink creates a sink writing to session. The session must already exist.
// Canceling ctx does not stop the sink; close the store after the assembler.
func (s *Store) NewSink(ctx context.Context, session string) *Sink {
	return &Sink{store: s, ctx: context.WithoutCancel(ctx), session: session}
}

// Session returns the session id this sink writes to.
func (k *Sink) Session() string {
	return k.session
}

// Written returns the number of edges persisted (committed or pending commit).
func (k *Sink) Written() int64 {
	return k.written
}

// Err returns the first error the sink encountered, including commit failures
// that could not be returned to a caller.
func (k *Sink) Err() error {
	return k.err
}

// BatchStarted implements engine.Observer.
func (k *Sink) BatchStarted(batch uint64, _ int) {
	k.batch = batch
	tx, err := k.store.db.BeginTx(k.ctx, nil)
	if err != nil {
		k.fail(fmt.Errorf("begin batch %d: %w", batch, err))
		return
	}
	k.tx = tx
}

// BatchFinished implements engine.Observer.
func (k *Sink) BatchFinished(batch uint64, resolved, _ int) {
	if k.tx == nil {
		return
	}
	tx := k.tx
	k.tx = nil
	if err := tx.Commit(); err != nil {
		k.fail(fmt.Errorf("commit batch %d (%d edges): %w", batch, resolved, err))
	}
}

// Resolve implements engine.Resolver.
func (k *Sink) Resolve(source, destination ir.NodeRecord, edge ir.EdgeRecord) error {
	digest, err := ir.EdgeDigest(edge)
	if err != nil {
		return fmt.Errorf("digest edge %d: %w", edge.RelationID, err)
	}

	var exec interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	} = k.store.db
	if k.tx != nil {
		exec = k.tx
	}

	k.seq++
	_, err = exec.ExecContext(k.ctx, `
		INSERT INTO resolved_edges
		(session_id, seq, batch, relation_id, source, destination,
		 source_payload, destination_payload, payload, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		k.session,
		k.seq,
		int64(k.batch),
		int64(edge.RelationID),
		edge.Source.String(),
		edge.Destination.String(),
		source.Payload,
		destination.Payload,
		edge.Payload,
		digest,
	)
	if err != nil {
		err = fmt.Errorf("write resolved edge %d: %w", edge.RelationID, err)
		k.fail(err)
		return err
	}

	k.written++
	return nil
}

func (k *Sink) fail(err error) {
	slog.Error("store sink failure", "session", k.session, "error", err)
	if k.err == nil {
		k.err = err
	}
}
