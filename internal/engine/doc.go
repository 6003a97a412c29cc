// Package engine implements the provenance graph assembler.
//
// The assembler receives a stream of node and edge records from an arbitrary
// number of capture workers, indexes nodes, buffers edges, and resolves
// buffered edges against the node index in windowed batches.
//
// ARCHITECTURE:
//
// One coarse lock:
// All shared state (pending counter, NodeIndex, EdgeQueue) is guarded by a
// single mutex. Ingest takes the lock, mutates, and, when the pending counter
// has reached the window, runs the resolution pass inline before releasing
// it. Exactly one caller performs each batch and no caller ever observes a
// half-sorted queue or a torn counter. Concurrent callers block for the
// duration of a pass.
//
// The engine is designed for correctness and determinism, not throughput.
// It owns no goroutines.
//
// Resolution pass:
//  1. Stable sort of the queue by relation id (ties keep arrival order)
//  2. One in-order walk; both endpoints indexed => hand off to the Resolver,
//     remove the edge, decrement the counter
//  3. Edges with a missing endpoint stay queued for a later pass
//
// KNOWN LIMITATIONS:
//
// The node index never evicts and an edge whose endpoint never arrives stays
// queued for the life of the process. Both grow without bound on long-running
// streams. Stats and the metrics observer expose the sizes so operators can
// watch them.
//
// Resolver and Observer callbacks run while the data lock is held. They must
// not call back into the Assembler.
package engine
