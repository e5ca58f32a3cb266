// Package adapters provides the concrete implementations of the
// queryengine collaborator interfaces that cmd/gatewayd wires up: a
// block resolver, an HTTP indexer transport, and a collateral broker.
package adapters

import (
	"context"

	"github.com/indexnet/gateway/gtypes"
)

// StaticBlockResolver resolves UnresolvedByNumber requests trivially (the
// number is already known) and rejects UnresolvedByHash requests it has
// no mapping for. It is the degenerate resolver used when a deployment's
// network has no registered chain head tracker. The network argument is
// ignored.
type StaticBlockResolver struct {
	// Hashes maps known block hashes to their resolved pointer, for
	// networks where a head tracker has populated it.
	Hashes map[[32]byte]gtypes.BlockPointer
}

// NewStaticBlockResolver returns a resolver with an empty hash table.
func NewStaticBlockResolver() *StaticBlockResolver {
	return &StaticBlockResolver{Hashes: make(map[[32]byte]gtypes.BlockPointer)}
}

// ResolveBlocks implements queryengine.BlockResolver.
func (r *StaticBlockResolver) ResolveBlocks(ctx context.Context, network string, unresolved []gtypes.UnresolvedBlock) ([]gtypes.BlockHead, error) {
	heads := make([]gtypes.BlockHead, len(unresolved))
	for i, u := range unresolved {
		switch u.Kind {
		case gtypes.UnresolvedByNumber:
			heads[i] = gtypes.BlockHead{Block: gtypes.BlockPointer{Number: u.Number}}
		case gtypes.UnresolvedByHash:
			ptr, ok := r.Hashes[u.Hash]
			if !ok {
				return nil, unresolvedHashError{hash: u.Hash}
			}
			heads[i] = gtypes.BlockHead{Block: ptr}
		}
	}
	return heads, nil
}

type unresolvedHashError struct {
	hash [32]byte
}

func (e unresolvedHashError) Error() string {
	return "adapters: no known block for hash"
}
