package queryengine

import (
	"context"
	"errors"

	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/selection"
)

// DeploymentDirectory resolves a subgraph name to its current deployment
// id. The inverse map (deployment -> indexers) is not needed here: the
// observation actor's snapshot already knows which indexers report an
// IndexingStatus for a given deployment.
type DeploymentDirectory interface {
	Resolve(name string) (gtypes.DeploymentId, bool)
}

// BlockResolver resolves unresolved block references (by hash or by
// number) to concrete block pointers.
type BlockResolver interface {
	ResolveBlocks(ctx context.Context, network string, unresolved []gtypes.UnresolvedBlock) ([]gtypes.BlockHead, error)
}

// IndexerTransport issues one query against one indexer.
type IndexerTransport interface {
	Query(ctx context.Context, q IndexerQuery) (IndexerResponse, error)
}

// ErrInsufficientCollateral is returned by CollateralBroker.CreateTransfer
// when the chosen indexer's receipt collateral cannot currently cover fee.
var ErrInsufficientCollateral = errors.New("queryengine: insufficient receipt collateral")

// CollateralBroker manages the payment receipts backing indexer queries.
type CollateralBroker interface {
	CreateTransfer(ctx context.Context, indexing selection.Indexing, fee decimal.Decimal) (receipt string, err error)
	TopUpCollateral(ctx context.Context, indexing selection.Indexing) error
}
