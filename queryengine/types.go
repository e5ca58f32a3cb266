// Package queryengine implements the execution loop: given a client query,
// resolve its deployment, select candidate indexers, dispatch the query to
// them in parallel, validate the first response, and retry on failure up
// to a fixed bound, feeding every outcome back to the observation actor.
package queryengine

import (
	"fmt"

	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/selection"
)

// APIKey authorizes a client to query a bounded set of deployments on
// behalf of a user address.
type APIKey struct {
	Key                   string
	User                  gtypes.Address
	AuthorizedDeployments map[gtypes.DeploymentId]struct{}
	// AllDeployments marks a key authorized for every deployment, the
	// permit-list-free case the source's free/internal API keys use.
	AllDeployments bool
}

// Authorizes reports whether k permits querying dep.
func (k APIKey) Authorizes(dep gtypes.DeploymentId) bool {
	if k.AllDeployments {
		return true
	}
	_, ok := k.AuthorizedDeployments[dep]
	return ok
}

// ClientQuery is one inbound request to execute_query.
type ClientQuery struct {
	// DeploymentOrName is either a subgraph name (looked up in the
	// deployment directory) or a deployment id rendered as hex.
	DeploymentOrName string
	Query            string
	Variables        string
	APIKey           APIKey
	Network          string
	// Budget overrides the engine's default per-query budget when
	// non-zero.
	Budget decimal.Decimal
	// RequiredBlock pins the query to a specific block, by hash or number,
	// resolved via the BlockResolver before selection runs.
	RequiredBlock *gtypes.UnresolvedBlock
	// HasLatest requests the freshest available block; see
	// selection.BlockRequirements.HasLatest.
	HasLatest bool
}

// Attestation is an indexer's signed commitment to a (request, response,
// deployment) triple.
type Attestation struct {
	RequestCID           [32]byte
	ResponseCID          [32]byte
	SubgraphDeploymentID gtypes.DeploymentId
	V                    byte
	R                    [32]byte
	S                    [32]byte
}

// IndexerResponse is what an indexer transport returns for one query.
type IndexerResponse struct {
	GraphQLResponse string
	Attestation     *Attestation
}

// IndexerQuery is what the execution loop sends to an indexer transport.
type IndexerQuery struct {
	Indexing  selection.Indexing
	URL       string
	Query     string
	Variables string
	Receipt   string
	Fee       decimal.Decimal
}

// QueryResponse is the successful result of execute_query.
type QueryResponse struct {
	Indexing        selection.Indexing
	Fee             decimal.Decimal
	GraphQLResponse string
	Attestation     *Attestation
}

// ErrorKind enumerates the ways execute_query can fail.
type ErrorKind int

const (
	SubgraphNotFound ErrorKind = iota
	NoIndexerSelected
	APIKeySubgraphNotAuthorized
	MalformedQuery
	MissingBlocks
)

func (k ErrorKind) String() string {
	switch k {
	case SubgraphNotFound:
		return "SubgraphNotFound"
	case NoIndexerSelected:
		return "NoIndexerSelected"
	case APIKeySubgraphNotAuthorized:
		return "APIKeySubgraphNotAuthorized"
	case MalformedQuery:
		return "MalformedQuery"
	case MissingBlocks:
		return "MissingBlocks"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the error type execute_query returns.
type Error struct {
	Kind       ErrorKind
	Unresolved []gtypes.UnresolvedBlock
}

func (e *Error) Error() string {
	if e.Kind == MissingBlocks {
		return fmt.Sprintf("queryengine: %s (%d unresolved)", e.Kind, len(e.Unresolved))
	}
	return "queryengine: " + e.Kind.String()
}

// StatusCode maps an ErrorKind to the HTTP status the gateway's ingress
// layer should surface, per the taxonomy in spec.md §7.
func (k ErrorKind) StatusCode() int {
	switch k {
	case SubgraphNotFound:
		return 404
	case APIKeySubgraphNotAuthorized:
		return 403
	case MalformedQuery:
		return 400
	case NoIndexerSelected:
		return 502
	case MissingBlocks:
		return 503
	default:
		return 500
	}
}
