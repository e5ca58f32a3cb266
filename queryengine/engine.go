package queryengine

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/decred/slog"

	"github.com/indexnet/gateway/costmodel"
	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gatewaystate"
	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/selection"
	"github.com/indexnet/gateway/util/panics"
)

// indexerBehindMarker is the literal substring an indexer's GraphQL error
// list carries when it has not yet indexed a block the query required.
const indexerBehindMarker = "Failed to decode `block.hash` value: `no block with that hash found`"

// Engine runs execute_query against a snapshot-backed actor and a set of
// external collaborators.
type Engine struct {
	log            slog.Logger
	spawn          func(func())
	actor          *gatewaystate.Actor
	directory      DeploymentDirectory
	blocks         BlockResolver
	transport      IndexerTransport
	collateral     CollateralBroker
	defaultBudget  decimal.Decimal
	selectionLimit int
	retryLimit     int
	weights        selection.UtilityWeights
}

// Config is the fixed, rarely-changing configuration an Engine is built
// with.
type Config struct {
	DefaultBudget  decimal.Decimal
	SelectionLimit int
	RetryLimit     int
	Weights        selection.UtilityWeights
}

// New constructs an Engine. actor supplies snapshots; directory, blocks,
// transport, and collateral are the external collaborators described in
// spec.md §6.
func New(
	log slog.Logger,
	actor *gatewaystate.Actor,
	directory DeploymentDirectory,
	blocks BlockResolver,
	transport IndexerTransport,
	collateral CollateralBroker,
	cfg Config,
) *Engine {
	return &Engine{
		log:            log,
		spawn:          panics.GoroutineWrapperFunc(log),
		actor:          actor,
		directory:      directory,
		blocks:         blocks,
		transport:      transport,
		collateral:     collateral,
		defaultBudget:  cfg.DefaultBudget,
		selectionLimit: cfg.SelectionLimit,
		retryLimit:     cfg.RetryLimit,
		weights:        cfg.Weights,
	}
}

// ExecuteQuery runs Resolve -> ResolveBlocks -> Select -> Dispatch ->
// Validate -> Succeed/Retry for one client query. Only the query's pinned
// RequiredBlock is resolved, once, before the first selection; selection
// never hands control back to block resolution.
func (e *Engine) ExecuteQuery(ctx context.Context, q ClientQuery) (*QueryResponse, error) {
	dep, err := e.resolve(q)
	if err != nil {
		return nil, err
	}

	queryCtx, parseErr := costmodel.NewContext(q.Query)
	if parseErr != nil {
		return nil, &Error{Kind: MalformedQuery}
	}

	params, blockErr := e.buildParams(ctx, q)
	if blockErr != nil {
		return nil, blockErr
	}

	excluded := make(map[gtypes.Address]bool)
	committed := decimal.Zero(params.Budget.Precision())
	for attempt := 0; attempt < e.retryLimit; attempt++ {
		attemptParams := params
		attemptParams.Budget = params.Budget.SaturatingSub(committed)

		snap := e.actor.Snapshot()
		candidates := buildCandidates(snap, dep, excluded)

		sels, _, selErr := selection.SelectIndexers(candidates, attemptParams, queryCtx, snap, e.selectionLimit)
		if selErr != nil {
			return nil, &Error{Kind: MalformedQuery}
		}
		if len(sels) == 0 {
			return nil, &Error{Kind: NoIndexerSelected}
		}
		for _, s := range sels {
			committed = committed.SaturatingAdd(s.Fee)
		}

		resp, winner, ok := e.dispatch(ctx, q, sels)
		if ok {
			return &QueryResponse{
				Indexing:        winner.Indexing,
				Fee:             winner.Fee,
				GraphQLResponse: resp.GraphQLResponse,
				Attestation:     resp.Attestation,
			}, nil
		}
		for _, s := range sels {
			excluded[s.Indexing.Indexer] = true
		}
	}
	return nil, &Error{Kind: NoIndexerSelected}
}

func (e *Engine) resolve(q ClientQuery) (gtypes.DeploymentId, error) {
	if dep, err := gtypes.ParseDeploymentId(q.DeploymentOrName); err == nil {
		if !q.APIKey.Authorizes(dep) {
			return dep, &Error{Kind: APIKeySubgraphNotAuthorized}
		}
		return dep, nil
	}
	dep, ok := e.directory.Resolve(q.DeploymentOrName)
	if !ok {
		return dep, &Error{Kind: SubgraphNotFound}
	}
	if !q.APIKey.Authorizes(dep) {
		return dep, &Error{Kind: APIKeySubgraphNotAuthorized}
	}
	return dep, nil
}

func (e *Engine) buildParams(ctx context.Context, q ClientQuery) (selection.UtilityParameters, error) {
	params := selection.UtilityParameters{
		Budget:  e.defaultBudget,
		Weights: e.weights,
	}
	if !q.Budget.IsZero() {
		params.Budget = q.Budget
	}
	params.BlockRequirements.HasLatest = q.HasLatest

	if q.RequiredBlock == nil {
		return params, nil
	}
	heads, err := e.blocks.ResolveBlocks(ctx, q.Network, []gtypes.UnresolvedBlock{*q.RequiredBlock})
	if err != nil || len(heads) == 0 {
		return params, &Error{Kind: MissingBlocks, Unresolved: []gtypes.UnresolvedBlock{*q.RequiredBlock}}
	}
	required := heads[0].Block.Number
	params.BlockRequirements.Range = &[2]uint64{required, required}
	params.LatestBlock = required
	return params, nil
}

func buildCandidates(snap *gatewaystate.Snapshot, dep gtypes.DeploymentId, excluded map[gtypes.Address]bool) []selection.Candidate {
	indexings := snap.Indexings(dep)
	candidates := make([]selection.Candidate, 0, len(indexings))
	for _, idx := range indexings {
		if excluded[idx.Indexer] {
			continue
		}
		candidates = append(candidates, selection.Candidate{Indexing: idx})
	}
	return candidates
}

type dispatchResult struct {
	sel      selection.Selection
	resp     IndexerResponse
	err      error
	behind   bool
	duration time.Duration
}

// dispatch fans q out to every selection in parallel, returns as soon as
// the first valid response arrives, and keeps draining the rest
// best-effort in the background so their observations still reach the
// actor.
func (e *Engine) dispatch(ctx context.Context, q ClientQuery, sels []selection.Selection) (IndexerResponse, selection.Selection, bool) {
	dispatchCtx, cancel := context.WithCancel(ctx)
	results := make(chan dispatchResult, len(sels))

	for _, sel := range sels {
		sel := sel
		e.spawn(func() {
			e.issueOne(dispatchCtx, q, sel, results)
		})
	}

	for i := 0; i < len(sels); i++ {
		r := <-results
		if r.err == nil && !r.behind {
			cancel()
			e.observeSuccess(r.sel.Indexing, r.duration)
			e.drainRemaining(results, len(sels)-i-1)
			return r.resp, r.sel, true
		}
		e.observeOutcome(r)
	}
	cancel()
	return IndexerResponse{}, selection.Selection{}, false
}

func (e *Engine) issueOne(ctx context.Context, q ClientQuery, sel selection.Selection, results chan<- dispatchResult) {
	start := time.Now()
	receipt, err := e.collateral.CreateTransfer(ctx, sel.Indexing, sel.Fee)
	if err != nil {
		e.log.Warnf("queryengine: creating receipt for indexer %s: %s", sel.Indexing.Indexer, err)
		if err == ErrInsufficientCollateral {
			e.spawn(func() {
				if err := e.collateral.TopUpCollateral(ctx, sel.Indexing); err != nil {
					e.log.Warnf("queryengine: collateral top-up for indexer %s: %s", sel.Indexing.Indexer, err)
				}
			})
		}
		// Receipt creation failures are logged-and-swallowed per spec.md
		// §7; the query still proceeds without a receipt attached.
	}

	resp, err := e.transport.Query(ctx, IndexerQuery{
		Indexing:  sel.Indexing,
		URL:       sel.URL,
		Query:     q.Query,
		Variables: q.Variables,
		Receipt:   receipt,
		Fee:       sel.Fee,
	})
	duration := time.Since(start)
	if err != nil {
		results <- dispatchResult{sel: sel, err: err, duration: duration}
		return
	}
	if responseIndicatesIndexerBehind(resp.GraphQLResponse) {
		results <- dispatchResult{sel: sel, behind: true, duration: duration}
		return
	}
	results <- dispatchResult{sel: sel, resp: resp, duration: duration}
}

func (e *Engine) drainRemaining(results chan dispatchResult, n int) {
	if n <= 0 {
		return
	}
	e.spawn(func() {
		for i := 0; i < n; i++ {
			e.observeOutcome(<-results)
		}
	})
}

func (e *Engine) observeOutcome(r dispatchResult) {
	if r.behind {
		e.actor.Submit(gatewaystate.ObservationUpdate{Indexing: r.sel.Indexing, Kind: gatewaystate.IndexingBehindObservation{}})
		return
	}
	e.actor.Submit(gatewaystate.ObservationUpdate{Indexing: r.sel.Indexing, Kind: gatewaystate.FailureObservation{Penalize: true}})
}

func (e *Engine) observeSuccess(idx selection.Indexing, duration time.Duration) {
	e.actor.Submit(gatewaystate.ObservationUpdate{Indexing: idx, Kind: gatewaystate.SuccessObservation{Duration: duration}})
}

type graphqlEnvelope struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func responseIndicatesIndexerBehind(body string) bool {
	var env graphqlEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return false
	}
	for _, e := range env.Errors {
		if strings.Contains(e.Message, indexerBehindMarker) {
			return true
		}
	}
	return false
}

