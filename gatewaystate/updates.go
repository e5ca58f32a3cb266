// Package gatewaystate runs the single-writer observation actor: it folds a
// stream of Update messages from upstream adapters (and the execution
// loop's own observations) into an authoritative State, then publishes an
// immutable Snapshot that readers can hold onto for the lifetime of a
// single selection call.
package gatewaystate

import (
	"time"

	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/selection"
)

// Update is one message the actor folds into its state, in arrival order.
type Update interface{ isUpdate() }

// USDToGRTConversionUpdate replaces the network-wide GRT/USD conversion
// rate.
type USDToGRTConversionUpdate struct{ Value decimal.Decimal }

func (USDToGRTConversionUpdate) isUpdate() {}

// SlashingPercentageUpdate replaces the network-wide slashing percentage
// (parts-per-million).
type SlashingPercentageUpdate struct{ Value decimal.Decimal }

func (SlashingPercentageUpdate) isUpdate() {}

// IndexerUpdate is one indexer's refreshed info and the indexings it
// reports.
type IndexerUpdate struct {
	Info      selection.IndexerInfo
	Indexings map[gtypes.DeploymentId]selection.IndexingStatus
}

// IndexersUpdate refreshes a batch of indexers at once; an indexer absent
// from a previous IndexersUpdate but present here is created, matching the
// source's "upstream adapters create on first observation" lifecycle.
type IndexersUpdate struct{ Indexers map[gtypes.Address]IndexerUpdate }

func (IndexersUpdate) isUpdate() {}

// Subscription authorizes query signing on behalf of a user address.
type Subscription struct {
	Signers []gtypes.Address
	Rate    decimal.Decimal
}

// SubscriptionsUpdate replaces the full set of active subscriptions, as
// refreshed periodically (every 30s, per the source) by an upstream
// adapter.
type SubscriptionsUpdate struct{ Subscriptions map[gtypes.Address]Subscription }

func (SubscriptionsUpdate) isUpdate() {}

// ObservationKind is the outcome of one execution-loop attempt against an
// indexing, fed back to the actor to update its reputation estimators.
type ObservationKind interface{ isObservationKind() }

// SuccessObservation records a successful query attempt.
type SuccessObservation struct {
	Duration time.Duration
	Receipt  string
}

func (SuccessObservation) isObservationKind() {}

// FailureObservation records a failed query attempt. Penalize controls
// whether the failure should count against the success-rate estimator (a
// transport error the indexer had no control over, such as a client
// cancellation, should not).
type FailureObservation struct {
	Receipt  string
	Penalize bool
}

func (FailureObservation) isObservationKind() {}

// IndexingBehindObservation records that an indexer reported it has not
// yet indexed a block the query required, distinct from an ordinary
// failure.
type IndexingBehindObservation struct{}

func (IndexingBehindObservation) isObservationKind() {}

// ObservationUpdate feeds one execution-loop outcome back into the
// indexing's reputation estimator.
type ObservationUpdate struct {
	Indexing selection.Indexing
	Kind     ObservationKind
}

func (ObservationUpdate) isUpdate() {}

// TickUpdate drives TTL eviction: any indexer that has not been refreshed
// by an IndexersUpdate within the actor's TTL is dropped as of Now. This is
// how liveness-based eviction is expressed as a message on the same single
// serial stream as every other state change, rather than as a second
// writer racing the actor.
type TickUpdate struct{ Now time.Time }

func (TickUpdate) isUpdate() {}
