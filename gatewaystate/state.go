package gatewaystate

import (
	"time"

	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/reputation"
	"github.com/indexnet/gateway/selection"
)

// indexerEntry is the actor's authoritative, mutable record for one
// indexer address: its info, the indexings it reports, and when it was
// last refreshed (for TTL eviction).
type indexerEntry struct {
	info      selection.IndexerInfo
	indexings map[gtypes.DeploymentId]selection.IndexingStatus
	lastSeen  time.Time
}

// state is the actor's authoritative mutable state. Only the actor
// goroutine ever touches it; Snapshot is the copy readers see.
type state struct {
	networkParams selection.NetworkParameters
	indexers      map[gtypes.Address]*indexerEntry
	subscriptions map[gtypes.Address]Subscription
	// reputations is sticky: unlike indexers/indexings, it is never evicted
	// by a TickUpdate. Reputation is learned knowledge about an indexing,
	// independent of whether that indexing is currently being reported by
	// an upstream adapter.
	reputations map[selection.Indexing]*reputation.Estimator
	ttlOverride time.Duration
}

func newState(ttl time.Duration) *state {
	return &state{
		indexers:      make(map[gtypes.Address]*indexerEntry),
		subscriptions: make(map[gtypes.Address]Subscription),
		reputations:   make(map[selection.Indexing]*reputation.Estimator),
		ttlOverride:   ttl,
	}
}

func (st *state) apply(u Update, now time.Time) {
	switch msg := u.(type) {
	case USDToGRTConversionUpdate:
		st.networkParams.USDToGRTConversion = msg.Value
	case SlashingPercentageUpdate:
		st.networkParams.SlashingPercentage = msg.Value
	case IndexersUpdate:
		st.applyIndexers(msg, now)
	case SubscriptionsUpdate:
		st.subscriptions = msg.Subscriptions
	case ObservationUpdate:
		st.applyObservation(msg, now)
	case TickUpdate:
		st.evict(msg.Now)
	}
}

func (st *state) applyIndexers(msg IndexersUpdate, now time.Time) {
	for addr, update := range msg.Indexers {
		entry, ok := st.indexers[addr]
		if !ok {
			entry = &indexerEntry{indexings: make(map[gtypes.DeploymentId]selection.IndexingStatus)}
			st.indexers[addr] = entry
		}
		entry.info = update.Info
		entry.lastSeen = now
		for dep, status := range update.Indexings {
			entry.indexings[dep] = status
		}
	}
}

func (st *state) applyObservation(msg ObservationUpdate, now time.Time) {
	est, ok := st.reputations[msg.Indexing]
	if !ok {
		est = reputation.New()
		st.reputations[msg.Indexing] = est
	}
	switch outcome := msg.Kind.(type) {
	case SuccessObservation:
		est.ObserveSuccess(outcome.Duration, now)
	case FailureObservation:
		if outcome.Penalize {
			est.ObserveFailure(now)
		}
	case IndexingBehindObservation:
		est.ObserveFailure(now)
	}
}

// evict drops any indexer whose IndexersUpdate is older than the actor's
// TTL as of now. Reputation estimators are left untouched.
func (st *state) evict(now time.Time) {
	for addr, entry := range st.indexers {
		if now.Sub(entry.lastSeen) > st.ttl() {
			delete(st.indexers, addr)
		}
	}
}

func (st *state) ttl() time.Duration {
	if st.ttlOverride > 0 {
		return st.ttlOverride
	}
	return 10 * time.Minute
}

func (st *state) snapshot() *Snapshot {
	indexers := make(map[gtypes.Address]selection.IndexerInfo, len(st.indexers))
	indexings := make(map[selection.Indexing]selection.IndexingStatus)
	for addr, entry := range st.indexers {
		indexers[addr] = entry.info
		for dep, status := range entry.indexings {
			indexings[selection.Indexing{Indexer: addr, Deployment: dep}] = status
		}
	}
	subscriptions := make(map[gtypes.Address]Subscription, len(st.subscriptions))
	for k, v := range st.subscriptions {
		subscriptions[k] = v
	}
	reputations := make(map[selection.Indexing]reputationValues, len(st.reputations))
	for idx, est := range st.reputations {
		reputations[idx] = reputationValues{successRate: est.SuccessRate(), latencyMs: est.LatencyMs()}
	}
	return &Snapshot{
		networkParams: st.networkParams,
		indexers:      indexers,
		indexings:     indexings,
		subscriptions: subscriptions,
		reputations:   reputations,
	}
}
