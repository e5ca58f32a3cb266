package gatewaystate

import (
	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/reputation"
	"github.com/indexnet/gateway/selection"
)

// reputationValues is a point-in-time copy of an estimator's readings.
// Snapshots hold values, never the live *reputation.Estimator, so that an
// Observation applied after publication can never be observed by a reader
// still holding an older snapshot.
type reputationValues struct {
	successRate float64
	latencyMs   float64
}

// Snapshot is the immutable, point-in-time view of the actor's state that
// selection.SelectIndexers scores candidates against. It satisfies
// selection.View.
type Snapshot struct {
	networkParams selection.NetworkParameters
	indexers      map[gtypes.Address]selection.IndexerInfo
	indexings     map[selection.Indexing]selection.IndexingStatus
	subscriptions map[gtypes.Address]Subscription
	reputations   map[selection.Indexing]reputationValues
}

var _ selection.View = (*Snapshot)(nil)

// Indexer implements selection.View.
func (s *Snapshot) Indexer(addr gtypes.Address) (selection.IndexerInfo, bool) {
	info, ok := s.indexers[addr]
	return info, ok
}

// IndexingStatus implements selection.View.
func (s *Snapshot) IndexingStatus(idx selection.Indexing) (selection.IndexingStatus, bool) {
	status, ok := s.indexings[idx]
	return status, ok
}

// NetworkParameters implements selection.View.
func (s *Snapshot) NetworkParameters() selection.NetworkParameters {
	return s.networkParams
}

// Reputation implements selection.View, falling back to the neutral
// success-rate prior and hasHistory=false for an indexing the actor has
// never received an Observation for.
func (s *Snapshot) Reputation(idx selection.Indexing) (float64, float64, bool) {
	r, ok := s.reputations[idx]
	if !ok {
		return reputation.NeutralSuccessRate, reputation.NeutralLatencyMs, false
	}
	return r.successRate, r.latencyMs, true
}

// Subscription returns the active subscription for a user address, if any.
func (s *Snapshot) Subscription(user gtypes.Address) (Subscription, bool) {
	sub, ok := s.subscriptions[user]
	return sub, ok
}

// IndexerAddresses returns every indexer address currently tracked, for
// operational introspection (e.g. an HTTP snapshot endpoint).
func (s *Snapshot) IndexerAddresses() []gtypes.Address {
	out := make([]gtypes.Address, 0, len(s.indexers))
	for addr := range s.indexers {
		out = append(out, addr)
	}
	return out
}

// Indexings returns every Indexing recorded for the given deployment, for
// building a Candidate list. The returned slice is a fresh copy.
func (s *Snapshot) Indexings(deployment gtypes.DeploymentId) []selection.Indexing {
	var out []selection.Indexing
	for idx := range s.indexings {
		if idx.Deployment == deployment {
			out = append(out, idx)
		}
	}
	return out
}
