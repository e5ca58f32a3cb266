package gatewaystate

import (
	"context"
	"testing"
	"time"

	"github.com/decred/slog"

	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/selection"
)

func testAddr(b byte) gtypes.Address {
	var a gtypes.Address
	a[len(a)-1] = b
	return a
}

func testDeployment(b byte) gtypes.DeploymentId {
	var d gtypes.DeploymentId
	d[len(d)-1] = b
	return d
}

func TestEmptyActorPublishesEmptySnapshot(t *testing.T) {
	a := NewActor(slog.Disabled, time.Minute)
	snap := a.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() = nil, want an initial empty snapshot")
	}
	if _, ok := snap.Indexer(testAddr(1)); ok {
		t.Error("empty snapshot unexpectedly has an indexer")
	}
}

func TestIndexersUpdatePublishesToSnapshot(t *testing.T) {
	a := NewActor(slog.Disabled, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	dep := testDeployment(1)
	ix := testAddr(1)
	a.Submit(IndexersUpdate{Indexers: map[gtypes.Address]IndexerUpdate{
		ix: {
			Info: selection.IndexerInfo{URL: "http://x", Stake: decimal.MustParse("100", 18)},
			Indexings: map[gtypes.DeploymentId]selection.IndexingStatus{
				dep: {Allocations: map[gtypes.Address]decimal.Decimal{testAddr(9): decimal.MustParse("1", 18)}},
			},
		},
	}})

	waitForCondition(t, func() bool {
		_, ok := a.Snapshot().Indexer(ix)
		return ok
	})

	snap := a.Snapshot()
	info, ok := snap.Indexer(ix)
	if !ok || info.URL != "http://x" {
		t.Fatalf("Indexer(%v) = %+v, %v", ix, info, ok)
	}
	status, ok := snap.IndexingStatus(selection.Indexing{Indexer: ix, Deployment: dep})
	if !ok || len(status.Allocations) != 1 {
		t.Fatalf("IndexingStatus = %+v, %v", status, ok)
	}
}

func TestObservationUpdatesReputation(t *testing.T) {
	a := NewActor(slog.Disabled, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	idx := selection.Indexing{Indexer: testAddr(1), Deployment: testDeployment(1)}
	a.Submit(ObservationUpdate{Indexing: idx, Kind: SuccessObservation{Duration: 100 * time.Millisecond}})

	waitForCondition(t, func() bool {
		rate, _, _ := a.Snapshot().Reputation(idx)
		return rate == 1.0
	})
}

func TestTickEvictsStaleIndexers(t *testing.T) {
	a := NewActor(slog.Disabled, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	ix := testAddr(1)
	a.Submit(IndexersUpdate{Indexers: map[gtypes.Address]IndexerUpdate{
		ix: {Info: selection.IndexerInfo{URL: "http://x"}},
	}})
	waitForCondition(t, func() bool {
		_, ok := a.Snapshot().Indexer(ix)
		return ok
	})

	a.Submit(TickUpdate{Now: time.Now().Add(time.Hour)})
	waitForCondition(t, func() bool {
		_, ok := a.Snapshot().Indexer(ix)
		return !ok
	})
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
