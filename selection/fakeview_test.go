package selection

import "github.com/indexnet/gateway/gtypes"

// fakeView is a hand-built View for tests: a snapshot frozen at construction
// time, with no actor or concurrency behind it.
type fakeView struct {
	infos       map[gtypes.Address]IndexerInfo
	statuses    map[Indexing]IndexingStatus
	netParams   NetworkParameters
	reputations map[Indexing][2]float64 // [successRate, latencyMs]
}

func newFakeView() *fakeView {
	return &fakeView{
		infos:       make(map[gtypes.Address]IndexerInfo),
		statuses:    make(map[Indexing]IndexingStatus),
		reputations: make(map[Indexing][2]float64),
	}
}

func (v *fakeView) Indexer(addr gtypes.Address) (IndexerInfo, bool) {
	info, ok := v.infos[addr]
	return info, ok
}

func (v *fakeView) IndexingStatus(idx Indexing) (IndexingStatus, bool) {
	status, ok := v.statuses[idx]
	return status, ok
}

func (v *fakeView) NetworkParameters() NetworkParameters {
	return v.netParams
}

func (v *fakeView) Reputation(idx Indexing) (float64, float64, bool) {
	if r, ok := v.reputations[idx]; ok {
		return r[0], r[1], true
	}
	return 0.5, 0, false
}

func addr(b byte) gtypes.Address {
	var a gtypes.Address
	a[len(a)-1] = b
	return a
}

func deployment(b byte) gtypes.DeploymentId {
	var d gtypes.DeploymentId
	d[len(d)-1] = b
	return d
}
