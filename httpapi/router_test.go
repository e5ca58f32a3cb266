package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/decred/slog"

	"github.com/indexnet/gateway/costmodel"
	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gatewaystate"
	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/queryengine"
	"github.com/indexnet/gateway/selection"
)

type fakeDirectory struct{}

func (fakeDirectory) Resolve(name string) (gtypes.DeploymentId, bool) { return gtypes.DeploymentId{}, false }

type fakeBlocks struct{}

func (fakeBlocks) ResolveBlocks(ctx context.Context, network string, unresolved []gtypes.UnresolvedBlock) ([]gtypes.BlockHead, error) {
	return nil, nil
}

type fakeTransport struct{}

func (fakeTransport) Query(ctx context.Context, q queryengine.IndexerQuery) (queryengine.IndexerResponse, error) {
	return queryengine.IndexerResponse{GraphQLResponse: `{"data":{"ok":true}}`}, nil
}

type fakeCollateral struct{}

func (fakeCollateral) CreateTransfer(ctx context.Context, idx selection.Indexing, fee decimal.Decimal) (string, error) {
	return "", nil
}
func (fakeCollateral) TopUpCollateral(ctx context.Context, idx selection.Indexing) error { return nil }

func testRouter(t *testing.T) (*Router, gtypes.DeploymentId) {
	t.Helper()
	var dep gtypes.DeploymentId
	dep[31] = 1
	var ix gtypes.Address
	ix[19] = 1

	actor := gatewaystate.NewActor(slog.Disabled, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go actor.Run(ctx)

	actor.Submit(gatewaystate.IndexersUpdate{Indexers: map[gtypes.Address]gatewaystate.IndexerUpdate{
		ix: {
			Info: selection.IndexerInfo{URL: "http://indexer", Stake: decimal.MustParse("100", 18)},
			Indexings: map[gtypes.DeploymentId]selection.IndexingStatus{
				dep: {
					Allocations: map[gtypes.Address]decimal.Decimal{ix: decimal.MustParse("1", 18)},
					CostModel:   &costmodel.CostModel{Default: decimal.MustParse("0.0001", costmodel.FeePrecision)},
				},
			},
		},
	}})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := actor.Snapshot().Indexer(ix); ok {
			break
		}
		time.Sleep(time.Millisecond)
	}

	engine := queryengine.New(slog.Disabled, actor, fakeDirectory{}, fakeBlocks{}, fakeTransport{}, fakeCollateral{}, queryengine.Config{
		DefaultBudget:  decimal.MustParse("0.001", costmodel.FeePrecision),
		SelectionLimit: selection.SelectionLimit,
		RetryLimit:     3,
		Weights: selection.UtilityWeights{
			EconomicSecurity: 1, PriceEfficiency: 1, DataFreshness: 1, Performance: 1, Reputation: 1,
		},
	})

	return &Router{Engine: engine, Actor: actor, Network: "mainnet"}, dep
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := testRouter(t)
	rr := httptest.NewRecorder()
	router.NewRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestSnapshotEndpointListsIndexers(t *testing.T) {
	router, _ := testRouter(t)
	rr := httptest.NewRecorder()
	router.NewRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/snapshot", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var out map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(out["indexers"]) != 1 {
		t.Errorf("indexers = %v, want exactly one", out["indexers"])
	}
}

func TestQueryEndpointSuccess(t *testing.T) {
	router, dep := testRouter(t)
	body, _ := json.Marshal(map[string]string{"query": "{ entities { id } }"})
	req := httptest.NewRequest(http.MethodPost, "/subgraphs/id/"+dep.String(), bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.NewRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestQueryEndpointUnknownSubgraphName(t *testing.T) {
	router, _ := testRouter(t)
	body, _ := json.Marshal(map[string]string{"query": "{ entities { id } }"})
	req := httptest.NewRequest(http.MethodPost, "/subgraphs/id/not-a-registered-subgraph-name", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.NewRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestQueryEndpointNoIndexerForDeployment(t *testing.T) {
	router, _ := testRouter(t)
	var other gtypes.DeploymentId
	other[31] = 0xFF
	body, _ := json.Marshal(map[string]string{"query": "{ entities { id } }"})
	req := httptest.NewRequest(http.MethodPost, "/subgraphs/id/"+other.String(), bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.NewRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}
