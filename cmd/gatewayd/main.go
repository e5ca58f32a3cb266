package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/indexnet/gateway/adapters"
	"github.com/indexnet/gateway/config"
	"github.com/indexnet/gateway/costmodel"
	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gatewaystate"
	"github.com/indexnet/gateway/httpapi"
	"github.com/indexnet/gateway/metrics"
	"github.com/indexnet/gateway/queryengine"
	"github.com/indexnet/gateway/selection"
	"github.com/indexnet/gateway/signal"
	"github.com/indexnet/gateway/store"
	"github.com/indexnet/gateway/util/panics"
)

func main() {
	defer panics.HandlePanic(log, nil)

	cfg, err := config.Parse()
	if err != nil {
		panic(fmt.Errorf("error parsing configuration: %s", err))
	}

	budget, err := decimal.Parse(cfg.QueryBudget, costmodel.FeePrecision)
	if err != nil {
		panic(fmt.Errorf("error parsing QUERY_BUDGET: %s", err))
	}

	if cfg.StatsDBHost != "" {
		err = store.Connect(store.Config{
			Host:     cfg.StatsDBHost,
			Port:     cfg.StatsDBPort,
			Name:     cfg.StatsDBName,
			User:     cfg.StatsDBUser,
			Password: cfg.StatsDBPassword,
		})
		if err != nil {
			panic(fmt.Errorf("error connecting to stats database: %s", err))
		}
		defer func() {
			if err := store.Close(); err != nil {
				panic(fmt.Errorf("error closing stats database: %s", err))
			}
		}()
	}

	registry := prometheus.NewRegistry()
	metricSet := metrics.New(registry)

	actor := gatewaystate.NewActor(log, 10*time.Minute)
	actorCtx, cancelActor := context.WithCancel(context.Background())
	defer cancelActor()
	spawn(func() { actor.Run(actorCtx) })
	spawn(func() { runEvictionTicker(actorCtx, actor) })

	engine := queryengine.New(
		log,
		actor,
		adapters.NewStaticDirectory(),
		adapters.NewStaticBlockResolver(),
		adapters.NewHTTPIndexerTransport(10*time.Second),
		adapters.NoopCollateralBroker{},
		queryengine.Config{
			DefaultBudget:  budget,
			SelectionLimit: cfg.IndexerSelectionLimit,
			RetryLimit:     3,
			Weights: selection.UtilityWeights{
				EconomicSecurity: 1,
				PriceEfficiency:  1,
				DataFreshness:    1,
				Performance:      1,
				Reputation:       1,
			},
		},
	)

	router := &httpapi.Router{Engine: engine, Actor: actor, Network: "mainnet", Metrics: metricSet}

	shutdownQueryServer := startHTTPServer(fmt.Sprintf(":%d", cfg.Port), router.NewRouter())
	defer shutdownQueryServer()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	shutdownMetricsServer := startHTTPServer(fmt.Sprintf(":%d", cfg.MetricsPort), metricsMux)
	defer shutdownMetricsServer()

	interrupt := signal.InterruptListener()
	<-interrupt
}

// evictionTickInterval is how often the actor re-checks for indexers and
// indexings whose TTL has lapsed without a refreshing IndexersUpdate.
const evictionTickInterval = time.Minute

func runEvictionTicker(ctx context.Context, actor *gatewaystate.Actor) {
	ticker := time.NewTicker(evictionTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			actor.Submit(gatewaystate.TickUpdate{Now: now})
		}
	}
}

func startHTTPServer(addr string, handler http.Handler) func() {
	srv := &http.Server{Addr: addr, Handler: handler}
	spawn(func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("HTTP server on %s stopped: %s", addr, err)
		}
	})
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("error shutting down HTTP server on %s: %s", addr, err)
		}
	}
}
