// Package config parses the gateway's process configuration from
// environment variables and command-line flags.
package config

import (
	"errors"

	"github.com/jessevdk/go-flags"
)

const (
	defaultSelectionLimit  = 5
	defaultQueryBudget     = "0.0005"
	defaultPort            = 7600
	defaultMetricsPort     = 7601
	defaultRateLimitWindow = "1m"
)

// Config holds every recognized environment/flag key the gateway reads at
// startup.
type Config struct {
	Mnemonic                string `long:"mnemonic" env:"MNEMONIC" description:"seed phrase for the receipt signer" required:"true"`
	SyncAgent               string `long:"sync-agent" env:"SYNC_AGENT" description:"deployment directory URL"`
	EthereumProviders       string `long:"ethereum-providers" env:"ETHEREUM_PROVIDERS" description:"<net>=<rest>[,<ws>];… list of chain RPC endpoints"`
	NetworkSubgraph         string `long:"network-subgraph" env:"NETWORK_SUBGRAPH" description:"network subgraph query URL"`
	NetworkSubgraphAuthToken string `long:"network-subgraph-auth-token" env:"NETWORK_SUBGRAPH_AUTH_TOKEN" description:"bearer token for the network subgraph"`

	IndexerSelectionLimit int    `long:"indexer-selection-limit" env:"INDEXER_SELECTION_LIMIT" description:"maximum indexers selected per query"`
	QueryBudget           string `long:"query-budget" env:"QUERY_BUDGET" description:"default per-query budget in GRT"`

	Port        int `long:"port" env:"PORT" description:"HTTP port serving client queries"`
	MetricsPort int `long:"metrics-port" env:"METRICS_PORT" description:"HTTP port serving /metrics"`

	IPRateLimit         int    `long:"ip-rate-limit" env:"IP_RATE_LIMIT" description:"requests allowed per source IP per window"`
	IPRateLimitWindow   string `long:"ip-rate-limit-window" env:"IP_RATE_LIMIT_WINDOW" description:"window duration for ip-rate-limit"`
	APIRateLimit        int    `long:"api-rate-limit" env:"API_RATE_LIMIT" description:"requests allowed per API key per window"`
	APIRateLimitWindow  string `long:"api-rate-limit-window" env:"API_RATE_LIMIT_WINDOW" description:"window duration for api-rate-limit"`

	StatsDBHost     string `long:"stats-db-host" env:"STATS_DB_HOST" description:"query-log database host"`
	StatsDBPort     int    `long:"stats-db-port" env:"STATS_DB_PORT" description:"query-log database port"`
	StatsDBName     string `long:"stats-db-name" env:"STATS_DB_NAME" description:"query-log database name"`
	StatsDBUser     string `long:"stats-db-user" env:"STATS_DB_USER" description:"query-log database user"`
	StatsDBPassword string `long:"stats-db-password" env:"STATS_DB_PASSWORD" description:"query-log database password"`

	LogJSON bool `long:"log-json" env:"LOG_JSON" description:"emit structured JSON logs instead of human-readable text"`
}

// Parse parses process configuration from the environment and CLI flags,
// applying documented defaults to any field left unset.
func Parse() (*Config, error) {
	cfg := &Config{
		IndexerSelectionLimit: defaultSelectionLimit,
		QueryBudget:           defaultQueryBudget,
		Port:                  defaultPort,
		MetricsPort:           defaultMetricsPort,
		IPRateLimitWindow:     defaultRateLimitWindow,
		APIRateLimitWindow:    defaultRateLimitWindow,
	}

	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag|flags.IgnoreUnknown)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.IndexerSelectionLimit <= 0 {
		return nil, errors.New("--indexer-selection-limit must be positive")
	}
	if cfg.Port == cfg.MetricsPort {
		return nil, errors.New("--port and --metrics-port must differ")
	}

	return cfg, nil
}
