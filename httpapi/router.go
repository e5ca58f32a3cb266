// Package httpapi exposes the gateway's client-facing query endpoint and
// operational surfaces (health, snapshot introspection) over HTTP, using
// a thin-handler-plus-makeHandler-adapter style.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/indexnet/gateway/gatewaystate"
	"github.com/indexnet/gateway/metrics"
	"github.com/indexnet/gateway/queryengine"
)

const routeParamDeployment = "deployment"

// Context carries the per-request values a handler needs beyond the
// parsed route/query parameters: the resolved API key.
type Context struct {
	APIKey queryengine.APIKey
}

// KeyResolver authenticates an inbound request's API key. Implementations
// typically look the key up in a store keyed on a bearer token or a path
// segment; AllowAllKeyResolver is the degenerate case used when no
// permit-list is configured.
type KeyResolver interface {
	Resolve(r *http.Request) (queryengine.APIKey, *HandlerError)
}

// AllowAllKeyResolver authorizes every request for every deployment. It is
// the resolver a gateway with no API-key permit-listing configured uses.
type AllowAllKeyResolver struct{}

// Resolve implements KeyResolver.
func (AllowAllKeyResolver) Resolve(r *http.Request) (queryengine.APIKey, *HandlerError) {
	return queryengine.APIKey{AllDeployments: true}, nil
}

// Router builds the gateway's HTTP surface.
type Router struct {
	Engine  *queryengine.Engine
	Actor   *gatewaystate.Actor
	Keys    KeyResolver
	Network string
	Metrics *metrics.Metrics
}

// NewRouter wires a *mux.Router with the gateway's routes.
func (h *Router) NewRouter() *mux.Router {
	if h.Keys == nil {
		h.Keys = AllowAllKeyResolver{}
	}
	router := mux.NewRouter()
	router.HandleFunc("/", makeHandler(h.mainHandler))
	router.HandleFunc("/health", makeHandler(h.healthHandler)).Methods(http.MethodGet)
	router.HandleFunc("/snapshot", makeHandler(h.snapshotHandler)).Methods(http.MethodGet)
	router.HandleFunc(
		fmt.Sprintf("/subgraphs/id/{%s}", routeParamDeployment),
		h.queryHandler,
	).Methods(http.MethodPost)
	return router
}

func makeHandler(handler func(routeParams map[string]string, r *http.Request) (interface{}, *HandlerError)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		response, hErr := handler(mux.Vars(r), r)
		if hErr != nil {
			sendErr(w, hErr)
			return
		}
		sendJSONResponse(w, http.StatusOK, response)
	}
}

func sendErr(w http.ResponseWriter, hErr *HandlerError) {
	sendJSONResponse(w, hErr.Code, map[string]string{"error": hErr.Message})
}

func sendJSONResponse(w http.ResponseWriter, status int, response interface{}) {
	b, err := json.Marshal(response)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func (h *Router) mainHandler(_ map[string]string, _ *http.Request) (interface{}, *HandlerError) {
	return "gateway is running", nil
}

func (h *Router) healthHandler(_ map[string]string, _ *http.Request) (interface{}, *HandlerError) {
	return map[string]string{"status": "ok"}, nil
}

func (h *Router) snapshotHandler(_ map[string]string, _ *http.Request) (interface{}, *HandlerError) {
	snap := h.Actor.Snapshot()
	if snap == nil {
		return nil, NewInternalServerHandlerError("no snapshot published yet")
	}
	addrs := snap.IndexerAddresses()
	rendered := make([]string, len(addrs))
	for i, a := range addrs {
		rendered[i] = a.String()
	}
	return map[string]interface{}{"indexers": rendered}, nil
}

type queryRequest struct {
	Query     string `json:"query"`
	Variables string `json:"variables"`
}

func (h *Router) queryHandler(w http.ResponseWriter, r *http.Request) {
	deployment := mux.Vars(r)[routeParamDeployment]

	apiKey, hErr := h.Keys.Resolve(r)
	if hErr != nil {
		sendErr(w, hErr)
		return
	}

	if h.Metrics != nil {
		h.Metrics.QueriesTotal.WithLabelValues(deployment, apiKey.Key).Inc()
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		sendErr(w, NewHandlerError(http.StatusBadRequest, "could not read request body"))
		return
	}
	var req queryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		sendErr(w, NewHandlerError(http.StatusBadRequest, "malformed JSON request body"))
		return
	}

	resp, err := h.Engine.ExecuteQuery(r.Context(), queryengine.ClientQuery{
		DeploymentOrName: deployment,
		Query:            req.Query,
		Variables:        req.Variables,
		APIKey:           apiKey,
		Network:          h.Network,
	})
	if err != nil {
		qErr, ok := err.(*queryengine.Error)
		if !ok {
			sendErr(w, NewInternalServerHandlerError(err.Error()))
			return
		}
		if h.Metrics != nil {
			h.Metrics.QueryErrorsTotal.WithLabelValues(deployment, qErr.Kind.String()).Inc()
		}
		sendErr(w, NewHandlerError(qErr.Kind.StatusCode(), qErr.Error()))
		return
	}

	sendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"graphQLResponse": resp.GraphQLResponse,
		"fee":             resp.Fee.String(),
		"indexer":         resp.Indexing.Indexer.String(),
	})
}
