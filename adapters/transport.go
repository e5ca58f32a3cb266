package adapters

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/indexnet/gateway/gtypes"
	"github.com/indexnet/gateway/queryengine"
)

// HTTPIndexerTransport issues one query against one indexer over HTTP,
// per the wire format spec.md §6 documents: a JSON body carrying the
// query and variables, and a response wrapping the raw GraphQL body in
// graphQLResponse alongside an optional attestation.
type HTTPIndexerTransport struct {
	Client *http.Client
}

// NewHTTPIndexerTransport returns a transport with a bounded per-request
// timeout; the execution loop's own context still governs cancellation
// across retries.
func NewHTTPIndexerTransport(timeout time.Duration) *HTTPIndexerTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPIndexerTransport{Client: &http.Client{Timeout: timeout}}
}

type requestBody struct {
	Query     string `json:"query"`
	Variables string `json:"variables,omitempty"`
	Receipt   string `json:"receipt,omitempty"`
}

type attestationWire struct {
	RequestCID           string `json:"requestCID"`
	ResponseCID          string `json:"responseCID"`
	SubgraphDeploymentID string `json:"subgraphDeploymentID"`
	V                    int    `json:"v"`
	R                    string `json:"r"`
	S                    string `json:"s"`
}

type responseBody struct {
	GraphQLResponse string           `json:"graphQLResponse"`
	Attestation     *attestationWire `json:"attestation,omitempty"`
}

// Query implements queryengine.IndexerTransport.
func (t *HTTPIndexerTransport) Query(ctx context.Context, q queryengine.IndexerQuery) (queryengine.IndexerResponse, error) {
	payload, err := json.Marshal(requestBody{Query: q.Query, Variables: q.Variables, Receipt: q.Receipt})
	if err != nil {
		return queryengine.IndexerResponse{}, fmt.Errorf("adapters: encoding indexer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.URL, bytes.NewReader(payload))
	if err != nil {
		return queryengine.IndexerResponse{}, fmt.Errorf("adapters: building indexer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return queryengine.IndexerResponse{}, fmt.Errorf("adapters: indexer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return queryengine.IndexerResponse{}, fmt.Errorf("adapters: reading indexer response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return queryengine.IndexerResponse{}, fmt.Errorf("adapters: indexer returned status %d", resp.StatusCode)
	}

	var wire responseBody
	if err := json.Unmarshal(body, &wire); err != nil {
		return queryengine.IndexerResponse{}, fmt.Errorf("adapters: decoding indexer response: %w", err)
	}

	att, err := decodeAttestation(wire.Attestation)
	if err != nil {
		return queryengine.IndexerResponse{}, err
	}
	return queryengine.IndexerResponse{GraphQLResponse: wire.GraphQLResponse, Attestation: att}, nil
}

func decodeAttestation(w *attestationWire) (*queryengine.Attestation, error) {
	if w == nil {
		return nil, nil
	}
	reqCID, err := decodeHex32(w.RequestCID)
	if err != nil {
		return nil, fmt.Errorf("adapters: decoding requestCID: %w", err)
	}
	respCID, err := decodeHex32(w.ResponseCID)
	if err != nil {
		return nil, fmt.Errorf("adapters: decoding responseCID: %w", err)
	}
	dep, err := gtypes.ParseDeploymentId(w.SubgraphDeploymentID)
	if err != nil {
		return nil, fmt.Errorf("adapters: decoding subgraphDeploymentID: %w", err)
	}
	r, err := decodeHex32(w.R)
	if err != nil {
		return nil, fmt.Errorf("adapters: decoding attestation r: %w", err)
	}
	s, err := decodeHex32(w.S)
	if err != nil {
		return nil, fmt.Errorf("adapters: decoding attestation s: %w", err)
	}
	return &queryengine.Attestation{
		RequestCID:           reqCID,
		ResponseCID:          respCID,
		SubgraphDeploymentID: dep,
		V:                    byte(w.V),
		R:                    r,
		S:                    s,
	}, nil
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	trimmed := s
	if len(trimmed) >= 2 && trimmed[:2] == "0x" {
		trimmed = trimmed[2:]
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("adapters: expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
