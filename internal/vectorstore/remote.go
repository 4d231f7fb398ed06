package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RemoteStore talks to a hosted vector index over HTTP with bearer-token
// auth: POST /vectors/upsert for writes, POST /query for searches.
type RemoteStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

// NewRemoteStore creates a client for the index at baseURL.
func NewRemoteStore(baseURL, apiKey string, log *zap.Logger) *RemoteStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RemoteStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

type upsertRequest struct {
	Vectors []VectorRecord `json:"vectors"`
}

// Upsert writes the records as one batch. The index applies the batch
// insert-or-update keyed by record id.
func (s *RemoteStore) Upsert(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.post(ctx, "/vectors/upsert", upsertRequest{Vectors: records}, nil); err != nil {
		return err
	}
	s.log.Debug("upserted vectors", zap.Int("count", len(records)))
	return nil
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches *[]Match `json:"matches"`
}

// Query returns up to topK nearest matches in the index's rank order.
func (s *RemoteStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	var resp queryResponse
	if err := s.post(ctx, "/query", queryRequest{Vector: vector, TopK: topK, IncludeMetadata: true}, &resp); err != nil {
		return nil, err
	}
	// A response without a matches list is malformed, distinct from an
	// empty result set.
	if resp.Matches == nil {
		return nil, fmt.Errorf("%w: response has no matches field", ErrVectorStore)
	}
	return *resp.Matches, nil
}

// Close releases idle connections.
func (s *RemoteStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *RemoteStore) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrVectorStore, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrVectorStore, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrVectorStore, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respData, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s returned %d: %s", ErrVectorStore, path, resp.StatusCode, string(respData))
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("%w: decode %s response: %v", ErrVectorStore, path, err)
		}
	}
	return nil
}
