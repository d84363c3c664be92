// Package curation is the boundary to the external AI recommendation
// service.  The ledger computes the candidate set itself (active
// templates the customer does not already own); the recommender only
// ranks those candidates and may be unavailable, in which case callers
// fall back to the unranked list.
package curation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OwnedCoupon summarises one coupon the customer already holds.  It is
// the usage history the recommender learns from.
type OwnedCoupon struct {
	TemplateID uint64 `json:"template_id"`
	PlaceID    uint64 `json:"place_id"`
	StampCount uint32 `json:"stamp_count"`
	Completed  bool   `json:"completed"`
}

// Request is the payload sent to the recommender.  CandidateIDs is
// already filtered by the template registry's active predicate and
// excludes owned templates; the recommender must return a subset.
type Request struct {
	CustomerID   uint64        `json:"customer_id"`
	Owned        []OwnedCoupon `json:"owned"`
	CandidateIDs []uint64      `json:"candidate_ids"`
}

// Recommender ranks candidate template IDs for a customer.  The
// returned slice is ordered best-first and contains only IDs from the
// candidate set.
type Recommender interface {
	Rank(ctx context.Context, req Request) ([]uint64, error)
}

// HTTPRecommender calls a remote curation service over HTTP.  A nil
// *HTTPRecommender is a valid no-op recommender whose Rank returns the
// candidates unchanged, so the API degrades gracefully when no
// curation service is configured.
type HTTPRecommender struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRecommender returns a client for the curation service at
// baseURL, or nil when baseURL is empty.
func NewHTTPRecommender(baseURL string) *HTTPRecommender {
	if baseURL == "" {
		return nil
	}
	return &HTTPRecommender{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Rank posts the request to the curation service and returns the ranked
// template IDs.  IDs outside the candidate set are dropped so a
// misbehaving recommender cannot widen the listing.
func (r *HTTPRecommender) Rank(ctx context.Context, req Request) ([]uint64, error) {
	if r == nil {
		return req.CandidateIDs, nil
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("curation service returned status %d", resp.StatusCode)
	}
	var out struct {
		TemplateIDs []uint64 `json:"template_ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	allowed := make(map[uint64]struct{}, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		allowed[id] = struct{}{}
	}
	ranked := make([]uint64, 0, len(out.TemplateIDs))
	for _, id := range out.TemplateIDs {
		if _, ok := allowed[id]; ok {
			ranked = append(ranked, id)
		}
	}
	return ranked, nil
}
