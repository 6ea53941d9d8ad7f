// Copyright 2026 Appsage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	appsage "github.com/appsage/appsage"
	"github.com/appsage/appsage/ai"
	"github.com/appsage/appsage/compose"
	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/index"
)

// QueryService answers natural-language questions over the ingested corpus.
// It is implemented by the root engine.
type QueryService interface {
	Ask(ctx context.Context, query string) (*appsage.AskResult, error)
	InsightCount(ctx context.Context) (int, error)
	IndexSize() int
	IndexDimension() int
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query string `json:"query"`
}

// RetrievedInsight is one retrieved insight in a query response.
type RetrievedInsight struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Category        string   `json:"category,omitempty"`
	ImpactScore     float64  `json:"impact_score"`
	SourceStat      string   `json:"source_stat,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Score           float32  `json:"score"`
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	Query    string             `json:"query"`
	Answer   string             `json:"answer"`
	Insights []RetrievedInsight `json:"insights"`
}

// ErrorResponse is the body of any failed request. For upstream model
// failures the query and retrieved insights are preserved so the caller
// still gets the context that would have grounded the answer.
type ErrorResponse struct {
	Error    string             `json:"error"`
	Query    string             `json:"query,omitempty"`
	Insights []RetrievedInsight `json:"insights,omitempty"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	InsightCount   int `json:"insight_count"`
	IndexSize      int `json:"index_size"`
	IndexDimension int `json:"index_dimension"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Handler holds the dependencies for the HTTP handlers.
type Handler struct {
	service QueryService
	logger  *slog.Logger
}

// NewHandler creates a new Handler backed by the given query service.
func NewHandler(service QueryService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.With("component", "api"),
	}
}

// HandleQuery handles POST /query requests.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Query == "" {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "query must not be empty"})
		return
	}

	result, err := h.service.Ask(r.Context(), req.Query)
	if err != nil {
		h.writeAskError(w, req.Query, result, err)
		return
	}

	sendJSON(w, http.StatusOK, QueryResponse{
		Query:    result.Query,
		Answer:   result.Answer,
		Insights: toRetrievedInsights(result.Insights),
	})
}

// writeAskError maps Ask failures to HTTP statuses. Upstream model failures
// become 502 and keep the retrieved context in the response.
func (h *Handler) writeAskError(w http.ResponseWriter, query string, result *appsage.AskResult, err error) {
	h.logger.Error("query failed", "query", query, "err", err)

	resp := ErrorResponse{Error: err.Error(), Query: query}
	if result != nil {
		resp.Insights = toRetrievedInsights(result.Insights)
	}

	switch {
	case errors.Is(err, compose.ErrUpstreamUnavailable):
		sendJSON(w, http.StatusBadGateway, resp)
	case errors.Is(err, ai.ErrModelUnavailable):
		sendJSON(w, http.StatusServiceUnavailable, resp)
	case errors.Is(err, index.ErrEmptyIndex):
		resp.Error = "no insights indexed yet, run ingest first"
		sendJSON(w, http.StatusServiceUnavailable, resp)
	default:
		sendJSON(w, http.StatusInternalServerError, resp)
	}
}

// HandleHealth handles GET /healthz requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.InsightCount(r.Context())
	if err != nil {
		h.logger.Error("error counting insights", "err", err)
		sendJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	sendJSON(w, http.StatusOK, StatsResponse{
		InsightCount:   count,
		IndexSize:      h.service.IndexSize(),
		IndexDimension: h.service.IndexDimension(),
	})
}

func toRetrievedInsights(scored []core.ScoredInsight) []RetrievedInsight {
	out := make([]RetrievedInsight, 0, len(scored))
	for _, s := range scored {
		out = append(out, RetrievedInsight{
			ID:              s.Insight.Id.String(),
			Text:            s.Insight.Text,
			Category:        s.Insight.Category,
			ImpactScore:     s.Insight.ImpactScore,
			SourceStat:      s.Insight.SourceStat,
			Tags:            s.Insight.Tags,
			Recommendations: s.Insight.Recommendations,
			Score:           s.Score,
		})
	}
	return out
}

// sendJSON writes a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
