package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"exoclass/internal/ingest"
	"exoclass/internal/ml"
	"exoclass/internal/predict"
	"exoclass/internal/schema"
)

// BatchRequest is the body of POST /api/predict/batch.
type BatchRequest struct {
	Observations []json.RawMessage `json:"observations"`
}

// BatchItemResponse is one entry of a batch response. Exactly one of the
// embedded result fields and Error is set.
type BatchItemResponse struct {
	Index         int                `json:"index"`
	Prediction    string             `json:"prediction,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Error         *APIError          `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /api/predict/batch.
type BatchResponse struct {
	Count   int                 `json:"count"`
	Results []BatchItemResponse `json:"results"`
}

// FeaturesResponse is the body returned by POST /api/features.
type FeaturesResponse struct {
	Schema   string          `json:"schema"`
	Columns  int             `json:"columns"`
	Features json.RawMessage `json:"features"`
}

// ModelInfo is the body returned by GET /model/info.
type ModelInfo struct {
	ml.ModelMetadata
	Labels []string `json:"labels"`
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.settings.RequestTimeout)
}

// schemaFromQuery picks the schema named by ?schema=, defaulting to def.
func schemaFromQuery(c *gin.Context, def schema.Schema) (schema.Schema, bool) {
	name := c.Query("schema")
	if name == "" {
		return def, true
	}
	sc, err := schema.ByName(name)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, err.Error(), nil)
		return schema.Schema{}, false
	}
	return sc, true
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "could not read request body", nil)
		return nil, false
	}
	return body, true
}

func (s *Server) handlePredict(sc schema.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := readBody(c)
		if !ok {
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		res, err := s.service.PredictJSON(ctx, sc, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) handlePredictBatch(c *gin.Context) {
	sc, ok := schemaFromQuery(c, schema.MissionSchema)
	if !ok {
		return
	}

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "invalid batch body: "+err.Error(), nil)
		return
	}
	if n := len(req.Observations); n > s.settings.MaxBatchSize {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeBatchTooLarge,
			fmt.Sprintf("batch of %d observations exceeds the limit of %d", n, s.settings.MaxBatchSize), nil)
		return
	}

	bodies := make([][]byte, len(req.Observations))
	for i, raw := range req.Observations {
		bodies[i] = raw
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	items, err := s.service.PredictBatch(ctx, sc, bodies)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := BatchResponse{Count: len(items), Results: make([]BatchItemResponse, len(items))}
	for i, item := range items {
		out := BatchItemResponse{Index: item.Index}
		if item.Error != nil {
			_, body := errorBody(item.Error)
			out.Error = &body
		} else {
			out.Prediction = item.Result.Label
			out.Probabilities = item.Result.Probabilities
		}
		resp.Results[i] = out
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFeatures(c *gin.Context) {
	sc, ok := schemaFromQuery(c, schema.MissionSchema)
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	obs, err := sc.Parse(body)
	if err != nil {
		s.mw.ValidationErrorsInc()
		respondError(c, err)
		return
	}
	vec, err := s.service.Explain(sc, obs)
	if err != nil {
		respondError(c, err)
		return
	}

	encoded, err := json.Marshal(vec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FeaturesResponse{Schema: sc.Name, Columns: vec.Len(), Features: encoded})
}

func (s *Server) handleHealth(c *gin.Context) {
	health := s.model.Health()

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":    statusText(health.Healthy),
		"model":     health,
		"timestamp": time.Now().UTC(),
	})
}

func statusText(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "unavailable"
}

func (s *Server) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, ModelInfo{
		ModelMetadata: s.model.Metadata(),
		Labels:        predict.Labels(),
	})
}

// ingestHandler binds a JSON array of T, acknowledges it and echoes it.
func ingestHandler[T any](s *Server, dataset string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var records []T
		if err := c.ShouldBindJSON(&records); err != nil {
			RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "invalid "+dataset+" records: "+err.Error(), nil)
			return
		}

		ack, err := ingest.Accept(s.ack, dataset, records)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ack)
	}
}
