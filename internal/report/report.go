package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"connprobe/internal/batch"
	"connprobe/internal/probe"
	"connprobe/pkg/logger"
)

// Record is the flat per-endpoint form written to JSON reports.
type Record struct {
	Host                  string    `json:"host"`
	Port                  uint16    `json:"port"`
	IPVersion             string    `json:"ip_version"`
	Success               bool      `json:"success"`
	FinalResult           string    `json:"final_result"`
	BestResponseTimeMs    float64   `json:"best_response_time_ms"`
	AverageResponseTimeMs float64   `json:"average_response_time_ms"`
	FailureRate           float64   `json:"failure_rate"`
	RecommendedAction     string    `json:"recommended_action"`
	ErrorPattern          string    `json:"error_pattern,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
}

// Document is the full report file layout.
type Document struct {
	BatchID     string        `json:"batch_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	DurationMs  float64       `json:"duration_ms"`
	Summary     batch.Summary `json:"summary"`
	Endpoints   []Record      `json:"endpoints"`
}

// Flatten converts an engine result into the flat record form.
func Flatten(res probe.EndpointResult) Record {
	return Record{
		Host:                  res.Endpoint.Host,
		Port:                  res.Endpoint.Port,
		IPVersion:             res.Endpoint.IPVersion.String(),
		Success:               res.Success,
		FinalResult:           res.FinalResult.String(),
		BestResponseTimeMs:    res.BestResponseTimeMs,
		AverageResponseTimeMs: res.AverageResponseTimeMs,
		FailureRate:           res.FailureRate,
		RecommendedAction:     res.RecommendedAction,
		ErrorPattern:          res.ErrorPattern,
		Timestamp:             res.Timestamp,
	}
}

// Build assembles the report document for a completed batch.
func Build(rep *batch.Report) *Document {
	doc := &Document{
		BatchID:     rep.ID,
		GeneratedAt: time.Now(),
		DurationMs:  float64(rep.Duration) / float64(time.Millisecond),
		Summary:     rep.Summary,
		Endpoints:   make([]Record, 0, len(rep.Results)),
	}
	for _, res := range rep.Results {
		doc.Endpoints = append(doc.Endpoints, Flatten(res))
	}
	return doc
}

// Write persists the report document as JSON at the given path, creating
// parent directories as needed.
func Write(path string, rep *batch.Report, pretty bool) error {
	doc := Build(rep)

	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// LogSummary emits the aggregate batch outcome through the structured logger.
func LogSummary(log *logger.Logger, rep *batch.Report) {
	if log == nil {
		return
	}
	log = log.WithComponent("report")

	log.Info("batch summary",
		"batch_id", rep.ID,
		"endpoints", rep.Summary.Total,
		"succeeded", rep.Summary.Succeeded,
		"failed", rep.Summary.Failed,
		"duration", rep.Duration.String(),
		"min_response_ms", rep.Summary.MinResponseTimeMs,
		"avg_response_ms", rep.Summary.AvgResponseTimeMs,
		"max_response_ms", rep.Summary.MaxResponseTimeMs,
		"pool_created", rep.Summary.PoolCreated,
		"pool_reused", rep.Summary.PoolReused,
	)

	for _, res := range rep.Results {
		if res.Success {
			continue
		}
		log.Warn("endpoint unreachable",
			"endpoint", res.Endpoint.Key(),
			"result", res.FinalResult.String(),
			"pattern", res.ErrorPattern,
			"action", res.RecommendedAction,
		)
	}
}
