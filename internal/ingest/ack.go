package ingest

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"exoclass/internal/storage"
)

// Ack is the acknowledgement returned for an ingestion request. Records are
// echoed exactly as bound.
type Ack[T any] struct {
	Dataset string `json:"dataset"`
	Count   int    `json:"count"`
	Records []T    `json:"records"`
}

// Archiver persists acknowledged batches.
type Archiver interface {
	Archive(dataset string, records any, count int) (storage.Batch, error)
}

// MetricsInterface defines metrics methods needed by ingestion
type MetricsInterface interface {
	IngestedRecordsAdd(dataset string, n int)
}

// Acknowledger builds acknowledgements and archives them when an archive
// is configured. Both dependencies are optional.
type Acknowledger struct {
	archive Archiver
	metrics MetricsInterface
}

// NewAcknowledger creates an Acknowledger.
func NewAcknowledger(archive Archiver, metrics MetricsInterface) *Acknowledger {
	return &Acknowledger{archive: archive, metrics: metrics}
}

// Accept acknowledges records for dataset. A nil slice is acknowledged as
// an empty one.
func Accept[T any](a *Acknowledger, dataset string, records []T) (Ack[T], error) {
	if records == nil {
		records = []T{}
	}
	ack := Ack[T]{Dataset: dataset, Count: len(records), Records: records}

	if a == nil {
		return ack, nil
	}
	if a.archive != nil {
		batch, err := a.archive.Archive(dataset, records, len(records))
		if err != nil {
			return Ack[T]{}, fmt.Errorf("archive %s batch: %w", dataset, err)
		}
		log.Debug().
			Str("dataset", dataset).
			Str("batch_id", batch.ID).
			Int("count", batch.Count).
			Msg("ingestion batch archived")
	}
	if a.metrics != nil {
		a.metrics.IngestedRecordsAdd(dataset, len(records))
	}
	return ack, nil
}
