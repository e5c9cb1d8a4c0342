// Package session holds the client-side state of one operator session and
// the transitions that move it. Network work is handed out as Jobs; their
// events come back through Handle on the goroutine that owns the Session.
package session

import (
	"context"
	"encoding/json"
	"time"
)

// Region is a named unit of prediction. Values are never mutated after decode.
type Region struct {
	Name       string `json:"name"`
	Population int64  `json:"population"`
}

// UploadOutcome is the service's acknowledgement of an ingested CSV.
// Fields other than inserted are ignored.
type UploadOutcome struct {
	Inserted int64 `json:"inserted"`
}

// SelectedFile is the CSV the operator picked for ingestion.
type SelectedFile struct {
	Path string
	Name string
	Size int64
}

// Transport performs the three data operations against the relief service.
type Transport interface {
	ListRegions(ctx context.Context) ([]Region, error)
	// Predict returns the raw JSON body for region. The payload structure
	// belongs to the service.
	Predict(ctx context.Context, region string) (json.RawMessage, error)
	Upload(ctx context.Context, file SelectedFile) (UploadOutcome, error)
}

// Event is anything Reduce knows how to apply.
type Event interface{ isEvent() }

// Job is the deferred network half of an operation. It may run on any
// goroutine; the Event it returns must be passed to Session.Handle.
type Job func() Event

type RegionsRequested struct{}

type RegionsLoaded struct {
	Regions []Region
	Err     error
	Elapsed time.Duration
}

type PredictIssued struct {
	Seq    uint64
	Region string
}

type PredictResolved struct {
	Seq     uint64
	Region  string
	Payload json.RawMessage
	Err     error
	Elapsed time.Duration
}

type FileSelected struct {
	File SelectedFile
}

// UploadRejected is raised when upload is triggered with no file selected.
type UploadRejected struct{}

type UploadIssued struct {
	Seq  uint64
	File SelectedFile
}

type UploadResolved struct {
	Seq     uint64
	File    SelectedFile
	Outcome UploadOutcome
	Err     error
	Elapsed time.Duration
}

func (RegionsRequested) isEvent() {}
func (RegionsLoaded) isEvent()    {}
func (PredictIssued) isEvent()    {}
func (PredictResolved) isEvent()  {}
func (FileSelected) isEvent()     {}
func (UploadRejected) isEvent()   {}
func (UploadIssued) isEvent()     {}
func (UploadResolved) isEvent()   {}
