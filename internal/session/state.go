package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Fixed operator-facing upload messages.
const (
	StatusChooseFile = "Choose a CSV first"
	StatusUploading  = "Uploading..."
)

type PredictionKind int

const (
	PredictionNone PredictionKind = iota
	PredictionPending
	PredictionReady
	PredictionFailed
)

func (k PredictionKind) String() string {
	switch k {
	case PredictionPending:
		return "pending"
	case PredictionReady:
		return "ready"
	case PredictionFailed:
		return "failed"
	default:
		return "none"
	}
}

// PredictionState is the tagged result of the latest predict call.
// Payload is set only for PredictionReady and Reason only for PredictionFailed.
type PredictionState struct {
	Kind    PredictionKind
	Region  string
	Payload json.RawMessage
	Reason  string
	Seq     uint64
}

type UploadKind int

const (
	UploadIdle UploadKind = iota
	UploadRejectedLocally
	UploadSubmitting
	UploadResolvedOK
	UploadFailed
)

func (k UploadKind) String() string {
	switch k {
	case UploadRejectedLocally:
		return "rejected"
	case UploadSubmitting:
		return "submitting"
	case UploadResolvedOK:
		return "resolved"
	case UploadFailed:
		return "failed"
	default:
		return "idle"
	}
}

type UploadState struct {
	Kind     UploadKind
	File     string
	Inserted int64
	Reason   string
	Seq      uint64
}

// Status renders the upload state as the single line shown to the operator.
func (u UploadState) Status() string {
	switch u.Kind {
	case UploadRejectedLocally:
		return StatusChooseFile
	case UploadSubmitting:
		return StatusUploading
	case UploadResolvedOK:
		return fmt.Sprintf("Inserted: %d", u.Inserted)
	case UploadFailed:
		return "Upload failed: " + u.Reason
	default:
		return ""
	}
}

// State is one session's view of the world. Regions is either empty or a
// complete snapshot from a single successful load.
type State struct {
	RegionName    string
	Regions       []Region
	RegionsLoaded bool
	Prediction    PredictionState
	Upload        UploadState
	File          *SelectedFile

	// LastResolvedWins applies every resolution in arrival order. When false,
	// a resolution older than one already applied is discarded.
	LastResolvedWins bool

	regionsRequested bool
	predictIssued    uint64
	predictApplied   uint64
	uploadIssued     uint64
	uploadApplied    uint64
}

// NextPredictSeq is the sequence number the next predict call will carry.
func (s State) NextPredictSeq() uint64 { return s.predictIssued + 1 }

// NextUploadSeq is the sequence number the next upload call will carry.
func (s State) NextUploadSeq() uint64 { return s.uploadIssued + 1 }

// RegionsRequested reports whether the one region load has been issued.
func (s State) RegionsRequested() bool { return s.regionsRequested }

// Stale reports whether Reduce would discard ev.
func (s State) Stale(ev Event) bool {
	if s.LastResolvedWins {
		return false
	}
	switch ev := ev.(type) {
	case PredictResolved:
		return ev.Seq < s.predictApplied
	case UploadResolved:
		return ev.Seq < s.uploadApplied
	}
	return false
}

// Reduce applies ev to s and returns the new state. It performs no I/O.
func Reduce(s State, ev Event) State {
	if s.Stale(ev) {
		return s
	}
	switch ev := ev.(type) {
	case RegionsRequested:
		s.regionsRequested = true
	case RegionsLoaded:
		s.regionsRequested = true
		s.RegionsLoaded = true
		s.Regions = snapshotRegions(ev)
	case PredictIssued:
		if ev.Seq > s.predictIssued {
			s.predictIssued = ev.Seq
		}
		s.RegionName = ev.Region
		s.Prediction = PredictionState{Kind: PredictionPending, Region: ev.Region, Seq: ev.Seq}
	case PredictResolved:
		if ev.Seq > s.predictApplied {
			s.predictApplied = ev.Seq
		}
		s.Prediction = resolvePrediction(ev)
	case FileSelected:
		f := ev.File
		s.File = &f
	case UploadRejected:
		s.Upload = UploadState{Kind: UploadRejectedLocally}
	case UploadIssued:
		if ev.Seq > s.uploadIssued {
			s.uploadIssued = ev.Seq
		}
		s.Upload = UploadState{Kind: UploadSubmitting, File: ev.File.Name, Seq: ev.Seq}
	case UploadResolved:
		if ev.Seq > s.uploadApplied {
			s.uploadApplied = ev.Seq
		}
		s.Upload = resolveUpload(ev)
	}
	return s
}

func snapshotRegions(ev RegionsLoaded) []Region {
	if ev.Err != nil {
		return []Region{}
	}
	out := make([]Region, 0, len(ev.Regions))
	for _, r := range ev.Regions {
		if r.Population < 0 {
			return []Region{}
		}
		out = append(out, r)
	}
	return out
}

func resolvePrediction(ev PredictResolved) PredictionState {
	ps := PredictionState{Region: ev.Region, Seq: ev.Seq}
	if ev.Err != nil {
		ps.Kind = PredictionFailed
		ps.Reason = ev.Err.Error()
		return ps
	}
	raw := bytes.TrimSpace(ev.Payload)
	switch {
	case !json.Valid(raw):
		ps.Kind = PredictionFailed
		ps.Reason = "invalid JSON in prediction response"
	case bytes.Equal(raw, []byte("null")):
		ps.Kind = PredictionNone
	case raw[0] != '{':
		ps.Kind = PredictionFailed
		ps.Reason = "prediction payload is not a JSON object"
	default:
		ps.Kind = PredictionReady
		ps.Payload = append(json.RawMessage(nil), raw...)
	}
	return ps
}

func resolveUpload(ev UploadResolved) UploadState {
	us := UploadState{File: ev.File.Name, Seq: ev.Seq}
	switch {
	case ev.Err != nil:
		us.Kind = UploadFailed
		us.Reason = ev.Err.Error()
	case ev.Outcome.Inserted < 0:
		us.Kind = UploadFailed
		us.Reason = fmt.Sprintf("service reported %d inserted rows", ev.Outcome.Inserted)
	default:
		us.Kind = UploadResolvedOK
		us.Inserted = ev.Outcome.Inserted
	}
	return us
}
