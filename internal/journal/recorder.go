package journal

import (
	"strconv"

	"github.com/google/uuid"

	"reliefctl/internal/logging"
	"reliefctl/internal/session"
)

const (
	KindRegions = "regions"
	KindPredict = "predict"
	KindUpload  = "upload"

	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeDiscarded = "discarded"
)

// Recorder journals resolved session events. A nil *Recorder does nothing.
type Recorder struct {
	db      *DB
	session string
	log     *logging.Logger
}

func NewRecorder(db *DB, log *logging.Logger) *Recorder {
	if db == nil {
		return nil
	}
	return &Recorder{db: db, session: uuid.NewString(), log: log}
}

// SessionID identifies every entry this recorder writes.
func (r *Recorder) SessionID() string {
	if r == nil {
		return ""
	}
	return r.session
}

// Observe implements session.Observer. Write failures are logged and do not
// affect the session.
func (r *Recorder) Observe(n session.Notice) {
	if r == nil {
		return
	}
	e, ok := entryFor(n)
	if !ok {
		return
	}
	e.Session = r.session
	if err := r.db.Record(e); err != nil {
		r.log.Warnf("journal: %v", err)
	}
}

func entryFor(n session.Notice) (Entry, bool) {
	switch ev := n.Event.(type) {
	case session.RegionsLoaded:
		e := Entry{Kind: KindRegions, Subject: "regions", DurationMS: ev.Elapsed.Milliseconds()}
		if ev.Err != nil {
			e.Outcome, e.Detail = OutcomeFailed, ev.Err.Error()
		} else {
			e.Outcome, e.Detail = OutcomeOK, strconv.Itoa(len(n.State.Regions))+" regions"
		}
		return e, true
	case session.PredictResolved:
		e := Entry{Kind: KindPredict, Subject: ev.Region, DurationMS: ev.Elapsed.Milliseconds()}
		switch {
		case n.Discarded:
			e.Outcome = OutcomeDiscarded
		case ev.Err != nil:
			e.Outcome, e.Detail = OutcomeFailed, ev.Err.Error()
		case n.State.Prediction.Kind == session.PredictionFailed:
			e.Outcome, e.Detail = OutcomeFailed, n.State.Prediction.Reason
		default:
			e.Outcome, e.Detail = OutcomeOK, string(ev.Payload)
		}
		return e, true
	case session.UploadRejected:
		return Entry{Kind: KindUpload, Outcome: OutcomeRejected, Detail: session.StatusChooseFile}, true
	case session.UploadResolved:
		e := Entry{Kind: KindUpload, Subject: ev.File.Name, DurationMS: ev.Elapsed.Milliseconds()}
		switch {
		case n.Discarded:
			e.Outcome = OutcomeDiscarded
		case n.State.Upload.Kind == session.UploadResolvedOK:
			e.Outcome, e.Detail = OutcomeOK, "inserted "+strconv.FormatInt(ev.Outcome.Inserted, 10)
		default:
			e.Outcome, e.Detail = OutcomeFailed, n.State.Upload.Reason
		}
		return e, true
	}
	return Entry{}, false
}
