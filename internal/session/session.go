package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	friendlyerrors "reliefctl/internal/errors"
	"reliefctl/internal/logging"
)

// Notice is what observers see after each handled event.
type Notice struct {
	Event     Event
	State     State
	Discarded bool
}

// Observer receives every handled event. It must not call back into the Session.
type Observer interface {
	Observe(n Notice)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(n Notice)

func (f ObserverFunc) Observe(n Notice) { f(n) }

// Session owns a State and the transport used to advance it. It is not safe
// for concurrent use: New, the operation methods and Handle belong to one
// goroutine. Jobs it returns may run anywhere.
type Session struct {
	state     State
	tr        Transport
	log       *logging.Logger
	observers []Observer
	now       func() time.Time
}

type Option func(*Session)

func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithObservers(obs ...Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, obs...) }
}

// WithLastResolvedWins selects the legacy ordering where the resolution
// applied last always wins, even if it belongs to an older call.
func WithLastResolvedWins(v bool) Option {
	return func(s *Session) { s.state.LastResolvedWins = v }
}

// WithRegion sets the initial region text.
func WithRegion(name string) Option {
	return func(s *Session) { s.state.RegionName = name }
}

func withClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(tr Transport, opts ...Option) *Session {
	s := &Session{tr: tr, log: logging.Discard(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State { return s.state }

// Handle applies ev and notifies observers. It reports whether the event
// changed state; stale resolutions are reported to observers as discarded.
func (s *Session) Handle(ev Event) bool {
	if ev == nil {
		return false
	}
	discarded := s.state.Stale(ev)
	if discarded {
		s.log.Debugf("discarding stale %T", ev)
	}
	s.state = Reduce(s.state, ev)
	for _, o := range s.observers {
		o.Observe(Notice{Event: ev, State: s.state, Discarded: discarded})
	}
	return !discarded
}

// LoadRegions returns the job fetching the region list. Only the first call
// in a session yields a job; later calls return nil.
func (s *Session) LoadRegions(ctx context.Context) Job {
	if s.state.regionsRequested {
		return nil
	}
	s.Handle(RegionsRequested{})
	tr, log, now := s.tr, s.log, s.now
	return func() Event {
		start := now()
		regions, err := tr.ListRegions(ctx)
		if err != nil {
			log.Warnf("region list unavailable: %v", err)
		} else {
			log.Debugf("loaded %d regions", len(regions))
		}
		return RegionsLoaded{Regions: regions, Err: err, Elapsed: now().Sub(start)}
	}
}

// Predict clears the shown prediction and returns the job that asks the
// service for region. The name is sent as typed, empty or unknown included.
func (s *Session) Predict(ctx context.Context, region string) Job {
	seq := s.state.NextPredictSeq()
	s.Handle(PredictIssued{Seq: seq, Region: region})
	tr, log, now := s.tr, s.log, s.now
	return func() Event {
		start := now()
		payload, err := tr.Predict(ctx, region)
		if err != nil {
			log.Warnf("predict %q (#%d) failed: %v", region, seq, err)
		}
		return PredictResolved{Seq: seq, Region: region, Payload: payload, Err: err, Elapsed: now().Sub(start)}
	}
}

// SelectFile replaces the selected file. Uploading never clears it.
func (s *Session) SelectFile(f SelectedFile) {
	s.Handle(FileSelected{File: f})
}

// Upload submits the selected file. With nothing selected it sets the
// "choose a file" status and returns nil without touching the network.
func (s *Session) Upload(ctx context.Context) Job {
	if s.state.File == nil {
		s.Handle(UploadRejected{})
		return nil
	}
	file := *s.state.File
	seq := s.state.NextUploadSeq()
	s.Handle(UploadIssued{Seq: seq, File: file})
	tr, log, now := s.tr, s.log, s.now
	return func() Event {
		start := now()
		out, err := tr.Upload(ctx, file)
		if err != nil {
			log.Warnf("upload %s (#%d) failed: %v", file.Name, seq, err)
		}
		return UploadResolved{Seq: seq, File: file, Outcome: out, Err: err, Elapsed: now().Sub(start)}
	}
}

// Drive runs job on the calling goroutine and applies its event.
func (s *Session) Drive(job Job) {
	if job == nil {
		return
	}
	s.Handle(job())
}

// RunAll runs jobs concurrently and applies their events on the calling
// goroutine in the order they complete. Every job's event is applied, even
// after ctx is done, so no operation is left pending; ctx only reaches the
// transport through the jobs themselves.
func (s *Session) RunAll(ctx context.Context, jobs ...Job) error {
	events := make(chan Event)
	var g errgroup.Group
	for _, job := range jobs {
		if job == nil {
			continue
		}
		job := job
		g.Go(func() error {
			events <- job()
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(events)
	}()
	for ev := range events {
		s.Handle(ev)
	}
	return ctx.Err()
}

// FileFromPath stats path into a SelectedFile.
func FileFromPath(path string) (SelectedFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return SelectedFile{}, friendlyerrors.FileError(path, err)
	}
	if fi.IsDir() {
		return SelectedFile{}, friendlyerrors.FileError(path, fmt.Errorf("%s: %w", path, errIsDir))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return SelectedFile{Path: abs, Name: filepath.Base(path), Size: fi.Size()}, nil
}

var errIsDir = errors.New("is a directory")
