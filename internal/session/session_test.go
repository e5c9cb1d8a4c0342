package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeTransport answers from canned values and counts calls.
type fakeTransport struct {
	mu       sync.Mutex
	regions  []Region
	regErr   error
	predict  map[string]string
	predErr  error
	inserted int64
	upErr    error
	calls    map[string]int
}

func newFake() *fakeTransport {
	return &fakeTransport{predict: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeTransport) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeTransport) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeTransport) ListRegions(ctx context.Context) ([]Region, error) {
	f.hit("regions")
	return f.regions, f.regErr
}

func (f *fakeTransport) Predict(ctx context.Context, region string) (json.RawMessage, error) {
	f.hit("predict")
	if f.predErr != nil {
		return nil, f.predErr
	}
	return json.RawMessage(f.predict[region]), nil
}

func (f *fakeTransport) Upload(ctx context.Context, file SelectedFile) (UploadOutcome, error) {
	f.hit("upload")
	return UploadOutcome{Inserted: f.inserted}, f.upErr
}

func TestLoadRegionsPreservesOrder(t *testing.T) {
	ft := newFake()
	ft.regions = []Region{{"Riverside", 6000}, {"Greenfield", 3000}, {"Harborview", 4500}}
	s := New(ft)
	s.Drive(s.LoadRegions(context.Background()))
	st := s.State()
	if !reflect.DeepEqual(st.Regions, ft.regions) {
		t.Fatalf("regions = %v want %v", st.Regions, ft.regions)
	}
	if !st.RegionsLoaded {
		t.Fatalf("RegionsLoaded should be set")
	}
}

func TestLoadRegionsFailureIsEmpty(t *testing.T) {
	ft := newFake()
	ft.regions = []Region{{"Riverside", 6000}}
	ft.regErr = errors.New("502 Bad Gateway")
	s := New(ft)
	s.Drive(s.LoadRegions(context.Background()))
	st := s.State()
	if st.Regions == nil || len(st.Regions) != 0 {
		t.Fatalf("expected empty non-nil region list, got %#v", st.Regions)
	}
	if st.Prediction.Kind != PredictionNone || st.Upload.Kind != UploadIdle {
		t.Fatalf("region failure must not leak into other state: %+v", st)
	}
}

func TestLoadRegionsRejectsPartialSnapshot(t *testing.T) {
	st := Reduce(State{}, RegionsLoaded{Regions: []Region{{"A", 10}, {"B", -1}}})
	if len(st.Regions) != 0 {
		t.Fatalf("a list with an invalid entry must be dropped whole: %v", st.Regions)
	}
}

func TestLoadRegionsRunsOnce(t *testing.T) {
	ft := newFake()
	s := New(ft)
	s.Drive(s.LoadRegions(context.Background()))
	if job := s.LoadRegions(context.Background()); job != nil {
		t.Fatalf("second LoadRegions should return nil job")
	}
	if n := ft.count("regions"); n != 1 {
		t.Fatalf("regions endpoint hit %d times", n)
	}
}

func TestPredictStoresPayloadVerbatim(t *testing.T) {
	ft := newFake()
	ft.predict["Riverside"] = `{"food": 120}`
	s := New(ft)
	job := s.Predict(context.Background(), "Riverside")
	if k := s.State().Prediction.Kind; k != PredictionPending {
		t.Fatalf("prediction should be pending right after issue, got %v", k)
	}
	s.Drive(job)
	p := s.State().Prediction
	if p.Kind != PredictionReady || string(p.Payload) != `{"food": 120}` {
		t.Fatalf("prediction = %+v", p)
	}
	if s.State().RegionName != "Riverside" {
		t.Fatalf("region name = %q", s.State().RegionName)
	}
}

func TestPredictClearsPreviousResult(t *testing.T) {
	ft := newFake()
	ft.predict["A"] = `{"food": 1}`
	s := New(ft)
	s.Drive(s.Predict(context.Background(), "A"))
	_ = s.Predict(context.Background(), "B")
	p := s.State().Prediction
	if p.Kind != PredictionPending || p.Payload != nil {
		t.Fatalf("new predict must clear the shown payload, got %+v", p)
	}
}

func TestPredictSendsEmptyAndUnknownNames(t *testing.T) {
	ft := newFake()
	s := New(ft)
	s.Drive(s.Predict(context.Background(), ""))
	s.Drive(s.Predict(context.Background(), "Atlantis"))
	if n := ft.count("predict"); n != 2 {
		t.Fatalf("predict calls = %d, want 2", n)
	}
}

func TestPredictFailureIsTagged(t *testing.T) {
	cases := map[string]struct {
		payload string
		err     error
		want    PredictionKind
	}{
		"network":   {err: errors.New("connection refused"), want: PredictionFailed},
		"invalid":   {payload: `{"food":`, want: PredictionFailed},
		"array":     {payload: `[1,2]`, want: PredictionFailed},
		"null":      {payload: `null`, want: PredictionNone},
		"object":    {payload: ` {"x":1} `, want: PredictionReady},
		"emptybody": {payload: ``, want: PredictionFailed},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			st := Reduce(State{}, PredictIssued{Seq: 1, Region: "R"})
			st = Reduce(st, PredictResolved{Seq: 1, Region: "R", Payload: json.RawMessage(c.payload), Err: c.err})
			if st.Prediction.Kind != c.want {
				t.Fatalf("kind = %v want %v (%+v)", st.Prediction.Kind, c.want, st.Prediction)
			}
			if c.want == PredictionFailed && st.Prediction.Reason == "" {
				t.Fatalf("failed prediction needs a reason")
			}
			if c.want == PredictionFailed && st.Prediction.Payload != nil {
				t.Fatalf("failed prediction must not carry a payload")
			}
		})
	}
}

// issueAB issues predict A then B and returns their jobs unresolved.
func issueAB(s *Session) (Job, Job) {
	a := s.Predict(context.Background(), "A")
	b := s.Predict(context.Background(), "B")
	return a, b
}

func TestPredictRaceLastResolvedWins(t *testing.T) {
	ft := newFake()
	ft.predict["A"] = `{"who":"A"}`
	ft.predict["B"] = `{"who":"B"}`
	s := New(ft, WithLastResolvedWins(true))
	a, b := issueAB(s)
	s.Drive(b)
	s.Drive(a)
	if got := string(s.State().Prediction.Payload); got != `{"who":"A"}` {
		t.Fatalf("legacy ordering should show the last resolved payload, got %s", got)
	}
}

func TestPredictRaceLatestIssuedWins(t *testing.T) {
	ft := newFake()
	ft.predict["A"] = `{"who":"A"}`
	ft.predict["B"] = `{"who":"B"}`
	var discarded int
	s := New(ft, WithObservers(ObserverFunc(func(n Notice) {
		if n.Discarded {
			discarded++
		}
	})))
	a, b := issueAB(s)
	s.Drive(b)
	s.Drive(a)
	st := s.State()
	if got := string(st.Prediction.Payload); got != `{"who":"B"}` {
		t.Fatalf("older resolution must not overwrite newer one, got %s", got)
	}
	if st.RegionName != "B" {
		t.Fatalf("region name = %q", st.RegionName)
	}
	if discarded != 1 {
		t.Fatalf("discarded notices = %d, want 1", discarded)
	}
}

func TestPredictInOrderResolutionShowsEach(t *testing.T) {
	ft := newFake()
	ft.predict["A"] = `{"who":"A"}`
	ft.predict["B"] = `{"who":"B"}`
	s := New(ft)
	a, b := issueAB(s)
	s.Drive(a)
	if got := string(s.State().Prediction.Payload); got != `{"who":"A"}` {
		t.Fatalf("A resolved first and should be shown, got %s", got)
	}
	s.Drive(b)
	if got := string(s.State().Prediction.Payload); got != `{"who":"B"}` {
		t.Fatalf("got %s", got)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	ft := newFake()
	s := New(ft)
	if job := s.Upload(context.Background()); job != nil {
		t.Fatalf("upload without a file must not produce a job")
	}
	if ft.count("upload") != 0 {
		t.Fatalf("no network call expected")
	}
	if got := s.State().Upload.Status(); got != StatusChooseFile {
		t.Fatalf("status = %q", got)
	}
}

func TestUploadReportsInsertedCount(t *testing.T) {
	ft := newFake()
	ft.inserted = 42
	s := New(ft)
	s.SelectFile(SelectedFile{Path: "/tmp/events.csv", Name: "events.csv", Size: 10})
	job := s.Upload(context.Background())
	if got := s.State().Upload.Status(); got != StatusUploading {
		t.Fatalf("status while submitting = %q", got)
	}
	s.Drive(job)
	st := s.State()
	if !strings.Contains(st.Upload.Status(), "42") {
		t.Fatalf("status = %q", st.Upload.Status())
	}
	if st.File == nil || st.File.Name != "events.csv" {
		t.Fatalf("selection must survive the upload: %+v", st.File)
	}
}

func TestUploadFailureStatus(t *testing.T) {
	ft := newFake()
	ft.upErr = errors.New("connection reset")
	s := New(ft)
	s.SelectFile(SelectedFile{Name: "events.csv"})
	s.Drive(s.Upload(context.Background()))
	st := s.State().Upload
	if st.Kind != UploadFailed || !strings.HasPrefix(st.Status(), "Upload failed:") {
		t.Fatalf("upload state = %+v", st)
	}
	ft.upErr = nil
	ft.inserted = 3
	s.Drive(s.Upload(context.Background()))
	if got := s.State().Upload.Status(); got != "Inserted: 3" {
		t.Fatalf("resubmit should recover, status = %q", got)
	}
}

func TestUploadRepeatedSubmissionsAreIndependent(t *testing.T) {
	ft := newFake()
	ft.inserted = 5
	s := New(ft)
	s.SelectFile(SelectedFile{Name: "a.csv"})
	first := s.Upload(context.Background())
	s.SelectFile(SelectedFile{Name: "b.csv"})
	second := s.Upload(context.Background())
	s.Drive(second)
	s.Drive(first)
	st := s.State().Upload
	if st.File != "b.csv" {
		t.Fatalf("older upload overwrote newer status: %+v", st)
	}
	if ft.count("upload") != 2 {
		t.Fatalf("each submission should hit the service")
	}
}

func TestRunAllAppliesEveryEvent(t *testing.T) {
	ft := newFake()
	ft.predict["A"] = `{"who":"A"}`
	ft.predict["B"] = `{"who":"B"}`
	ft.regions = []Region{{"A", 1}}
	var mu sync.Mutex
	seen := map[string]bool{}
	s := New(ft, WithObservers(ObserverFunc(func(n Notice) {
		if pr, ok := n.Event.(PredictResolved); ok {
			mu.Lock()
			seen[pr.Region] = true
			mu.Unlock()
		}
	})))
	jobs := []Job{s.LoadRegions(context.Background()), s.Predict(context.Background(), "A"), s.Predict(context.Background(), "B"), nil}
	if err := s.RunAll(context.Background(), jobs...); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if !seen["A"] || !seen["B"] {
		t.Fatalf("observers should see both resolutions: %v", seen)
	}
	if len(s.State().Regions) != 1 {
		t.Fatalf("regions not applied")
	}
	if s.State().Prediction.Kind != PredictionReady {
		t.Fatalf("prediction = %+v", s.State().Prediction)
	}
}

func TestRunAllAppliesEventsAfterCancel(t *testing.T) {
	ft := newFake()
	ft.predict["Riverside"] = `{"food":120}`
	s := New(ft)
	ctx, cancel := context.WithCancel(context.Background())
	job := s.Predict(ctx, "Riverside")
	cancel()

	err := s.RunAll(ctx, job)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunAll err = %v, want context.Canceled", err)
	}
	if st := s.State().Prediction; st.Kind != PredictionReady {
		t.Fatalf("completed job left prediction %v: %+v", st.Kind, st)
	}
	if ft.count("predict") != 1 {
		t.Fatalf("job should run once")
	}
}

func TestJobsRecordElapsed(t *testing.T) {
	ft := newFake()
	base := time.Unix(0, 0)
	ticks := 0
	clock := func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}
	s := New(ft, withClock(clock))
	ev := s.Predict(context.Background(), "A")()
	if pr := ev.(PredictResolved); pr.Elapsed != time.Second {
		t.Fatalf("elapsed = %v", pr.Elapsed)
	}
}

func TestFileFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "events.csv")
	if err := os.WriteFile(p, []byte("region,date\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := FileFromPath(p)
	if err != nil {
		t.Fatalf("FileFromPath: %v", err)
	}
	if f.Name != "events.csv" || f.Size != 12 {
		t.Fatalf("file = %+v", f)
	}
	if _, err := FileFromPath(dir); err == nil {
		t.Fatalf("directories cannot be uploaded")
	}
	if _, err := FileFromPath(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatalf("missing file should fail")
	}
}
