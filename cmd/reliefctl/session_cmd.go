package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"

	"reliefctl/internal/sample"
	"reliefctl/internal/session"
)

func handleRegions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("regions", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := cf.open(stderr)
	if err != nil {
		return err
	}
	defer a.close()

	var loadErr error
	s := a.newSession(session.ObserverFunc(func(n session.Notice) {
		if ev, ok := n.Event.(session.RegionsLoaded); ok {
			loadErr = ev.Err
		}
	}))
	s.Drive(s.LoadRegions(ctx))
	st := s.State()

	if *cf.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st.Regions); err != nil {
			return err
		}
	} else if len(st.Regions) == 0 {
		fmt.Fprintln(stdout, "No regions loaded")
	} else {
		for _, r := range st.Regions {
			fmt.Fprintf(stdout, "%s — population %s\n", r.Name, humanize.Comma(r.Population))
		}
	}
	return a.explain(loadErr)
}

// predictLine is one resolved predict call in --json output.
type predictLine struct {
	Seq       uint64          `json:"seq"`
	Region    string          `json:"region"`
	Status    string          `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	Discarded bool            `json:"discarded,omitempty"`
}

func handlePredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := cf.open(stderr)
	if err != nil {
		return err
	}
	defer a.close()

	regions := fs.Args()
	if len(regions) == 0 {
		regions = []string{a.cfg.Session.DefaultRegion}
	}

	enc := json.NewEncoder(stdout)
	printer := session.ObserverFunc(func(n session.Notice) {
		ev, ok := n.Event.(session.PredictResolved)
		if !ok {
			return
		}
		if *cf.jsonOut {
			line := predictLine{Seq: ev.Seq, Region: ev.Region, Discarded: n.Discarded}
			switch {
			case n.Discarded:
				line.Status = "discarded"
			default:
				p := n.State.Prediction
				line.Status = p.Kind.String()
				line.Payload = p.Payload
				line.Error = p.Reason
			}
			_ = enc.Encode(line)
			return
		}
		if n.Discarded {
			fmt.Fprintf(stdout, "%s: superseded by a newer request (#%d)\n", ev.Region, ev.Seq)
			return
		}
		fmt.Fprintf(stdout, "%s: %s\n", ev.Region, describePrediction(n.State.Prediction))
	})

	s := a.newSession(printer)
	jobs := make([]session.Job, 0, len(regions))
	for _, r := range regions {
		jobs = append(jobs, s.Predict(ctx, r))
	}
	if err := s.RunAll(ctx, jobs...); err != nil {
		return err
	}

	final := s.State().Prediction
	if len(regions) > 1 && !*cf.jsonOut {
		fmt.Fprintf(stdout, "shown: %s (#%d)\n", final.Region, final.Seq)
	}
	if final.Kind == session.PredictionFailed {
		return errors.New("prediction unavailable: " + final.Reason)
	}
	return nil
}

func describePrediction(p session.PredictionState) string {
	switch p.Kind {
	case session.PredictionReady:
		return string(p.Payload)
	case session.PredictionFailed:
		return "prediction unavailable: " + p.Reason
	default:
		return "no prediction"
	}
}

func handleUpload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := cf.open(stderr)
	if err != nil {
		return err
	}
	defer a.close()

	var upErr error
	s := a.newSession(session.ObserverFunc(func(n session.Notice) {
		if ev, ok := n.Event.(session.UploadResolved); ok {
			upErr = ev.Err
		}
	}))
	if fs.NArg() > 0 {
		f, err := session.FileFromPath(fs.Arg(0))
		if err != nil {
			return err
		}
		s.SelectFile(f)
	}
	s.Drive(s.Upload(ctx))

	up := s.State().Upload
	if *cf.jsonOut {
		out := map[string]any{"status": up.Kind.String(), "file": up.File}
		if up.Kind == session.UploadResolvedOK {
			out["inserted"] = up.Inserted
		}
		if up.Reason != "" {
			out["error"] = up.Reason
		}
		if err := json.NewEncoder(stdout).Encode(out); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(stdout, up.Status())
	}
	switch up.Kind {
	case session.UploadResolvedOK:
		return nil
	case session.UploadRejectedLocally:
		return errors.New("usage: reliefctl upload FILE")
	default:
		if upErr != nil {
			return a.explain(upErr)
		}
		return errors.New("upload failed: " + up.Reason)
	}
}

func handleSample(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	noOpen := fs.Bool("no-open", false, "only print the link")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, _, err := cf.load()
	if err != nil {
		return err
	}
	url := c.SampleURL()
	fmt.Fprintln(stdout, url)
	if !*noOpen {
		sample.NewTrigger(url, nil, cf.logger(c, stderr)).Fire()
	}
	return nil
}
