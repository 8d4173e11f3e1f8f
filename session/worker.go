package session

import (
	"log"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault/fmsg"
	"github.com/cypher-audio/cypher/engine"
)

// Worker writes the files the engine hands over on Broker.ToWorker. It runs
// on its own goroutine so the audio goroutine never touches the disk.
type Worker struct {
	broker        *engine.Broker
	namer         *Namer
	recordingsDir string
	logger        *log.Logger
	now           func() time.Time

	Close    chan struct{}
	Finished chan struct{}
}

func NewWorker(b *engine.Broker, namer *Namer, recordingsDir string, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.Default()
	}
	return &Worker{
		broker:        b,
		namer:         namer,
		recordingsDir: recordingsDir,
		logger:        logger,
		now:           time.Now,
		Close:         make(chan struct{}, 1),
		Finished:      make(chan struct{}),
	}
}

// Run handles jobs until Close receives.
func (w *Worker) Run() {
	defer close(w.Finished)
	for {
		select {
		case <-w.Close:
			return
		case msg := <-w.broker.ToWorker:
			w.handle(msg)
		}
	}
}

func (w *Worker) handle(msg any) {
	switch job := msg.(type) {
	case engine.RecordingJob:
		w.record(job)
	case engine.SessionJob:
		w.save(job)
	default:
		w.logger.Printf("session: unknown job %T", msg)
	}
}

// inDir keeps the last element of a job supplied name and puts it in the
// recordings directory.
func (w *Worker) inDir(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", false
	}
	return filepath.Join(w.recordingsDir, base), true
}

func (w *Worker) record(job engine.RecordingJob) {
	path, ok := w.inDir(job.Path)
	if !ok {
		name, err := w.namer.Recording(NameData{Now: w.now()})
		if err != nil {
			w.fail("recording not saved", err)
			return
		}
		path = filepath.Join(w.recordingsDir, name)
	}
	ok, err := WriteRecording(path, job)
	switch {
	case err != nil:
		w.fail("recording not saved", err)
	case !ok:
		w.alert(engine.Warning, "Recording was silent, nothing saved")
	default:
		w.logger.Printf("session: wrote %s", path)
		w.alert(engine.Info, "Saved "+filepath.Base(path))
	}
}

func (w *Worker) save(job engine.SessionJob) {
	var ok bool
	if job.Dir, ok = w.inDir(job.Dir); !ok {
		name, err := w.namer.Session(NameData{Now: w.now()})
		if err != nil {
			w.fail("session not saved", err)
			return
		}
		job.Dir = filepath.Join(w.recordingsDir, name)
	}
	n, err := Save(job)
	if err != nil {
		w.fail("session not saved", err)
		return
	}
	if n == 0 {
		w.alert(engine.Warning, "No loops to save")
		return
	}
	w.logger.Printf("session: saved %d loops to %s", n, job.Dir)
	w.alert(engine.Info, "Saved session "+filepath.Base(job.Dir))
}

func (w *Worker) fail(what string, err error) {
	w.logger.Printf("session: %s: %v", what, err)
	msg := fmsg.GetIssue(err)
	if msg == "" {
		msg = what
	}
	w.alert(engine.Error, msg)
}

func (w *Worker) alert(p engine.AlertPriority, msg string) {
	engine.TrySend(w.broker.ToUI, any(engine.Alert{Priority: p, Message: msg, Duration: 3 * time.Second}))
}
