package session

import (
	"bytes"
	"path/filepath"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	DefaultRecordingTemplate = `recording_{{ .Now | date "20060102_150405" }}.wav`
	DefaultSessionTemplate   = `session_{{ .Now | date "20060102_150405" }}`
)

type (
	// Namer turns the configured name templates into file names. The
	// templates see NameData and have the sprig functions available.
	Namer struct {
		recording *template.Template
		session   *template.Template
	}

	NameData struct {
		Now   time.Time
		Index int
	}
)

func NewNamer(recording, session string) (*Namer, error) {
	if recording == "" {
		recording = DefaultRecordingTemplate
	}
	if session == "" {
		session = DefaultSessionTemplate
	}
	r, err := template.New("recording").Funcs(sprig.TxtFuncMap()).Parse(recording)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("bad recording name template", "The recording name template is not valid"),
			ftag.With(ftag.InvalidArgument))
	}
	s, err := template.New("session").Funcs(sprig.TxtFuncMap()).Parse(session)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("bad session name template", "The session name template is not valid"),
			ftag.With(ftag.InvalidArgument))
	}
	return &Namer{recording: r, session: s}, nil
}

func (n *Namer) Recording(d NameData) (string, error) {
	return execute(n.recording, d)
}

func (n *Namer) Session(d NameData) (string, error) {
	return execute(n.session, d)
}

func execute(t *template.Template, d NameData) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, d); err != nil {
		return "", fault.Wrap(err, fmsg.With("name template failed"), ftag.With(ftag.InvalidArgument))
	}
	// names never escape the target directory
	return filepath.Base(filepath.Clean(b.String())), nil
}
