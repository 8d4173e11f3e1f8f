package gomidi

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	errNotCompiled = fault.New("midi not compiled in",
		fmsg.WithDesc("midi not compiled in", "This build has no MIDI support"),
		ftag.With(ftag.NotFound))
	errNoDriver = fault.New("no midi driver",
		fmsg.WithDesc("no midi driver", "No MIDI driver is available"),
		ftag.With(ftag.NotFound))
)
