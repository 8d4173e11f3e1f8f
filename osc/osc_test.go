package osc_test

import (
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/cypher-audio/cypher/engine"
	cosc "github.com/cypher-audio/cypher/osc"
	"github.com/hypebeast/go-osc/osc"
)

type recorder []engine.Command

func (r *recorder) send(c engine.Command) { *r = append(*r, c) }

func newServer(t *testing.T) (*cosc.Server, *recorder) {
	t.Helper()
	r := &recorder{}
	s, err := cosc.NewServer("127.0.0.1:0", r.send, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return s, r
}

func TestLooperAddresses(t *testing.T) {
	s, r := newServer(t)
	s.Dispatch(osc.NewMessage("/looper/press", int32(3)))
	s.Dispatch(osc.NewMessage("/looper/clear", float32(4)))
	s.Dispatch(osc.NewMessage("/looper/press", int32(12)))
	s.Dispatch(osc.NewMessage("/looper/press", "x"))
	if len(*r) != 2 {
		t.Fatalf("sent %v commands, expected 2", len(*r))
	}
	if c, ok := (*r)[0].(engine.LooperPress); !ok || c.Track != 3 {
		t.Fatalf("unexpected command %#v", (*r)[0])
	}
	if c, ok := (*r)[1].(engine.ClearLooper); !ok || c.Track != 4 {
		t.Fatalf("unexpected command %#v", (*r)[1])
	}
}

func TestValueAddresses(t *testing.T) {
	s, r := newServer(t)
	s.Dispatch(osc.NewMessage("/mixer/volume", int32(2), float32(0.5)))
	s.Dispatch(osc.NewMessage("/master/volume", float64(0.25)))
	s.Dispatch(osc.NewMessage("/transport/toggle"))
	want := []engine.Command{
		engine.SetMixerTrackVolume{Track: 2, Volume: 0.5},
		engine.SetMasterVolume{Volume: 0.25},
		engine.ToggleTransport{},
	}
	if len(*r) != len(want) {
		t.Fatalf("sent %v commands, expected %v", len(*r), len(want))
	}
	for i := range want {
		if (*r)[i] != want[i] {
			t.Fatalf("command %v was %#v, expected %#v", i, (*r)[i], want[i])
		}
	}
}

func TestNoteAddress(t *testing.T) {
	s, r := newServer(t)
	s.Dispatch(osc.NewMessage("/note", int32(1), int32(60), int32(100)))
	s.Dispatch(osc.NewMessage("/note", int32(1), int32(128), int32(100)))
	if len(*r) != 1 {
		t.Fatalf("sent %v commands, expected 1", len(*r))
	}
	if c := (*r)[0].(engine.MidiMessage); c != (engine.MidiMessage{Status: 0x91, Data1: 60, Data2: 100}) {
		t.Fatalf("unexpected note %#v", c)
	}
}

func TestAddressesDoNotOverlap(t *testing.T) {
	s, r := newServer(t)
	s.Dispatch(osc.NewMessage("/mixer/mute", int32(1)))
	s.Dispatch(osc.NewMessage("/transport/clear"))
	if len(*r) != 2 {
		t.Fatalf("sent %v commands, expected 2", len(*r))
	}
}

func TestListenOnBadAddress(t *testing.T) {
	r := &recorder{}
	s, _ := cosc.NewServer("not an address", r.send, nil)
	if err := s.ListenAndServe(); ftag.Get(err) != ftag.InvalidArgument {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
}

func TestSessionSaveStaysInRecordingsDir(t *testing.T) {
	s, r := newServer(t)
	s.Dispatch(osc.NewMessage("/session/save", "../../etc/take"))
	s.Dispatch(osc.NewMessage("/session/save", ".."))
	s.Dispatch(osc.NewMessage("/session/save"))
	want := []engine.Command{
		engine.SaveSessionAudio{Dir: "take"},
		engine.SaveSessionAudio{},
		engine.SaveSessionAudio{},
	}
	if len(*r) != len(want) {
		t.Fatalf("sent %v commands, expected %v", len(*r), len(want))
	}
	for i := range want {
		if (*r)[i] != want[i] {
			t.Fatalf("command %v was %#v, expected %#v", i, (*r)[i], want[i])
		}
	}
}
