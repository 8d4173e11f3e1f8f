// Package osc is a remote control surface. Every address maps to one engine
// command; integer arguments may also be sent as floats. Addresses are
// matched as unanchored patterns, so no address contains another.
//
//	/looper/press i        /transport/play        /mixer/volume i f
//	/looper/clear i        /transport/stop        /mixer/mute i
//	/looper/toggle i       /transport/toggle      /mixer/solo i
//	/synth/toggle          /transport/clear       /mixer/allmute
//	/synth/volume f        /transport/reset       /master/volume f
//	/sampler/toggle        /transport/double      /limiter/toggle
//	/sampler/volume f      /transport/halve       /limiter/threshold f
//	/input/arm             /record/toggle         /limiter/release f
//	/input/monitor         /session/save [s]
//	/note i i i (channel, key, velocity; velocity 0 is a note off)
//
// The optional argument of /session/save names a folder in the recordings
// directory; any directory part is dropped.
package osc

import (
	"errors"
	"log"
	"net"
	"path/filepath"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/cypher-audio/cypher/engine"
	"github.com/cypher-audio/cypher/looper"
	"github.com/hypebeast/go-osc/osc"
)

type Server struct {
	Addr       string
	dispatcher *osc.StandardDispatcher
	send       func(engine.Command)
	logger     *log.Logger

	mu   sync.Mutex
	conn net.PacketConn
}

func NewServer(addr string, send func(engine.Command), logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{Addr: addr, dispatcher: osc.NewStandardDispatcher(), send: send, logger: logger}
	for addr, h := range s.handlers() {
		if err := s.dispatcher.AddMsgHandler(addr, h); err != nil {
			return nil, fault.Wrap(err, fmsg.With("cannot add osc handler "+addr), ftag.With(ftag.Internal))
		}
	}
	return s, nil
}

// Dispatch handles a packet as if it had been received.
func (s *Server) Dispatch(p osc.Packet) { s.dispatcher.Dispatch(p) }

// ListenAndServe serves until Close is called.
func (s *Server) ListenAndServe() error {
	conn, err := net.ListenPacket("udp", s.Addr)
	if err != nil {
		return fault.Wrap(err,
			fmsg.WithDesc("cannot listen for osc", "OSC address "+s.Addr+" is not available"),
			ftag.With(ftag.InvalidArgument))
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	server := &osc.Server{Addr: s.Addr, Dispatcher: s.dispatcher}
	if err := server.Serve(conn); err != nil && !isClosed(err) {
		return fault.Wrap(err, fmsg.With("osc server failed"), ftag.With(ftag.Internal))
	}
	return nil
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func isClosed(err error) bool { return errors.Is(err, net.ErrClosed) }

func (s *Server) handlers() map[string]osc.HandlerFunc {
	simple := func(c engine.Command) osc.HandlerFunc {
		return func(*osc.Message) { s.send(c) }
	}
	track := func(f func(int) engine.Command) osc.HandlerFunc {
		return func(m *osc.Message) {
			if i, ok := s.intArg(m, 0); ok && i >= 0 && i < looper.NumLoopers {
				s.send(f(i))
			}
		}
	}
	value := func(f func(float32) engine.Command) osc.HandlerFunc {
		return func(m *osc.Message) {
			if v, ok := s.floatArg(m, 0); ok {
				s.send(f(v))
			}
		}
	}
	return map[string]osc.HandlerFunc{
		"/looper/press":  track(func(i int) engine.Command { return engine.LooperPress{Track: i} }),
		"/looper/clear":  track(func(i int) engine.Command { return engine.ClearLooper{Track: i} }),
		"/looper/toggle": track(func(i int) engine.Command { return engine.ToggleLooperPlayback{Track: i} }),
		"/mixer/mute":    track(func(i int) engine.Command { return engine.ToggleMixerMute{Track: i} }),
		"/mixer/solo":    track(func(i int) engine.Command { return engine.ToggleMixerSolo{Track: i} }),
		"/mixer/volume": func(m *osc.Message) {
			i, ok := s.intArg(m, 0)
			v, ok2 := s.floatArg(m, 1)
			if ok && ok2 && i >= 0 && i < looper.NumLoopers {
				s.send(engine.SetMixerTrackVolume{Track: i, Volume: v})
			}
		},
		"/mixer/allmute":     simple(engine.ToggleMuteAll{}),
		"/master/volume":     value(func(v float32) engine.Command { return engine.SetMasterVolume{Volume: v} }),
		"/limiter/toggle":    simple(engine.ToggleLimiter{}),
		"/limiter/threshold": value(func(v float32) engine.Command { return engine.SetLimiterThreshold{Threshold: v} }),
		"/limiter/release":   value(func(v float32) engine.Command { return engine.SetLimiterReleaseMs{Ms: v} }),
		"/transport/play":    simple(engine.PlayTransport{}),
		"/transport/stop":    simple(engine.StopTransport{}),
		"/transport/toggle":  simple(engine.ToggleTransport{}),
		"/transport/clear":   simple(engine.ClearAll{}),
		"/transport/reset":   simple(engine.ClearAllAndPlay{}),
		"/transport/double":  simple(engine.DoubleTempo{}),
		"/transport/halve":   simple(engine.HalveTempo{}),
		"/synth/toggle":      simple(engine.ToggleSynth{}),
		"/synth/volume":      value(func(v float32) engine.Command { return engine.SetSynthMasterVolume{Volume: v} }),
		"/sampler/toggle":    simple(engine.ToggleSampler{}),
		"/sampler/volume":    value(func(v float32) engine.Command { return engine.SetSamplerMasterVolume{Volume: v} }),
		"/input/arm":         simple(engine.ToggleAudioInputArm{}),
		"/input/monitor":     simple(engine.ToggleAudioInputMonitoring{}),
		"/record/toggle":     simple(engine.ToggleRecord{}),
		"/session/save": func(m *osc.Message) {
			var dir string
			if len(m.Arguments) > 0 {
				dir, _ = m.Arguments[0].(string)
			}
			s.send(engine.SaveSessionAudio{Dir: folderName(dir)})
		},
		"/note": func(m *osc.Message) {
			ch, ok1 := s.intArg(m, 0)
			key, ok2 := s.intArg(m, 1)
			vel, ok3 := s.intArg(m, 2)
			if !ok1 || !ok2 || !ok3 || ch < 0 || ch > 15 || key < 0 || key > 127 || vel < 0 || vel > 127 {
				return
			}
			s.send(engine.MidiMessage{Status: 0x90 | byte(ch), Data1: byte(key), Data2: byte(vel)})
		},
	}
}

func (s *Server) intArg(m *osc.Message, i int) (int, bool) {
	if i >= len(m.Arguments) {
		s.logger.Printf("osc: %s: missing argument %d", m.Address, i)
		return 0, false
	}
	switch v := m.Arguments[i].(type) {
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	}
	s.logger.Printf("osc: %s: argument %d is %T, expected a number", m.Address, i, m.Arguments[i])
	return 0, false
}

func (s *Server) floatArg(m *osc.Message, i int) (float32, bool) {
	if i >= len(m.Arguments) {
		s.logger.Printf("osc: %s: missing argument %d", m.Address, i)
		return 0, false
	}
	switch v := m.Arguments[i].(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int32:
		return float32(v), true
	case int64:
		return float32(v), true
	}
	s.logger.Printf("osc: %s: argument %d is %T, expected a number", m.Address, i, m.Arguments[i])
	return 0, false
}

// folderName keeps the last element of a client supplied name. Names that
// point nowhere become empty, which lets the worker pick one.
func folderName(name string) string {
	if name == "" {
		return ""
	}
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return base
}
