package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cypher-audio/cypher"
	"github.com/cypher-audio/cypher/cmd"
	"github.com/cypher-audio/cypher/config"
	"github.com/cypher-audio/cypher/engine"
	"github.com/cypher-audio/cypher/gomidi"
	"github.com/cypher-audio/cypher/osc"
	"github.com/cypher-audio/cypher/oto"
	"github.com/cypher-audio/cypher/session"
	"github.com/cypher-audio/cypher/synth/sampler"
	"github.com/cypher-audio/cypher/synth/wavetable"
	"github.com/cypher-audio/cypher/tui"
	"github.com/cypher-audio/cypher/version"
)

type CLI struct {
	Version     bool     `short:"v" help:"Show version information"`
	Config      string   `short:"c" type:"path" help:"Config file (default: ${configpath})"`
	SampleRate  int      `help:"Sample rate in Hz"`
	BufferSize  int      `help:"Engine buffer size in frames"`
	MidiInput   string   `help:"Open the first MIDI input whose name starts with this prefix"`
	MidiChannel int      `default:"-1" help:"MIDI channel 1-16 the synth and pads listen to"`
	OSC         string   `name:"osc" help:"OSC listen address; 'off' disables the server"`
	Dir         string   `type:"path" help:"Directory for recordings and sessions"`
	Kit         string   `type:"existingfile" help:"Pad kit to load"`
	Preset      string   `type:"existingfile" help:"Wavetable preset for the first engine slot"`
	Samples     string   `type:"existingfile" help:"Sampler preset for the second engine slot"`
	Wavetable   []string `type:"existingfile" help:"Single cycle waveforms for the wavetable engine"`
	Slot        []string `type:"existingfile" help:"Samples for the sampler slots, lowest octave first"`
	Log         string   `type:"path" default:"cypher.log" help:"Log file used while the terminal UI runs"`
	Headless    bool     `help:"Run without the terminal UI until interrupted"`
	NoInput     bool     `help:"Do not open the audio input; loops record silence"`
	Session     string   `arg:"" optional:"" type:"existingdir" help:"Session directory to load"`
}

func main() {
	var cli CLI
	configPath, _ := config.Path()
	kong.Parse(&cli,
		kong.Name("cypher"),
		kong.Description("Real-time looper with wavetable and sample synths"),
		kong.UsageOnError(),
		kong.Vars{"configpath": configPath},
	)
	if cli.Version {
		fmt.Println("cypher", version.VersionOrHash)
		return
	}
	cfg, err := loadConfig(cli)
	if err != nil {
		log.Fatal(err)
	}

	logger := log.Default()
	if !cli.Headless {
		f, err := tea.LogToFile(cli.Log, "")
		if err != nil {
			log.Fatal("could not open log file: ", err)
		}
		defer f.Close()
	}
	logger.Printf("cypher %s starting at %d Hz, %d frame buffers", version.VersionOrHash, cfg.SampleRate, cfg.BufferSize)

	broker := engine.NewBroker(cfg.QueueSize)
	eng := engine.New(broker, engine.Options{
		SampleRate:          cfg.SampleRate,
		BPMRounding:         cfg.BPMRounding,
		MaxRecordingSeconds: cfg.MaxRecordingSeconds,
		MidiChannel:         cfg.Midi.Channel,
	})
	go broker.RunForwarder(eng.Shared().Mixer, logger)
	defer broker.Close()
	controller := engine.NewController(broker, eng)
	broker.Send(engine.SetMixerState{State: cfg.MixerState()})

	namer, err := session.NewNamer(cfg.Files.Recording, cfg.Files.Session)
	if err != nil {
		log.Fatal(err)
	}
	worker := session.NewWorker(broker, namer, cfg.Files.Dir, logger)
	go worker.Run()
	defer func() {
		engine.TrySend(worker.Close, struct{}{})
		engine.TimeoutReceive(worker.Finished, 3*time.Second)
	}()

	if err := loadStartup(cli, controller); err != nil {
		log.Fatal(err)
	}

	audio, err := oto.NewContext(cfg.SampleRate, cfg.Channels, cfg.BufferSize)
	if err != nil {
		log.Fatal(err)
	}
	defer audio.Close()
	var input cypher.InputSource = cypher.SilentInput{}
	if !cli.NoInput {
		in, closer, err := cmd.NewAudioInput(cfg.SampleRate, cfg.BufferSize, logger)
		if err != nil {
			logger.Printf("input: %v, recording silence", err)
		}
		defer closer.Close()
		input = in
	}
	output := audio.Play(eng, input)
	defer output.Close()

	mapper := gomidi.NewMapper(broker.Send, cfg.Midi.LooperCCs, cfg.LongPress())
	midiInput := cmd.NewMidiInput(mapper)
	defer midiInput.Close()
	done := make(chan struct{})
	defer close(done)
	go mapper.Run(done)
	openMidi(midiInput, cfg.Midi.Prefix, logger)

	if cfg.OSC.Address != "" {
		server, err := osc.NewServer(cfg.OSC.Address, broker.Send, logger)
		if err != nil {
			log.Fatal(err)
		}
		go func() {
			logger.Printf("osc: listening on %s", cfg.OSC.Address)
			if err := server.ListenAndServe(); err != nil {
				logger.Printf("osc: %v", err)
			}
		}()
		defer server.Close()
	}

	if cli.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		go logAlerts(ctx, broker, logger)
		<-ctx.Done()
		return
	}
	if _, err := tea.NewProgram(tui.New(controller, logger), tea.WithAltScreen()).Run(); err != nil {
		logger.Printf("ui: %v", err)
	}
}

func loadConfig(cli CLI) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if cli.Config != "" {
		cfg, err = config.LoadFile(cli.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if cli.SampleRate > 0 {
		cfg.SampleRate = cli.SampleRate
	}
	if cli.BufferSize > 0 {
		cfg.BufferSize = cli.BufferSize
	}
	if cli.MidiInput != "" {
		cfg.Midi.Prefix = cli.MidiInput
	}
	if cli.MidiChannel > 0 {
		cfg.Midi.Channel = cli.MidiChannel - 1
	}
	switch cli.OSC {
	case "":
	case "off":
		cfg.OSC.Address = ""
	default:
		cfg.OSC.Address = cli.OSC
	}
	if cli.Dir != "" {
		cfg.Files.Dir = cli.Dir
	}
	return cfg, cfg.Validate()
}

// loadStartup decodes everything named on the command line and queues it
// for the engine.
func loadStartup(cli CLI, c *engine.Controller) error {
	var cmds []engine.Command
	add := func(more []engine.Command, err error) error {
		cmds = append(cmds, more...)
		return err
	}
	if cli.Session != "" {
		if err := add(session.Load(cli.Session, c.SampleRate)); err != nil {
			return err
		}
	}
	if cli.Kit != "" {
		if err := add(session.LoadKit(cli.Kit, c.SampleRate)); err != nil {
			return err
		}
	}
	if cli.Preset != "" {
		pr, err := wavetable.LoadPreset(cli.Preset)
		if err != nil {
			return err
		}
		c.ApplyWavetablePreset(0, pr)
	}
	if cli.Samples != "" {
		pr, err := sampler.LoadPreset(cli.Samples)
		if err != nil {
			return err
		}
		c.ApplySamplerPreset(1, pr)
	}
	if err := add(session.LoadWavetables(0, cli.Wavetable)); err != nil {
		return err
	}
	if err := add(session.LoadSamplerSlots(1, cli.Slot, c.SampleRate)); err != nil {
		return err
	}
	for _, command := range cmds {
		c.Send(command)
	}
	return nil
}

func openMidi(in gomidi.Input, prefix string, logger *log.Logger) {
	if in.Support() != gomidi.Supported {
		logger.Printf("midi: not available")
		return
	}
	name, ok := gomidi.FindByPrefix(in, prefix)
	if !ok {
		logger.Printf("midi: no input found with prefix '%s'", prefix)
		return
	}
	if err := in.Open(name); err != nil {
		logger.Printf("midi: failed to open '%s': %v", name, err)
		return
	}
	logger.Printf("midi: opened '%s'", name)
}

func logAlerts(ctx context.Context, b *engine.Broker, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.ToUI:
			if a, ok := msg.(engine.Alert); ok {
				logger.Printf("alert: %s", a.Message)
			}
		}
	}
}
