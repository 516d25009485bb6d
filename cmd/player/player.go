// Package player wires the playback clock, level meter, status publisher and audio
// output into the interactive transport view.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/cornwall-player/cmd/common"
	"github.com/gigurra/cornwall-player/cmd/common/config"
	"github.com/gigurra/cornwall-player/cmd/player/meter"
	"github.com/gigurra/cornwall-player/cmd/player/output"
	"github.com/gigurra/cornwall-player/cmd/player/project"
	"github.com/gigurra/cornwall-player/cmd/player/status"
	"github.com/gigurra/cornwall-player/cmd/player/transport"
	"github.com/spf13/cobra"
)

const LongHelp = `Plays a rendered mix (or the first track with a source) of a Cornwall project
and shows a live transport with bar/beat position and L/R level meters.

While playing, the transport state is written to <state-dir>/.player.json every tick
and removed on stop or quit, so other tools can poll it. Use --status (or the status
subcommands) to read it without starting a player.

Keys: SPACE play/stop, L toggle loop, q quit.`

type Params struct {
	File     string `pos:"true" optional:"true" help:"Audio file to play (state dir with --status). Defaults to the project's mix.wav."`
	Status   bool   `help:"Print the current player status JSON and exit." default:"false"`
	StateDir string `short:"d" help:"Project state directory. Searched upwards from the working directory by default." default:""`
	ChunkMs  int    `help:"Level meter resolution in milliseconds (0 = config/default)." default:"0"`
	TickMs   int    `help:"Transport tick interval in milliseconds (0 = config/default)." default:"0"`
	NoLoop   bool   `help:"Stop at the end instead of looping." default:"false"`
	Play     bool   `short:"p" help:"Start playing immediately." default:"false"`
	Mute     bool   `short:"m" help:"Run the transport without audio output." default:"false"`
	Verbose  bool   `short:"v" help:"Debug logging to the player log file." default:"false"`
}

// Cmd returns the root player command.
func Cmd(version string) *cobra.Command {
	cmd := boa.CmdT[Params]{
		Use:         "cornwall-player [audio-file]",
		Short:       "Terminal transport and level meter for Cornwall projects",
		Long:        LongHelp,
		Version:     version,
		ParamEnrich: common.DefaultParamEnricher(),
		SubCmds:     QueryCmds(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			common.ExitOnError("cornwall-player", Run(cmd.Context(), params))
		},
	}.ToCobra()
	// A root command with subcommands rejects unknown positional args unless Args is set.
	if cmd.Args == nil {
		cmd.Args = cobra.MaximumNArgs(1)
	}
	return cmd
}

// Run starts the interactive player, or prints the status file when params.Status is set.
func Run(ctx context.Context, params *Params) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if params.Status {
		dir := params.StateDir
		if dir == "" {
			dir = params.File
		}
		return printStatusJSON(os.Stdout, common.ResolveStateDir(dir))
	}

	closeLog := common.SetupFileLogging(common.LogPath(), params.Verbose)
	defer closeLog()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", config.ConfigPath(), err)
	}
	if params.ChunkMs > 0 {
		cfg.ChunkMs = params.ChunkMs
	}
	if params.TickMs > 0 {
		cfg.TickMs = params.TickMs
	}
	looping := cfg.Looping() && !params.NoLoop

	stateDir := common.ResolveStateDir(params.StateDir)
	audioPath, err := project.ResolveAudioSource(stateDir, params.File)
	if err != nil {
		return err
	}
	proj := project.LoadProject(stateDir)
	tracks := project.LoadTracks(stateDir)

	slog.Info("starting player", "state_dir", stateDir, "file", audioPath, "project", proj.Name)

	src, levels, err := loadSource(audioPath, cfg.ChunkMs)
	if err != nil {
		return err
	}

	out, err := openOutput(params.Mute)
	if err != nil {
		return err
	}
	defer out.Close()

	pub := status.NewPublisher(stateDir)
	clock := transport.New(
		src,
		proj, out, levels, pub,
		transport.Options{
			Looping:  looping,
			OnFinish: func() { slog.Info("playback finished", "file", audioPath) },
		},
	)
	defer func() {
		clock.Stop()
		pub.Clear()
	}()

	m := newModel(clock, tracks, cfg.TickInterval())
	if params.Play {
		if err := clock.Play(); err != nil {
			return err
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	stopSignals := quitOnSignal(p.Quit, syscall.SIGTERM, syscall.SIGHUP)
	finalModel, err := p.Run()
	stopSignals()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
		return err
	}
	if fm, ok := finalModel.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// quitOnSignal calls quit on the first of signals. The returned func stops listening
// and waits for the forwarding goroutine to exit.
func quitOnSignal(quit func(), signals ...os.Signal) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, signals...)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		select {
		case sig := <-sigChan:
			slog.Info("terminated by signal", "signal", sig)
			quit()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
		<-exited
	}
}

// loadSource reads the audio file, computes its levels and checks that the playback
// decoder accepts it, so a bad file fails before the transport view starts.
func loadSource(path string, chunkMs int) (transport.Source, *meter.Levels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return transport.Source{}, nil, fmt.Errorf("audio file not found: %s: %w", path, err)
	}
	wave, err := meter.DecodeWaveform(path, data)
	if err != nil {
		return transport.Source{}, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := output.Validate(path, data); err != nil {
		return transport.Source{}, nil, err
	}
	levels, err := meter.Build(wave, chunkMs)
	if err != nil {
		return transport.Source{}, nil, fmt.Errorf("failed to meter %s: %w", path, err)
	}
	slog.Debug("levels computed", "chunks", levels.Len(), "duration", wave.Duration())

	return transport.Source{Path: path, Data: data, Duration: wave.Duration()}, levels, nil
}

type audioOutput interface {
	transport.Output
	Close()
}

func openOutput(mute bool) (audioOutput, error) {
	if mute {
		return output.Silent{}, nil
	}
	dev, err := output.Open()
	if err != nil {
		return nil, err
	}
	return dev, nil
}
