package player

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/cornwall-player/cmd/common"
	"github.com/gigurra/cornwall-player/cmd/player/status"
	"github.com/gigurra/cornwall-player/cmd/player/transport"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type StatusParams struct {
	StateDir string `pos:"true" optional:"true" help:"Project state directory. Searched upwards from the working directory by default."`
	JSON     bool   `short:"j" help:"Print the raw status JSON (zero-valued when no player is running)." default:"false"`
	Follow   bool   `short:"f" help:"Keep printing whenever the status changes." default:"false"`
	Verbose  bool   `short:"v" help:"Debug logging to stderr." default:"false"`
}

type QueryParams struct {
	StateDir string `pos:"true" optional:"true" help:"Project state directory. Searched upwards from the working directory by default."`
}

// QueryCmds returns the non-interactive status subcommands.
func QueryCmds() []*cobra.Command {
	return []*cobra.Command{
		StatusCmd(),
		PlayingCmd(),
		PositionCmd(),
		BarCmd(),
	}
}

func StatusCmd() *cobra.Command {
	return boa.CmdT[StatusParams]{
		Use:         "status",
		Short:       "Show the running player's transport state",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *StatusParams, cmd *cobra.Command, args []string) {
			common.SetupStderrLogging(params.Verbose)
			common.ExitOnError("status", runStatus(cmd.Context(), params, os.Stdout))
		},
	}.ToCobra()
}

func PlayingCmd() *cobra.Command {
	return boa.CmdT[QueryParams]{
		Use:         "playing",
		Short:       "Exit 0 if a player is currently playing, 1 otherwise",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *QueryParams, cmd *cobra.Command, args []string) {
			common.SetupStderrLogging(false)
			if !isPlaying(common.ResolveStateDir(params.StateDir)) {
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func PositionCmd() *cobra.Command {
	return boa.CmdT[QueryParams]{
		Use:         "position",
		Short:       "Print the playback position in seconds",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *QueryParams, cmd *cobra.Command, args []string) {
			common.SetupStderrLogging(false)
			printPosition(os.Stdout, common.ResolveStateDir(params.StateDir))
		},
	}.ToCobra()
}

func BarCmd() *cobra.Command {
	return boa.CmdT[QueryParams]{
		Use:         "bar",
		Short:       "Print the current bar.beat",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *QueryParams, cmd *cobra.Command, args []string) {
			common.SetupStderrLogging(false)
			printBar(os.Stdout, common.ResolveStateDir(params.StateDir))
		},
	}.ToCobra()
}

func printStatusJSON(w io.Writer, stateDir string) error {
	data := status.Query(stateDir)
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func runStatus(ctx context.Context, params *StatusParams, w io.Writer) error {
	stateDir := common.ResolveStateDir(params.StateDir)

	if !params.Follow {
		if params.JSON {
			return printStatusJSON(w, stateDir)
		}
		s, active := status.Read(stateDir)
		printStatusTable(w, s, active)
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return status.Follow(ctx, stateDir, func(s status.Snapshot, active bool) {
		if params.JSON {
			_ = printStatusJSON(w, stateDir)
			return
		}
		printStatusTable(w, s, active)
	})
}

func printStatusTable(w io.Writer, s status.Snapshot, active bool) {
	if !active {
		fmt.Fprintln(w, "Player not running")
		return
	}

	state := "stopped"
	if s.Playing {
		state = "playing"
	}
	position := time.Duration(s.PositionSec * float64(time.Second))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(getTermWidth())
	t.AppendRows([]table.Row{
		{"State", state},
		{"Position", transport.FormatClock(position)},
		{"Bar", fmt.Sprintf("%d.%d", s.Bar, s.Beat)},
		{"Tempo", fmt.Sprintf("%g BPM  %s", s.BPM, s.TimeSig)},
		{"Level", fmt.Sprintf("L %.2f  R %.2f", s.LevelL, s.LevelR)},
		{"File", filepath.Base(s.File)},
	})
	if s.PID > 0 {
		t.AppendRow(table.Row{"PID", s.PID})
	}
	t.Render()
}

func isPlaying(stateDir string) bool {
	s, active := status.Read(stateDir)
	return active && s.Playing
}

func printPosition(w io.Writer, stateDir string) {
	s, _ := status.Read(stateDir)
	fmt.Fprintf(w, "%.2f\n", s.PositionSec)
}

func printBar(w io.Writer, stateDir string) {
	s, _ := status.Read(stateDir)
	fmt.Fprintf(w, "%d.%d\n", s.Bar, s.Beat)
}

func getTermWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 120
}
