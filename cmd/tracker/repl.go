package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/pathkeeper/tracker/internal/dispatcher"
	"github.com/pathkeeper/tracker/internal/monitor"
	"github.com/pathkeeper/tracker/internal/presenter"
	"github.com/pathkeeper/tracker/internal/util"
	"github.com/pathkeeper/tracker/internal/worker"
	"github.com/pathkeeper/tracker/pkg/core"
)

// commands maps what the user types to dispatcher commands.
var commands = map[string]string{
	"start":   worker.CmdTrackStart,
	"stop":    worker.CmdTrackStop,
	"sample":  worker.CmdSample,
	"place":   worker.CmdPlaceAdd,
	"places":  worker.CmdPlaceList,
	"elapsed": worker.CmdElapsed,
	"status":  worker.CmdStatus,
	"history": worker.CmdHistory,
}

const usage = `commands:
  start                                   start tracking (clears path and places)
  stop                                    stop tracking
  sample <lat> <lon> <acc> [ts] [provider] feed a location sample
  place <label>                           name the current location
  places [geojson]                        show visited places
  elapsed                                 show the tracking timer
  status                                  show session status
  history                                 list archived runs
  quit                                    exit`

type repl struct {
	d       *dispatcher.Dispatcher
	geojson *presenter.GeoJSON // optional
	out     io.Writer
}

// run reads commands from in until quit, EOF or ctx is done.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if !r.exec(line) {
				return nil
			}
		}
	}
}

// exec runs one line and reports whether to keep going.
func (r *repl) exec(line string) bool {
	args := util.SplitArgs(line)
	if len(args) == 0 {
		return true
	}

	word := strings.ToLower(args[0])
	switch word {
	case "quit", "exit":
		return false
	case "help", "?":
		fmt.Fprintln(r.out, usage)
		return true
	}

	cmd, ok := commands[word]
	if !ok {
		fmt.Fprintf(r.out, "Unknown command: %s (try help)\n", args[0])
		return true
	}

	res, err := r.d.Dispatch(dispatcher.Event{Command: cmd, Args: args[1:]})
	if err != nil {
		fmt.Fprintln(r.out, worker.UserMessage(err))
		return true
	}
	fmt.Fprintln(r.out, format(res))

	if word == "places" && len(args) > 1 && strings.EqualFold(args[1], "geojson") && r.geojson != nil {
		if latest := r.geojson.Latest(); latest != nil {
			fmt.Fprintln(r.out, string(latest))
		}
	}
	return true
}

func format(res any) string {
	switch v := res.(type) {
	case nil:
		return "OK"
	case string:
		return v
	case core.RenderHint:
		out := fmt.Sprintf("Location updated: %.5f,%.5f", v.Center.Latitude, v.Center.Longitude)
		if v.Segment {
			out += " (recorded)"
		}
		return out
	case []core.NamedPlace:
		if len(v) == 0 {
			return "No places yet"
		}
		var b strings.Builder
		for i, p := range v {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d. %s (%.5f, %.5f)", i+1, p.Label, p.Latitude, p.Longitude)
		}
		return b.String()
	case monitor.Status:
		return v.String()
	case []core.Run:
		if len(v) == 0 {
			return "No archived runs"
		}
		runs := slices.Clone(v)
		slices.SortStableFunc(runs, func(a, b core.Run) int { return a.EndedAt.Compare(b.EndedAt) })
		var b strings.Builder
		for i, run := range runs {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s  %s  %d points  %d places  %.0f m",
				run.ID, run.StartedAt.Format(time.RFC3339), len(run.Path), len(run.Places), run.PathLengthMeters)
		}
		return b.String()
	default:
		return fmt.Sprint(v)
	}
}
