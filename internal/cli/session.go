package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/pav/internal/renderer"
)

// controller is the part of the orchestrator the front ends drive.
type controller interface {
	SelectFile(ctx context.Context, path string) error
	SaveImage(ctx context.Context, format renderer.Format, dest string) error
}

type commandKind int

const (
	cmdHelp commandKind = iota
	cmdOpen
	cmdSave
	cmdQuit
)

// sessionCommand is one line typed on stdin in plain mode.
type sessionCommand struct {
	kind   commandKind
	path   string
	format renderer.Format
}

const sessionHelp = `commands:
  open <file>          watch another diagram file
  save <file> [format] render the current diagram and save it (svg, png)
  quit                 stop watching and exit`

// parseCommand parses a plain-mode command line. The save format defaults
// to the destination's extension, then to svg.
func parseCommand(line string) (sessionCommand, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return sessionCommand{kind: cmdHelp}, nil
	}

	switch strings.ToLower(fields[0]) {
	case "help", "h", "?":
		return sessionCommand{kind: cmdHelp}, nil
	case "quit", "q", "exit":
		return sessionCommand{kind: cmdQuit}, nil
	case "open", "o":
		if len(fields) != 2 {
			return sessionCommand{}, fmt.Errorf("usage: open <file>")
		}

		return sessionCommand{kind: cmdOpen, path: fields[1]}, nil
	case "save", "s":
		if len(fields) < 2 || len(fields) > 3 {
			return sessionCommand{}, fmt.Errorf("usage: save <file> [svg|png]")
		}

		sc := sessionCommand{kind: cmdSave, path: fields[1], format: renderer.FormatSVG}

		if f, ok := renderer.FormatFromPath(fields[1]); ok {
			sc.format = f
		}

		if len(fields) == 3 {
			f, err := renderer.ParseFormat(fields[2])
			if err != nil {
				return sessionCommand{}, err
			}

			sc.format = f
			sc.path = renderer.WithExtension(fields[1], f)
		}

		return sc, nil
	default:
		return sessionCommand{}, fmt.Errorf("unknown command %q (type \"help\")", fields[0])
	}
}
