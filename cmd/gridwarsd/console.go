package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gridwars/engine/internal/dispatcher"
)

// Dispatcher is the part of *dispatcher.Dispatcher the console needs.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// parseLine splits a console line into a command event. Blank lines and
// lines starting with # give ok == false.
func parseLine(line string, now time.Time) (dispatcher.Event, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return dispatcher.Event{}, false
	}
	return dispatcher.Event{
		Command:   strings.ToLower(fields[0]),
		Args:      fields[1:],
		Timestamp: now,
	}, true
}

// console reads commands from in until it ends, ctx is done or "quit" is
// read, which calls quit.
func console(ctx context.Context, in io.Reader, out io.Writer, d Dispatcher, quit func()) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		e, ok := parseLine(scanner.Text(), time.Now())
		if !ok {
			continue
		}
		if e.Command == "quit" || e.Command == "exit" {
			quit()
			return
		}
		result, err := d.Dispatch(e)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if result != nil {
			fmt.Fprintln(out, result)
		}
	}
}
