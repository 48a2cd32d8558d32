// Package prompt implements the confirmation gate in front of actions that
// change the workspace (moving or cloning repositories). A question is a
// synchronous call that ends in exactly one of Confirmed, Declined,
// TimedOut or Interrupted.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is how long a question waits for input.
const DefaultTimeout = 60 * time.Second

var (
	// ErrTimeout is returned by Result.Err when nobody answered in time.
	ErrTimeout = errors.New("prompt: timed out waiting for input")
	// ErrInterrupted is returned by Result.Err when the question's context
	// ended before an answer arrived.
	ErrInterrupted = errors.New("prompt: interrupted")
)

// Kind is the terminal state of a question.
type Kind int

const (
	// Confirmed means the answer was accepted; Result.Value holds it.
	Confirmed Kind = iota + 1
	// Declined means any other answer, closed input, or a non-interactive gate.
	Declined
	// TimedOut means no answer arrived before the timeout.
	TimedOut
	// Interrupted means the context ended first, usually on SIGINT.
	Interrupted
)

func (k Kind) String() string {
	switch k {
	case Confirmed:
		return "confirmed"
	case Declined:
		return "declined"
	case TimedOut:
		return "timed-out"
	case Interrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the tagged outcome of Ask.
type Result struct {
	Kind  Kind
	Value string
}

// Err converts TimedOut into ErrTimeout, Interrupted into ErrInterrupted
// and everything else to nil. Neither is ever a quiet "no".
func (r Result) Err() error {
	switch r.Kind {
	case TimedOut:
		return ErrTimeout
	case Interrupted:
		return ErrInterrupted
	default:
		return nil
	}
}

type line struct {
	text string
	err  error
}

// Gate reads answers from an input stream. Lines are read by one background
// goroutine so a question that times out does not leave a reader racing the
// next question for input.
type Gate struct {
	in          io.Reader
	out         io.Writer
	timeout     time.Duration
	interactive bool

	start sync.Once
	lines chan line
}

// New creates a Gate. When interactive is false every question is declined
// without touching in.
func New(in io.Reader, out io.Writer, timeout time.Duration, interactive bool) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Gate{
		in:          in,
		out:         out,
		timeout:     timeout,
		interactive: interactive,
		lines:       make(chan line),
	}
}

// Interactive reports whether the gate reads answers at all.
func (g *Gate) Interactive() bool {
	return g.interactive
}

// Ask writes question and waits for one line of input. The trimmed line is
// Confirmed when accept returns true for it, Declined otherwise.
func (g *Gate) Ask(ctx context.Context, question string, accept func(answer string) bool) Result {
	if !g.interactive {
		return Result{Kind: Declined}
	}

	g.start.Do(func() { go g.readLines() })

	fmt.Fprint(g.out, question)

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case l := <-g.lines:
		if l.err != nil {
			fmt.Fprintln(g.out)
			return Result{Kind: Declined}
		}

		answer := strings.TrimSpace(l.text)
		if accept(answer) {
			return Result{Kind: Confirmed, Value: answer}
		}

		return Result{Kind: Declined, Value: answer}
	case <-timer.C:
		fmt.Fprintln(g.out)
		return Result{Kind: TimedOut}
	case <-ctx.Done():
		fmt.Fprintln(g.out)
		return Result{Kind: Interrupted}
	}
}

func (g *Gate) readLines() {
	r := bufio.NewReader(g.in)

	for {
		text, err := r.ReadString('\n')
		if err != nil && text == "" {
			// Closed input answers every later question too.
			for {
				g.lines <- line{err: err}
			}
		}

		g.lines <- line{text: text}
	}
}
