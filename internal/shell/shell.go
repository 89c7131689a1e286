// Package shell implements the line-oriented command interpreter used by
// `spike shell`. Every command maps onto one session method; command errors
// are printed and the interpreter keeps going.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/session"
)

// ErrQuit is returned by Exec when the user asks to leave the shell.
var ErrQuit = errors.New("quit")

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, sh *Shell, args []string) error
}

// Shell executes command lines against a session.
type Shell struct {
	sess *session.Session
	out  io.Writer

	// Prompt is printed before each line when non-empty.
	Prompt string
}

// New creates a shell writing its output to out.
func New(sess *session.Session, out io.Writer) *Shell {
	return &Shell{sess: sess, out: out}
}

// Run reads lines from r until EOF, ctx cancellation, or quit. A read
// blocked on r does not delay returning on cancellation. A clock started
// from the shell stops when Run returns.
func (sh *Shell) Run(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		if sh.Prompt != "" {
			fmt.Fprint(sh.out, sh.Prompt)
		}
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return ctx.Err()
				}
			}
			line = l
		}
		err := sh.Exec(ctx, line)
		switch {
		case errors.Is(err, ErrQuit):
			return nil
		case err != nil:
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}

// Exec runs a single command line. Blank lines and lines starting with '#'
// are ignored.
func (sh *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	if err := cmd.run(ctx, sh, args); err != nil {
		if err == ErrUsage {
			return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
		}
		if errors.Is(err, ErrUsage) {
			return fmt.Errorf("%w (%s)", err, cmd.usage)
		}
		return err
	}
	return nil
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"add":     {"add <x> <y>", "create a neuron at x y", cmdAdd},
		"rm":      {"rm <neuron>", "remove a neuron and its links", cmdRemove},
		"link":    {"link <src> <dst>", "link two neurons", cmdLink},
		"unlink":  {"unlink <link>", "remove a link", cmdUnlink},
		"weight":  {"weight <link> <steps>", "move a link weight by steps", cmdWeight},
		"stim":    {"stim <neuron>", "inject the manual stimulus", cmdStim},
		"sel":     {"sel <neuron>", "select a neuron", cmdSelect},
		"sell":    {"sell <link>", "select a link", cmdSelectLink},
		"connect": {"connect <neuron>", "link the selected neuron to this one, then select it", cmdConnect},
		"move":    {"move <neuron> <x> <y>", "move a neuron", cmdMove},
		"tick":    {"tick [k]", "advance k ticks (default 1)", cmdTick},
		"start":   {"start", "start the clock", cmdStart},
		"stop":    {"stop", "stop the clock", cmdStop},
		"stats":   {"stats", "show the selected neuron and link", cmdStats},
		"ls":      {"ls", "list neurons", cmdList},
		"links":   {"links", "list links", cmdLinks},
		"help":    {"help", "show this help", cmdHelp},
		"quit":    {"quit", "leave the shell", cmdQuit},
	}
}

func parseNeuron(s string) (network.NeuronID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad neuron id %q", ErrUsage, s)
	}
	return network.NeuronID(n), nil
}

func parseLink(s string) (network.LinkID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad link id %q", ErrUsage, s)
	}
	return network.LinkID(n), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrUsage, s)
	}
	return f, nil
}

func arity(args []string, n int) error {
	if len(args) != n {
		return ErrUsage
	}
	return nil
}

func cmdAdd(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 2); err != nil {
		return err
	}
	x, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	y, err := parseFloat(args[1])
	if err != nil {
		return err
	}
	id := sh.sess.AddNeuron(network.Position{X: x, Y: y})
	fmt.Fprintf(sh.out, "neuron %d\n", id)
	return nil
}

func cmdRemove(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 1); err != nil {
		return err
	}
	id, err := parseNeuron(args[0])
	if err != nil {
		return err
	}
	return sh.sess.RemoveNeuron(id)
}

func cmdLink(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 2); err != nil {
		return err
	}
	src, err := parseNeuron(args[0])
	if err != nil {
		return err
	}
	dst, err := parseNeuron(args[1])
	if err != nil {
		return err
	}
	id, err := sh.sess.AddLink(src, dst)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "link %d\n", id)
	return nil
}

func cmdUnlink(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 1); err != nil {
		return err
	}
	id, err := parseLink(args[0])
	if err != nil {
		return err
	}
	return sh.sess.RemoveLink(id)
}

func cmdWeight(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 2); err != nil {
		return err
	}
	id, err := parseLink(args[0])
	if err != nil {
		return err
	}
	d, err := parseFloat(args[1])
	if err != nil {
		return err
	}
	w, err := sh.sess.AdjustWeight(id, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "weight %.2f\n", w)
	return nil
}

func cmdStim(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 1); err != nil {
		return err
	}
	id, err := parseNeuron(args[0])
	if err != nil {
		return err
	}
	return sh.sess.Stimulate(id)
}

func cmdSelect(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 1); err != nil {
		return err
	}
	id, err := parseNeuron(args[0])
	if err != nil {
		return err
	}
	return sh.sess.SelectNeuron(id)
}

func cmdSelectLink(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 1); err != nil {
		return err
	}
	id, err := parseLink(args[0])
	if err != nil {
		return err
	}
	return sh.sess.SelectLink(id)
}

func cmdConnect(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 1); err != nil {
		return err
	}
	id, err := parseNeuron(args[0])
	if err != nil {
		return err
	}
	l, created, err := sh.sess.Connect(id)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(sh.out, "link %d\n", l)
	}
	return nil
}

func cmdMove(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 3); err != nil {
		return err
	}
	id, err := parseNeuron(args[0])
	if err != nil {
		return err
	}
	x, err := parseFloat(args[1])
	if err != nil {
		return err
	}
	y, err := parseFloat(args[2])
	if err != nil {
		return err
	}
	return sh.sess.MoveNeuron(id, network.Position{X: x, Y: y})
}

func cmdTick(_ context.Context, sh *Shell, args []string) error {
	k := 1
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("%w: bad tick count %q", ErrUsage, args[0])
		}
		k = n
	default:
		return ErrUsage
	}
	snap := sh.sess.TickN(k)
	fmt.Fprintf(sh.out, "tick %d\n", snap.Tick)
	return nil
}

func cmdStart(ctx context.Context, sh *Shell, args []string) error {
	if err := arity(args, 0); err != nil {
		return err
	}
	if !sh.sess.Start(ctx) {
		fmt.Fprintln(sh.out, "already running")
	}
	return nil
}

func cmdStop(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 0); err != nil {
		return err
	}
	if !sh.sess.Stop() {
		fmt.Fprintln(sh.out, "not running")
	}
	return nil
}

func cmdStats(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 0); err != nil {
		return err
	}
	ns, nok := sh.sess.NeuronStats()
	ls, lok := sh.sess.LinkStats()
	if !nok && !lok {
		fmt.Fprintln(sh.out, "nothing selected")
		return nil
	}
	if nok {
		fmt.Fprintln(sh.out, ns)
	}
	if lok {
		fmt.Fprintln(sh.out, ls)
	}
	return nil
}

func cmdList(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 0); err != nil {
		return err
	}
	snap := sh.sess.Snapshot()
	for _, n := range snap.Neurons {
		mark := " "
		if n.Firing() {
			mark = "*"
		}
		fmt.Fprintf(sh.out, "%s %-6s (%s) v=%6.3f w=%6.3f\n", mark, n.ID, n.Position, n.V, n.W)
	}
	return nil
}

func cmdLinks(_ context.Context, sh *Shell, args []string) error {
	if err := arity(args, 0); err != nil {
		return err
	}
	for _, l := range sh.sess.Snapshot().Links {
		fmt.Fprintf(sh.out, "%3d  %s  weight=%.2f\n", l.ID, l.Label(), l.Weight)
	}
	return nil
}

func cmdHelp(_ context.Context, sh *Shell, _ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(sh.out, "  %-24s %s\n", c.usage, c.help)
	}
	return nil
}

func cmdQuit(context.Context, *Shell, []string) error {
	return ErrQuit
}
