// Package maincmd implements the ember command-line driver: argument
// parsing, the REPL, and single-file execution, wired to exit codes 0
// (success), 64 (usage error), 65 (compile error), 70 (runtime error) and
// 74 (I/O error).
package maincmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/ember/internal/config"
	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/machine"
	"github.com/mna/ember/lang/value"
	"github.com/mna/mainer"
)

const binName = "ember"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

With no <path>, %[1]s starts a read-eval-print loop. With one <path>, it
compiles and runs that file. More than one <path> is a usage error.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace                   Disassemble and print every chunk before
                                 running it (also EMBER_TRACE=1).
`, binName)
)

// Cmd is the top-level command, bound to command-line flags by
// mainer.Parser and driven by Main.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Trace   bool `flag:"trace"`

	args []string
}

func (c *Cmd) SetArgs(args []string)         { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("usage: at most one source file path")
	}
	return nil
}

// Main parses args, dispatches to the REPL or file runner, and returns the
// process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: "EMBER_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(64)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	if len(c.args) > 1 {
		fmt.Fprint(stdio.Stderr, shortUsage)
		return mainer.ExitCode(64)
	}

	gcCfg, err := config.LoadGC()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return mainer.ExitCode(74)
	}
	heap := value.NewHeap(gcCfg.HeapOptions(stdio.Stderr)...)

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 0 {
		runREPL(ctx, stdio, heap, c.Trace)
		return mainer.Success
	}
	return runFile(stdio, heap, c.args[0], c.Trace)
}

// RunFile compiles and runs the ember source at path against a freshly
// configured heap. It is the entry point used both by Main and directly by
// golden-file tests that don't need the full flag-parsing path.
func RunFile(stdio mainer.Stdio, path string) mainer.ExitCode {
	gcCfg, err := config.LoadGC()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return mainer.ExitCode(74)
	}
	heap := value.NewHeap(gcCfg.HeapOptions(stdio.Stderr)...)
	return runFile(stdio, heap, path, false)
}

func runFile(stdio mainer.Stdio, heap *value.Heap, path string, trace bool) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return mainer.ExitCode(74)
	}
	if err := execute(stdio, heap, src, trace); err != nil {
		return exitCodeFor(err)
	}
	return mainer.Success
}

func runREPL(ctx context.Context, stdio mainer.Stdio, heap *value.Heap, trace bool) {
	in := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, ">> ")
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !in.Scan() {
			return
		}
		line := in.Text()
		if line == "" {
			continue
		}
		// a REPL keeps going after an error; only file execution aborts.
		_ = execute(stdio, heap, []byte(line), trace)
	}
}

func execute(stdio mainer.Stdio, heap *value.Heap, src []byte, trace bool) error {
	fn, err := compiler.Compile(heap, src)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	if trace {
		// the script's chunk first, then every nested function's chunk,
		// found through the constant pools.
		pending := []*value.ObjFunction{fn}
		for len(pending) > 0 {
			f := pending[0]
			pending = pending[1:]
			f.Chunk.Disassemble(stdio.Stdout, f.DisplayName())
			for _, k := range f.Chunk.Constants {
				if nested, ok := k.AsObj().(*value.ObjFunction); ok {
					pending = append(pending, nested)
				}
			}
		}
	}
	vm := machine.New(heap, stdio.Stdout)
	if err := vm.Run(fn); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}

func exitCodeFor(err error) mainer.ExitCode {
	var el compiler.ErrorList
	if errors.As(err, &el) {
		return mainer.ExitCode(65)
	}
	var rerr *machine.RuntimeError
	if errors.As(err, &rerr) {
		return mainer.ExitCode(70)
	}
	return mainer.Failure
}
