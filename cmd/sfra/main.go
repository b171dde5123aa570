// Command sfra runs the straight-forward register allocator over a small
// catalog of hand-built demo graphs, for manual inspection of its decisions
// without needing a full front end wired up.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/relay-jit/regalloc/regalloc"
)

func main() {
	doMain(os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, exit func(code int)) {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "print usage")

	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		exit(0)
		return
	}

	subCmd := flag.Arg(0)
	switch subCmd {
	case "run":
		doRun(flag.Args()[1:], stdOut, stdErr, exit)
	case "dump-holes":
		doDumpHoles(flag.Args()[1:], stdOut, stdErr, exit)
	case "list":
		doList(stdOut)
		exit(0)
	default:
		fmt.Fprintln(stdErr, "invalid command")
		printUsage(stdErr)
		exit(1)
	}
}

func doList(stdOut io.Writer) {
	for _, s := range scenarios {
		fmt.Fprintf(stdOut, "%-18s %s\n", s.name, s.description)
	}
}

func doRun(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "print usage")

	var trace bool
	flags.BoolVar(&trace, "trace", false, "log each block entered and each phi placement to stderr")

	_ = flags.Parse(args)

	if help {
		printRunUsage(stdErr, flags)
		exit(0)
		return
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing scenario name")
		printRunUsage(stdErr, flags)
		exit(1)
		return
	}

	name := flags.Arg(0)
	s := findScenario(name)
	if s == nil {
		fmt.Fprintf(stdErr, "unknown scenario %q\n", name)
		printRunUsage(stdErr, flags)
		exit(1)
		return
	}

	g, regInfo := s.build()
	a := regalloc.NewAllocator(g, regInfo)
	if trace {
		a.SetTrace(stdErr)
	}
	a.Allocate()
	dumpAllocation(stdOut, g)
	exit(0)
}

func doDumpHoles(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	flags := flag.NewFlagSet("dump-holes", flag.ExitOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "print usage")

	_ = flags.Parse(args)

	if help {
		printDumpHolesUsage(stdErr, flags)
		exit(0)
		return
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing scenario name")
		printDumpHolesUsage(stdErr, flags)
		exit(1)
		return
	}

	name := flags.Arg(0)
	s := findScenario(name)
	if s == nil {
		fmt.Fprintf(stdErr, "unknown scenario %q\n", name)
		printDumpHolesUsage(stdErr, flags)
		exit(1)
		return
	}

	g, _ := s.build()
	dumpHoles(stdOut, g)
	exit(0)
}

func printUsage(stdErr io.Writer) {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.name
	}
	fmt.Fprintln(stdErr, "sfra CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  sfra <command>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Commands:")
	fmt.Fprintln(stdErr, "  run <scenario>\t\tAllocates a demo scenario and dumps its operands")
	fmt.Fprintln(stdErr, "  dump-holes <scenario>\tDumps the post-dominating-hole analysis for a demo scenario")
	fmt.Fprintln(stdErr, "  list\t\t\tLists the available demo scenarios")
	fmt.Fprintln(stdErr)
	fmt.Fprintf(stdErr, "Scenarios: %s\n", strings.Join(names, ", "))
}

func printRunUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "sfra CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  sfra run <options> <scenario>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}

func printDumpHolesUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "sfra CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  sfra dump-holes <options> <scenario>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}
