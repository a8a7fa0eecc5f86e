// Command ember is the batch-file runner and REPL for the Ember
// scripting language: os.Args subcommand dispatch, a liner-backed
// REPL with a history file, Ctrl+C/SIGTERM/SIGHUP handling, and a
// parse-probe multi-line continuation loop.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/emberlang/ember"
	"github.com/emberlang/ember/modules/iomod"
	"github.com/emberlang/ember/modules/jsonmod"
	"github.com/emberlang/ember/modules/mathmod"
	"github.com/emberlang/ember/modules/osmod"
	"github.com/emberlang/ember/modules/stringmod"
)

const (
	appName     = "ember"
	version     = "0.1.0"
	historyFile = ".ember_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("Ember %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", version)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		os.Exit(cmdRepl(nil))
	}

	switch os.Args[1] {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(version)
	case "-h", "--help", "help":
		usage()
	default:
		if strings.HasPrefix(os.Args[1], "-") {
			fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, os.Args[1])
			usage()
			os.Exit(2)
		}
		// `ember <file.em> [args...]` runs the file directly.
		os.Exit(cmdRun(os.Args[1:]))
	}
}

func usage() {
	fmt.Printf(`Ember %s

Usage:
  %s                           Start the REPL.
  %s <file.em> [args...]       Run a script file.
  %s run <file.em> [args...]   Run a script file.
  %s repl                      Start the REPL.
  %s version                   Print the version.

`, version, appName, appName, appName, appName, appName)
}

// hostResolver wires every domain-stack module namespace into one
// resolver, shared by both run and repl.
func hostResolver() *ember.HostNamespace {
	return ember.NewHostNamespace(
		mathmod.Namespace(),
		stringmod.Namespace(),
		iomod.StdNamespace(),
		osmod.Namespace(),
		jsonmod.Namespace(),
	)
}

func registerArgv(s *ember.Script, argv []string) error {
	vals := make([]ember.Value, len(argv))
	for i, a := range argv {
		vals[i] = ember.StrVal(a)
	}
	return s.RegisterIdentifier(ember.Constant("argv", ember.ArrayVal(vals)))
}

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.em> [args...]\n", appName)
		return 2
	}

	src, err := os.ReadFile(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, rest[0], err)
		return 1
	}

	s, err := ember.NewScript(hostResolver(), os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	if err := registerArgv(s, rest[1:]); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	if _, err := s.Run(string(src)); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	return 0
}

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s, err := ember.NewScript(hostResolver(), os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		start := time.Now()
		v, err := s.Run(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Printf("%s  (%d ms)\n", green(ember.StringOf(v)), time.Since(start).Milliseconds())
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
	return 0
}

// readByParseProbe keeps prompting for more lines until the
// accumulated source is a complete fragment (ember.IsComplete).
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if ember.IsComplete(src) {
			return src, true
		}
	}
}
