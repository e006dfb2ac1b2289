// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package run executes the full program lifecycle of the registered modules.
package run

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/safing/entropyrng/log"
	"github.com/safing/entropyrng/modules"
)

const (
	forceExitSignals = 5
	shutdownTimeout  = 3 * time.Minute
)

var (
	printStackOnExit   bool
	enableInputSignals bool

	statusFunc func() string

	sigUSR1 = syscall.Signal(0xa) // dummy for windows
)

func init() {
	flag.BoolVar(&printStackOnExit, "print-stack-on-exit", false, "prints the stack before of shutting down")
	flag.BoolVar(&enableInputSignals, "input-signals", false, "emulate signals using stdin")
}

// SetStatusFunc sets a function whose output is written to stderr on SIGUSR1,
// before the goroutine dump. Must be called before Run.
func SetStatusFunc(fn func() string) {
	statusFunc = fn
}

// Run starts all registered modules, waits for an interrupt or a module
// initiated shutdown and returns the exit code. Use as os.Exit(run.Run()).
func Run() int {
	reports := make(chan *modules.ModuleError, 10)
	modules.SetErrorReportingChannel(reports)
	go reportModuleErrors(reports)

	if err := modules.Start(); err != nil {
		return startFailed(err)
	}

	signalCh := make(chan os.Signal, 1)
	if enableInputSignals {
		go inputSignals(signalCh)
	}
	signal.Notify(
		signalCh,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		sigUSR1,
	)

	for {
		select {
		case sig := <-signalCh:
			if sig == sigUSR1 {
				printStatus(os.Stderr)
				continue
			}
			interrupted(signalCh)
			return modules.GetExitStatusCode()

		case <-modules.ShuttingDown():
			return modules.GetExitStatusCode()
		}
	}
}

func startFailed(err error) int {
	if errors.Is(err, modules.ErrCleanExit) {
		return modules.CurrentExitStatusCode()
	}
	if modules.CurrentExitStatusCode() == 0 {
		modules.SetExitStatusCode(1)
	}
	if printStackOnExit {
		printStackTo(os.Stdout)
	}

	_ = modules.Shutdown()
	return modules.GetExitStatusCode()
}

// interrupted shuts down. Repeated signals force the exit, as does a
// shutdown that takes too long.
func interrupted(signalCh <-chan os.Signal) {
	fmt.Println(" <INTERRUPT>")
	log.Warning("main: program was interrupted, shutting down.")

	go func() {
		for left := forceExitSignals - 1; ; left-- {
			<-signalCh
			if left <= 0 {
				forceExit("===== FORCED EXIT =====")
			}
			fmt.Printf(" <INTERRUPT> again, but already shutting down. %d more to force.\n", left)
		}
	}()
	go func() {
		time.Sleep(shutdownTimeout)
		forceExit("===== TAKING TOO LONG FOR SHUTDOWN =====")
	}()

	if printStackOnExit {
		printStackTo(os.Stdout)
	}
	_ = modules.Shutdown()
}

func forceExit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	printStackTo(os.Stderr)
	os.Exit(1)
}

func printStatus(w io.Writer) {
	if statusFunc != nil {
		fmt.Fprintf(w, "=== STATUS ===\n%s\n", statusFunc())
	}
	_ = pprof.Lookup("goroutine").WriteTo(w, 1)
}

func reportModuleErrors(reports <-chan *modules.ModuleError) {
	for me := range reports {
		log.Errorf(
			"%s: %s %s reported %s: %s\n%s",
			me.ModuleName, me.TaskType, me.TaskName, me.Severity, me.Message, me.StackTrace,
		)
	}
}

var inputSignalNames = map[string]os.Signal{
	"SIGHUP":  syscall.SIGHUP,
	"SIGINT":  syscall.SIGINT,
	"SIGQUIT": syscall.SIGQUIT,
	"SIGTERM": syscall.SIGTERM,
	"SIGUSR1": sigUSR1,
}

func inputSignals(signalCh chan<- os.Signal) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if sig, ok := inputSignalNames[scanner.Text()]; ok {
			signalCh <- sig
		}
	}
}

func printStackTo(writer io.Writer) {
	fmt.Fprintln(writer, "=== PRINTING TRACES ===")
	fmt.Fprintln(writer, "=== GOROUTINES ===")
	_ = pprof.Lookup("goroutine").WriteTo(writer, 1)
	fmt.Fprintln(writer, "=== BLOCKING ===")
	_ = pprof.Lookup("block").WriteTo(writer, 1)
	fmt.Fprintln(writer, "=== MUTEXES ===")
	_ = pprof.Lookup("mutex").WriteTo(writer, 1)
	fmt.Fprintln(writer, "=== END TRACES ===")
}
