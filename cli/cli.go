// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package cli provides the command line operations: validating a file of
// values and printing values in console mode.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/safing/entropyrng/entropy"
	"github.com/safing/entropyrng/formats/dsd"
	"github.com/safing/entropyrng/log"
	"github.com/safing/entropyrng/modules"
	"github.com/safing/entropyrng/randtest"
)

var (
	validateFile string
	printCount   int
	outputFormat string
)

func init() {
	flag.StringVar(&validateFile, "validate", "", "validate the values in the given file (\"-\" for stdin) and exit")
	flag.IntVar(&printCount, "count", 0, "wait until the pool is ready, print the given amount of values and exit")
	flag.StringVar(&outputFormat, "format", "text", "output format of -validate and -count: text, json, cbor or msgpack")
}

// Generator is the part of the random number service used by the console mode.
type Generator interface {
	WaitUntilReady(ctx context.Context, poll time.Duration, progress func(entropy.Status)) (entropy.Status, error)
	Generate(count int) ([]int, error)
}

// Register registers the "cli" module. It runs after the api, so that the
// capture page is available while waiting in console mode.
func Register(gen Generator) *modules.Module {
	var module *modules.Module
	module = modules.Register("cli", func() error {
		return prep(module, gen)
	}, nil, nil, "api")
	return module
}

func prep(module *modules.Module, gen Generator) error {
	switch {
	case validateFile != "":
		code, err := ValidateFile(validateFile, outputFormat, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "validation failed: %s\n", err)
			modules.SetExitStatusCode(2)
			return modules.ErrCleanExit
		}
		modules.SetExitStatusCode(code)
		return modules.ErrCleanExit

	case printCount < 0:
		return fmt.Errorf("invalid -count %d", printCount)

	case printCount > 0:
		modules.SetCmdLineOperation(func() error {
			return PrintValues(module.Ctx, gen, printCount, outputFormat, os.Stdout, os.Stderr)
		})
	}
	return nil
}

// ValidateFile runs the randomness tests on the values in the file and
// writes the report. The returned exit code is 1 for a poor verdict.
func ValidateFile(path, format string, w io.Writer) (code int, err error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}

	values, err := randtest.ParseValues(r)
	if err != nil {
		return 0, err
	}
	report, err := randtest.Validate(values, randtest.PolicyFromConfig())
	if err != nil {
		return 0, err
	}
	log.Debugf("cli: validated %d values from %s", len(values), path)

	if err := write(w, format, report, report.WriteText); err != nil {
		return 0, err
	}
	if report.Summary.Verdict == randtest.VerdictPoor {
		return 1, nil
	}
	return 0, nil
}

// PrintValues waits until the pool is ready, reporting the progress to
// status, and writes count values.
func PrintValues(ctx context.Context, gen Generator, count int, format string, w, status io.Writer) error {
	_, err := gen.WaitUntilReady(ctx, 500*time.Millisecond, func(s entropy.Status) {
		fmt.Fprintf(status, "collecting entropy, missing: %s\n", strings.Join(s.Missing(), ", "))
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	values, err := gen.Generate(count)
	if err != nil {
		return err
	}

	return write(w, format, values, func(w io.Writer) error {
		for _, v := range values {
			if _, err := fmt.Fprintln(w, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func write(w io.Writer, format string, v interface{}, writeText func(io.Writer) error) error {
	if format == "" || format == "text" {
		return writeText(w)
	}

	f, err := dsd.FormatFromName(format)
	if err != nil {
		return err
	}
	if f == dsd.AUTO {
		f = dsd.JSON
	}
	data, err := dsd.DumpWithoutIdentifier(v, f)
	if err != nil {
		return err
	}
	if f == dsd.JSON {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}
