// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package info

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/hashicorp/go-version"

	"github.com/safing/entropyrng/crypto/hash"
)

var (
	name        = "[NAME]"
	devVersion  = "dev build"
	ver         = devVersion
	buildSource = "[source unknown]"
	buildTime   = "[build time unknown]"
	license     = "[license unknown]"

	info     *Info
	loadInfo sync.Once
)

// Info holds the programs meta information.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	License string `json:"license"`

	Source    string `json:"source"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`

	Commit     string `json:"commit"`
	CommitTime string `json:"commit_time"`
	Dirty      bool   `json:"dirty"`

	// Digests lists the digest algorithms available for extraction.
	Digests []string `json:"digests"`
}

// Set sets meta information via the main routine. This should be the first thing your program calls.
func Set(setName string, setVersion string, setLicenseName string) {
	name = setName
	license = setLicenseName

	if setVersion != "" {
		ver = setVersion
	}
}

// GetInfo returns all the meta information about the program.
func GetInfo() *Info {
	loadInfo.Do(func() {
		settings, goVersion := readBuildInfo()
		info = &Info{
			Name:       name,
			Version:    ver,
			License:    license,
			Source:     buildSource,
			BuildTime:  buildTime,
			GoVersion:  goVersion,
			Commit:     valueOr(settings["vcs.revision"], "[commit unknown]"),
			CommitTime: valueOr(settings["vcs.time"], "[commit time unknown]"),
			Dirty:      settings["vcs.modified"] == "true",
			Digests:    hash.Names(),
		}
	})

	return info
}

func readBuildInfo() (settings map[string]string, goVersion string) {
	settings = make(map[string]string)
	goVersion = runtime.Version()

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return settings, goVersion
	}
	for _, setting := range buildInfo.Settings {
		settings[setting.Key] = setting.Value
	}
	if buildInfo.GoVersion != "" {
		goVersion = buildInfo.GoVersion
	}
	return settings, goVersion
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Version returns the short version string. Builds from a modified tree are marked with a star.
func Version() string {
	info := GetInfo()
	if info.Dirty {
		return info.Version + "*"
	}
	return info.Version
}

// FullVersion returns the full and detailed version string.
func FullVersion() string {
	info := GetInfo()
	b := new(strings.Builder)

	fmt.Fprintf(b, "%s %s\n", info.Name, Version())

	fmt.Fprintf(b, "\nbuilt with %s (%s) %s/%s\n", info.GoVersion, runtime.Compiler, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(b, "  at %s\n", info.BuildTime)

	fmt.Fprintf(b, "\ncommit %s\n", info.Commit)
	fmt.Fprintf(b, "  at %s\n", info.CommitTime)
	fmt.Fprintf(b, "  from %s\n", info.Source)

	fmt.Fprintf(b, "\ndigests: %s\n", strings.Join(info.Digests, ", "))

	fmt.Fprintf(b, "\nLicensed under the %s license.", info.License)
	return b.String()
}

// CheckVersion returns an error if Set was not called or the version is not
// a semantic version. Test binaries are exempt from the first check.
func CheckVersion() error {
	if ver != devVersion {
		if _, err := version.NewVersion(ver); err != nil {
			return fmt.Errorf("invalid version %q: %w", ver, err)
		}
	}

	if strings.HasSuffix(os.Args[0], ".test") || strings.HasSuffix(os.Args[0], ".test.exe") {
		return nil
	}
	if name == "[NAME]" || license == "[license unknown]" {
		return errors.New("must call info.Set() before starting")
	}
	return nil
}

// AtLeast reports whether the running version is at least the given one.
// Dev builds always are.
func AtLeast(minimum string) (bool, error) {
	if ver == devVersion {
		return true, nil
	}

	current, err := version.NewVersion(ver)
	if err != nil {
		return false, err
	}
	constraint, err := version.NewConstraint(">= " + minimum)
	if err != nil {
		return false, err
	}
	return constraint.Check(current), nil
}
