// Package deps reports whether the external binaries and ffmpeg components
// the pipeline shells out to are installed.
package deps

import (
	"os/exec"
	"strings"
)

// Requirement names an external binary. Optional requirements only warn when
// absent.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of checking one requirement. Command holds the
// resolved path when the binary was found.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Blocking reports whether the status should fail a readiness check.
func (s Status) Blocking() bool { return !s.Available && !s.Optional }

// lookPath is swapped in tests.
var lookPath = exec.LookPath

func (r Requirement) check() Status {
	s := Status{
		Name:        r.Name,
		Command:     strings.TrimSpace(r.Command),
		Description: strings.TrimSpace(r.Description),
		Optional:    r.Optional,
	}
	if s.Command == "" {
		s.Detail = "command not configured"
		return s
	}
	path, err := lookPath(s.Command)
	if err != nil {
		s.Detail = `binary "` + s.Command + `" not found`
		return s
	}
	s.Command, s.Available = path, true
	return s
}

// CheckBinaries resolves each requirement on PATH, preserving input order.
func CheckBinaries(requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		out[i] = req.check()
	}
	return out
}

// Missing returns the names of blocking statuses.
func Missing(statuses []Status) []string {
	var names []string
	for _, s := range statuses {
		if s.Blocking() {
			names = append(names, s.Name)
		}
	}
	return names
}
