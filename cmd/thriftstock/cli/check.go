package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/refdata"
	"github.com/thriftstock/thriftstock/internal/shared"
)

// Backend is the health probe used by the check command.
type Backend interface {
	Health(ctx context.Context) (backend.Health, error)
}

// ReferenceLoader loads every reference collection once.
type ReferenceLoader interface {
	Load(ctx context.Context) error
	Snapshot() *refdata.Snapshot
}

// CheckOptions defines the flags for the check command.
type CheckOptions struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// CheckSummary is the JSON answer of the check command.
type CheckSummary struct {
	OK      bool           `json:"ok"`
	Backend string         `json:"backend"`
	Error   string         `json:"error,omitempty"`
	Counts  map[string]int `json:"counts,omitempty"`
}

// CheckCommand probes the backend and loads reference data, the same two
// steps the console needs before it can render a page. Exit code 10 means the
// backend answered but reference data did not load.
func CheckCommand(ctx context.Context, be Backend, ref ReferenceLoader, opts CheckOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	summary := CheckSummary{}
	code := 0
	health, err := be.Health(ctx)
	switch {
	case err != nil:
		summary.Backend = "unreachable"
		summary.Error = shared.UserSafeMessage(err)
		code = 1
	default:
		summary.Backend = health.Status
		if err := ref.Load(ctx); err != nil {
			summary.Error = err.Error()
			code = 10
		} else {
			summary.Counts = map[string]int{}
			for kind, n := range ref.Snapshot().Counts() {
				summary.Counts[string(kind)] = n
			}
		}
	}
	summary.OK = code == 0

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "check: encode json: %v\n", err)
			return 1
		}
		return code
	}
	renderCheckHuman(opts.Stdout, summary)
	return code
}

func renderCheckHuman(w io.Writer, s CheckSummary) {
	_, _ = fmt.Fprintf(w, "backend: %s\n", s.Backend)
	if s.Error != "" {
		_, _ = fmt.Fprintf(w, "error: %s\n", s.Error)
	}
	kinds := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		_, _ = fmt.Fprintf(w, "%-14s %d\n", k, s.Counts[k])
	}
}
