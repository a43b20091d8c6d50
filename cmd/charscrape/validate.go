package main

import (
	"fmt"

	"github.com/use-agent/charscrape/urlcheck"
)

// Run executes the validate command. It fails when any URL is malformed
// or, with --probe, hard-unreachable.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	bad := 0
	for _, raw := range c.URLs {
		u := urlcheck.Normalize(raw)
		if !urlcheck.IsWellFormed(u) {
			bad++
			fmt.Fprintf(deps.Stdout, "invalid      %s\n", raw)
			continue
		}
		if !c.Probe {
			fmt.Fprintf(deps.Stdout, "ok           %s\n", u)
			continue
		}

		r := deps.Prober.IsReachable(deps.Ctx, u)
		switch {
		case r.Reachable:
			fmt.Fprintf(deps.Stdout, "reachable    %s  %s\n", u, r)
		case r.Soft():
			fmt.Fprintf(deps.Stdout, "uncertain    %s  %s\n", u, r)
		default:
			bad++
			fmt.Fprintf(deps.Stdout, "unreachable  %s  %s\n", u, r)
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d URLs failed validation", bad, len(c.URLs))
	}
	return nil
}
