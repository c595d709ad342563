// Package tzc compiles a parsed tzdata file into one tzindex.Index per zone
// name (and per link name, aliased to its target's index), wiring together
// ruleset, builder, and shrinker.
package tzc

import (
	"bytes"
	"fmt"

	"github.com/tzcore/tzperiod/builder"
	"github.com/tzcore/tzperiod/ruleset"
	"github.com/tzcore/tzperiod/shrinker"
	"github.com/tzcore/tzperiod/tzdata"
	"github.com/tzcore/tzperiod/tzindex"
)

// CompileBytes parses raw tzdata text and compiles it in one step.
func CompileBytes(dataBuf []byte) (map[string]*tzindex.Index, error) {
	f, err := tzdata.Parse(bytes.NewReader(dataBuf))
	if err != nil {
		return nil, err
	}
	return Compile(f)
}

// Compile groups f's zone lines by zone name, builds and shrinks each
// zone's period list, and resolves link lines into additional map entries
// pointing at their target's Index.
func Compile(f tzdata.File) (map[string]*tzindex.Index, error) {
	zones := groupZoneLines(f.ZoneLines)
	resolver := ruleset.NewResolver(f.RuleLines)
	b := builder.New(resolver)

	result := make(map[string]*tzindex.Index, len(zones)+len(f.LinkLines))
	for name, lines := range zones {
		raw, err := b.Build(name, lines)
		if err != nil {
			return nil, fmt.Errorf("compiling zone %s: %w", name, err)
		}
		result[name] = tzindex.New(name, shrinker.Shrink(raw))
	}

	if err := resolveLinks(result, f.LinkLines); err != nil {
		return nil, err
	}
	return result, nil
}

// groupZoneLines splits a flat, file-order list of zone lines (a Zone line
// followed by zero or more continuation lines) back into one slice per
// zone name.
func groupZoneLines(lines []tzdata.ZoneLine) map[string][]tzdata.ZoneLine {
	zones := make(map[string][]tzdata.ZoneLine)
	var lastName string
	for _, l := range lines {
		if !l.Continuation {
			lastName = l.Name
		}
		zones[lastName] = append(zones[lastName], l)
	}
	return zones
}

// resolveLinks adds a map entry for every link name, pointing at its
// target's Index. Links may chain (a link's target may itself be another
// link), and may appear in the file before the line defining their target,
// so this resolves in two passes: first record every from->to edge, then
// follow chains to their Zone-defined root.
func resolveLinks(zones map[string]*tzindex.Index, links []tzdata.LinkLine) error {
	edges := make(map[string]string, len(links))
	for _, l := range links {
		edges[l.To] = l.From
	}
	for linkName := range edges {
		target := linkName
		seen := map[string]bool{}
		for {
			if zones[target] != nil {
				break
			}
			next, ok := edges[target]
			if !ok || seen[target] {
				return fmt.Errorf("tzc: link %q does not resolve to a known zone", linkName)
			}
			seen[target] = true
			target = next
		}
		zones[linkName] = zones[target]
	}
	return nil
}
