package graph

import (
	"github.com/doctrace/citegraph/pkg/common"
)

// ValidateInventory cross-checks the cited entities of a finished graph
// against the known inventory. Pure function: neither input is mutated.
//
// For each entity type, matched ids exist in both graph and inventory,
// orphaned ids were cited but are unknown to the inventory, and unused ids
// are inventoried but never cited. A missing or empty inventory for a type
// makes every citation of that type orphaned; that is reported, not an
// error. Orphans are the strongest signal of an upstream extraction defect
// or a pattern false positive.
func ValidateInventory(g *common.CitationGraph, inventory common.EntityInventory) common.ValidationReport {
	report := make(common.ValidationReport, len(common.EntityTypes()))

	for _, t := range common.EntityTypes() {
		known := inventory[t]
		knownSet := make(map[string]struct{}, len(known))
		for _, id := range known {
			knownSet[id] = struct{}{}
		}

		citedSet := make(map[string]struct{}, len(g.Entities[t]))
		matched := make([]string, 0)
		orphaned := make([]string, 0)
		for _, id := range g.Entities[t] {
			citedSet[id] = struct{}{}
			if _, ok := knownSet[id]; ok {
				matched = append(matched, id)
			} else {
				orphaned = append(orphaned, id)
			}
		}

		unused := make([]string, 0)
		for _, id := range known {
			if _, ok := citedSet[id]; !ok {
				unused = append(unused, id)
			}
		}

		rate := 0.0
		if len(known) > 0 {
			rate = float64(len(matched)) / float64(len(known))
		}

		report[t] = common.TypeValidation{
			Matched:   matched,
			Orphaned:  orphaned,
			Unused:    unused,
			MatchRate: rate,
		}
	}

	return report
}
