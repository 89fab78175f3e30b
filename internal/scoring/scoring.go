// Package scoring derives per-unit correctness rollups from the durable
// response log. It is a pure read-only view: nothing here writes back into
// the data model.
package scoring

import "github.com/clearbrook/screend/internal/model"

// UnitRollup is the derived summary for one assessment unit.
type UnitRollup struct {
	UnitID         string  `json:"unit_id"`
	Total          int     `json:"total"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
	PercentCorrect float64 `json:"percent_correct"`
	Flagged        bool    `json:"flagged"`
	Skipped        bool    `json:"skipped"`
}

// Rollup computes the rollup for a single unit from its ordered responses.
// A unit with no recorded responses is skipped and never flagged.
func Rollup(unitID string, responses []model.ResponseRecord) UnitRollup {
	r := UnitRollup{UnitID: unitID, Total: len(responses)}
	if r.Total == 0 {
		r.Skipped = true
		return r
	}

	for _, resp := range responses {
		if resp.Score.Counted() {
			r.Correct++
		} else {
			r.Incorrect++
		}
	}
	r.PercentCorrect = 100 * float64(r.Correct) / float64(r.Total)
	r.Flagged = needsInstruction(r.Total, r.Incorrect)
	return r
}

// RollupAll groups a session's response log by unit and returns one rollup
// per unit that has at least one response, keyed by unit id.
func RollupAll(responses []model.ResponseRecord) map[string]UnitRollup {
	byUnit := make(map[string][]model.ResponseRecord)
	for _, resp := range responses {
		byUnit[resp.UnitID] = append(byUnit[resp.UnitID], resp)
	}

	rollups := make(map[string]UnitRollup, len(byUnit))
	for unitID, rs := range byUnit {
		rollups[unitID] = Rollup(unitID, rs)
	}
	return rollups
}

// needsInstruction applies the size-dependent instructional-need rule.
// Integer arithmetic keeps the 30% boundary exact for large units.
func needsInstruction(total, incorrect int) bool {
	switch {
	case total <= 5:
		return incorrect >= 2
	case total <= 10:
		return incorrect >= 3
	default:
		return incorrect*10 >= total*3
	}
}
