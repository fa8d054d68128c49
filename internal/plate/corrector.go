package plate

import "plate-service/internal/regions"

// AcceptanceThreshold is the score a region code must strictly exceed
// before it may replace the recognized prefix.
const AcceptanceThreshold = 40

// Correction is the result of matching a plate prefix against the table.
type Correction struct {
	Plate   string
	Code    string
	Regions []string
	Score   int
	// Corrected reports whether a table record was adopted.
	Corrected bool
}

// Corrector fixes OCR typos in the region prefix using a reference table.
type Corrector struct {
	table *regions.Table
}

func NewCorrector(table *regions.Table) *Corrector {
	return &Corrector{table: table}
}

// Best returns the first record whose score is strictly above both the
// running maximum and AcceptanceThreshold.
func (c *Corrector) Best(code string) (regions.Record, int, bool) {
	var (
		best    regions.Record
		maximum int
		found   bool
	)
	c.table.Each(func(_ int, rec regions.Record) bool {
		score := Ratio(code, rec.Code)
		if score > maximum && score > AcceptanceThreshold {
			maximum = score
			best = rec
			found = true
		}
		return true
	})
	return best, maximum, found
}

// Correct replaces the leading code of m with the best table match, if any.
func (c *Corrector) Correct(m Match) Correction {
	rec, score, ok := c.Best(m.Left)
	if !ok {
		return Correction{Plate: m.String(), Code: m.Left}
	}

	corrected := m
	corrected.Left = rec.Code
	return Correction{
		Plate:     corrected.String(),
		Code:      rec.Code,
		Regions:   rec.Regions,
		Score:     score,
		Corrected: true,
	}
}
