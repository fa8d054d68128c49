package plate

import (
	"strings"

	"plate-service/internal/regions"
)

// NotAvailable is rendered for a missing plate or region.
const NotAvailable = "N/A"

type Outcome string

const (
	OutcomeNoMatch     Outcome = "no_match"
	OutcomeUncorrected Outcome = "uncorrected"
	OutcomeCorrected   Outcome = "corrected"
)

// Fragment is one piece of recognized text as returned by an OCR engine.
type Fragment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Result carries a plate read through every stage of the pipeline.
type Result struct {
	RawText     string   `json:"raw_text"`
	CleanedText string   `json:"cleaned_text"`
	Match       *Match   `json:"match,omitempty"`
	Plate       string   `json:"plate,omitempty"`
	Regions     []string `json:"regions,omitempty"`
	Score       int      `json:"score,omitempty"`
	Outcome     Outcome  `json:"outcome"`
}

func (r Result) NormalizedPlate() string {
	if r.Outcome == OutcomeNoMatch || r.Plate == "" {
		return NotAvailable
	}
	return r.Plate
}

func (r Result) RegionLabel() string {
	if r.Outcome != OutcomeCorrected || len(r.Regions) == 0 {
		return NotAvailable
	}
	return strings.Join(r.Regions, ", ")
}

// Reader runs cleaning, extraction and region correction.
// It holds no mutable state and is safe for concurrent use.
type Reader struct {
	corrector *Corrector
}

func NewReader(table *regions.Table) *Reader {
	return &Reader{corrector: NewCorrector(table)}
}

func (r *Reader) Corrector() *Corrector {
	return r.corrector
}

func (r *Reader) Read(raw string) Result {
	res := Result{RawText: raw, CleanedText: Clean(raw), Outcome: OutcomeNoMatch}

	m, ok := Extract(res.CleanedText)
	if !ok {
		return res
	}
	res.Match = &m

	c := r.corrector.Correct(m)
	res.Plate = c.Plate
	if !c.Corrected {
		res.Outcome = OutcomeUncorrected
		return res
	}
	res.Regions = c.Regions
	res.Score = c.Score
	res.Outcome = OutcomeCorrected
	return res
}

// ReadFragments space-joins fragments in the order given and reads them.
func (r *Reader) ReadFragments(fragments []Fragment) Result {
	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		texts = append(texts, f.Text)
	}
	return r.Read(strings.Join(texts, " "))
}
