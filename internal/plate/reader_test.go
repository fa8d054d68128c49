package plate

import (
	"testing"

	"plate-service/internal/regions"
)

func testTable() *regions.Table {
	return regions.MustNewTable([]regions.Record{
		{Code: "AB", Regions: []string{"Region1"}},
		{Code: "H", Regions: []string{"Semarang", "Salatiga"}},
		{Code: "KT", Regions: nil},
	})
}

func TestReaderRead(t *testing.T) {
	reader := NewReader(testTable())

	tests := []struct {
		name    string
		raw     string
		cleaned string
		plate   string
		region  string
		outcome Outcome
	}{
		{
			name:    "trailing digits ignored",
			raw:     "AB 1234 CDX 50",
			cleaned: "AB 1234 CDX 50",
			plate:   "AB 1234 CDX",
			region:  "Region1",
			outcome: OutcomeCorrected,
		},
		{
			name:    "no separators",
			raw:     "AB1234CDX50",
			cleaned: "AB1234CDX50",
			plate:   "AB 1234 CDX",
			region:  "Region1",
			outcome: OutcomeCorrected,
		},
		{
			name:    "empty",
			raw:     "",
			cleaned: "",
			plate:   NotAvailable,
			region:  NotAvailable,
			outcome: OutcomeNoMatch,
		},
		{
			name:    "artifact removed and no region",
			raw:     "12.34 XY 99 ZZ",
			cleaned: "XY 99 ZZ",
			plate:   "XY 99 ZZ",
			region:  NotAvailable,
			outcome: OutcomeUncorrected,
		},
		{
			name:    "typo in region code",
			raw:     "ad 1234 cd",
			cleaned: "AD 1234 CD",
			plate:   "AB 1234 CD",
			region:  "Region1",
			outcome: OutcomeCorrected,
		},
		{
			name:    "several regions joined",
			raw:     "H-8821-XY 09:27",
			cleaned: "H8821XY",
			plate:   "H 8821 XY",
			region:  "Semarang, Salatiga",
			outcome: OutcomeCorrected,
		},
		{
			name:    "corrected code without regions",
			raw:     "KT 4410 AB",
			cleaned: "KT 4410 AB",
			plate:   "KT 4410 AB",
			region:  NotAvailable,
			outcome: OutcomeCorrected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reader.Read(tt.raw)
			if res.CleanedText != tt.cleaned {
				t.Errorf("CleanedText = %q, want %q", res.CleanedText, tt.cleaned)
			}
			if got := res.NormalizedPlate(); got != tt.plate {
				t.Errorf("NormalizedPlate() = %q, want %q", got, tt.plate)
			}
			if got := res.RegionLabel(); got != tt.region {
				t.Errorf("RegionLabel() = %q, want %q", got, tt.region)
			}
			if res.Outcome != tt.outcome {
				t.Errorf("Outcome = %q, want %q", res.Outcome, tt.outcome)
			}
		})
	}
}

func TestReaderReadFragments(t *testing.T) {
	reader := NewReader(testTable())

	res := reader.ReadFragments([]Fragment{
		{Text: "AB", Confidence: 0.91},
		{Text: "1234", Confidence: 0.88},
		{Text: "cdx", Confidence: 0.42},
		{Text: "06.25", Confidence: 0.30},
	})

	if res.RawText != "AB 1234 cdx 06.25" {
		t.Errorf("RawText = %q", res.RawText)
	}
	if res.NormalizedPlate() != "AB 1234 CDX" {
		t.Errorf("NormalizedPlate() = %q", res.NormalizedPlate())
	}
	if res.Match == nil || res.Match.Suffix != "CDX" {
		t.Errorf("Match = %+v", res.Match)
	}
}

func TestReaderNoFragments(t *testing.T) {
	res := NewReader(testTable()).ReadFragments(nil)
	if res.Outcome != OutcomeNoMatch || res.NormalizedPlate() != NotAvailable || res.RegionLabel() != NotAvailable {
		t.Fatalf("unexpected result %+v", res)
	}
}
