package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"plate-service/internal/plate"
	"plate-service/internal/regions"
	"plate-service/internal/vision"
)

type fakeVehicles struct {
	boxes []vision.Box
	err   error
}

func (f fakeVehicles) DetectVehicles(context.Context, image.Image) ([]vision.Box, error) {
	return f.boxes, f.err
}

// fakePlates answers by the width of the vehicle crop it receives.
type fakePlates struct {
	byWidth map[int][]vision.Box
	failOn  int
}

func (f fakePlates) DetectPlates(_ context.Context, img image.Image) ([]vision.Box, error) {
	w := img.Bounds().Dx()
	if w == f.failOn {
		return nil, errors.New("model unavailable")
	}
	return f.byWidth[w], nil
}

// fakeText answers by the width of the plate crop it receives.
type fakeText struct {
	byWidth map[int][]plate.Fragment
	failOn  int
	calls   *int
}

func (f fakeText) ReadText(_ context.Context, img image.Image) ([]plate.Fragment, error) {
	if f.calls != nil {
		*f.calls++
	}
	w := img.Bounds().Dx()
	if w == f.failOn {
		return nil, errors.New("ocr crashed")
	}
	return f.byWidth[w], nil
}

func testTable() *regions.Table {
	return regions.MustNewTable([]regions.Record{
		{Code: "AB", Regions: []string{"Region1"}},
		{Code: "H", Regions: []string{"Semarang", "Salatiga"}},
	})
}

func photo(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(w, h, color.Gray{Y: 128}), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRecognize(t *testing.T) {
	ocrCalls := 0
	detectors := Detectors{
		Vehicles: fakeVehicles{boxes: []vision.Box{
			{X1: 0, Y1: 0, X2: 400, Y2: 300},     // reads AB plate
			{X1: 400, Y1: 0, X2: 700, Y2: 300},   // no plate
			{X1: 0, Y1: 300, X2: 350, Y2: 600},   // plate too small
			{X1: 350, Y1: 300, X2: 800, Y2: 600}, // plate detector fails
			{X1: 0, Y1: 600, X2: 500, Y2: 800},   // ocr fails
		}},
		Plates: fakePlates{
			failOn: 450,
			byWidth: map[int][]vision.Box{
				400: {{X1: 100, Y1: 200, X2: 250, Y2: 240}, {X1: 0, Y1: 0, X2: 10, Y2: 10}},
				350: {{X1: 10, Y1: 10, X2: 60, Y2: 30}},
				500: {{X1: 0, Y1: 0, X2: 120, Y2: 40}},
			},
		},
		Text: fakeText{
			calls:  &ocrCalls,
			failOn: 120,
			byWidth: map[int][]plate.Fragment{
				150: {{Text: "ad", Confidence: 0.8}, {Text: "1234", Confidence: 0.9}, {Text: "cdx 12:30", Confidence: 0.5}},
			},
		},
	}
	svc := NewRecognitionService(testTable(), detectors, 90, zerolog.Nop())

	result, err := svc.Recognize(context.Background(), photo(t, 800, 800))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if result.Width != 800 || result.Height != 800 {
		t.Errorf("size = %dx%d", result.Width, result.Height)
	}
	if len(result.Reads) != 5 {
		t.Fatalf("len(Reads) = %d, want 5", len(result.Reads))
	}

	first := result.Reads[0]
	if first.Status != StatusRead || first.NormalizedPlate != "AB 1234 CDX" || first.RegionLabel != "Region1" {
		t.Errorf("Reads[0] = %+v", first)
	}
	if first.CompactPlate != "AB1234CDX" || first.Outcome != plate.OutcomeCorrected {
		t.Errorf("Reads[0] = %+v", first)
	}
	if first.PlateBox == nil || *first.PlateBox != (vision.Box{X1: 100, Y1: 200, X2: 250, Y2: 240}) {
		t.Errorf("Reads[0].PlateBox = %+v", first.PlateBox)
	}

	wantStatus := []ReadStatus{StatusRead, StatusNoPlate, StatusPlateTooSmall, StatusPlateDetectError, StatusOCRError}
	for i, want := range wantStatus {
		if result.Reads[i].Status != want {
			t.Errorf("Reads[%d].Status = %q, want %q", i, result.Reads[i].Status, want)
		}
	}

	small := result.Reads[2]
	if small.PlateBox == nil || *small.PlateBox != (vision.Box{X1: 10, Y1: 310, X2: 60, Y2: 330}) {
		t.Errorf("Reads[2].PlateBox = %+v", small.PlateBox)
	}
	if small.NormalizedPlate != "" {
		t.Errorf("too small plate should not be read: %+v", small)
	}

	failed := result.Reads[4]
	if failed.NormalizedPlate != plate.NotAvailable || failed.RegionLabel != plate.NotAvailable {
		t.Errorf("ocr failure should read as N/A: %+v", failed)
	}

	if ocrCalls != 2 {
		t.Errorf("ocr calls = %d, want 2", ocrCalls)
	}
	if result.PlatesRead() != 1 {
		t.Errorf("PlatesRead() = %d, want 1", result.PlatesRead())
	}
}

func TestRecognizeErrors(t *testing.T) {
	complete := Detectors{Vehicles: fakeVehicles{}, Plates: fakePlates{}, Text: fakeText{}}

	tests := []struct {
		name      string
		detectors Detectors
		photo     []byte
		want      error
	}{
		{name: "detection disabled", detectors: Detectors{}, photo: photo(t, 10, 10), want: ErrDetectionUnavailable},
		{name: "empty photo", detectors: complete, photo: nil, want: ErrInvalidInput},
		{name: "not an image", detectors: complete, photo: []byte("GIF89a?"), want: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRecognitionService(testTable(), tt.detectors, 90, zerolog.Nop())
			_, err := svc.Recognize(context.Background(), tt.photo)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("vehicle detector fails", func(t *testing.T) {
		detectors := complete
		detectors.Vehicles = fakeVehicles{err: errors.New("throttled")}
		svc := NewRecognitionService(testTable(), detectors, 90, zerolog.Nop())
		if _, err := svc.Recognize(context.Background(), photo(t, 10, 10)); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRecognizeNoVehicles(t *testing.T) {
	svc := NewRecognitionService(testTable(), Detectors{Vehicles: fakeVehicles{}, Plates: fakePlates{}, Text: fakeText{}}, 90, zerolog.Nop())

	result, err := svc.Recognize(context.Background(), photo(t, 20, 20))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if result.Reads == nil || len(result.Reads) != 0 {
		t.Errorf("Reads = %#v, want empty slice", result.Reads)
	}
}

func TestParseText(t *testing.T) {
	svc := NewRecognitionService(testTable(), Detectors{}, 90, zerolog.Nop())

	tests := []struct {
		raw     string
		plate   string
		region  string
		compact string
	}{
		{raw: "AB 1234 CDX 50", plate: "AB 1234 CDX", region: "Region1", compact: "AB1234CDX"},
		{raw: "12.34 XY 99 ZZ", plate: "XY 99 ZZ", region: plate.NotAvailable, compact: "XY99ZZ"},
		{raw: "", plate: plate.NotAvailable, region: plate.NotAvailable},
		{raw: "h 1 xy", plate: plate.NotAvailable, region: plate.NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := svc.ParseText(tt.raw)
			if got.NormalizedPlate != tt.plate || got.RegionLabel != tt.region || got.CompactPlate != tt.compact {
				t.Errorf("ParseText(%q) = %+v", tt.raw, got)
			}
		})
	}

	frag := svc.ParseFragments([]plate.Fragment{{Text: "H"}, {Text: "8821"}, {Text: "XY"}})
	if frag.RegionLabel != "Semarang, Salatiga" {
		t.Errorf("ParseFragments region = %q", frag.RegionLabel)
	}
}

func TestLookupRegion(t *testing.T) {
	svc := NewRecognitionService(testTable(), Detectors{}, 90, zerolog.Nop())

	exact, err := svc.LookupRegion(" ab ")
	if err != nil || !exact.Exact || exact.Record.Code != "AB" || exact.Score != 100 {
		t.Errorf("LookupRegion(ab) = %+v, %v", exact, err)
	}

	fuzzy, err := svc.LookupRegion("AD")
	if err != nil || fuzzy.Exact || fuzzy.Record.Code != "AB" || fuzzy.Score != 50 {
		t.Errorf("LookupRegion(AD) = %+v, %v", fuzzy, err)
	}

	if _, err := svc.LookupRegion("XY"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LookupRegion(XY) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.LookupRegion(" "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("LookupRegion(blank) error = %v, want ErrInvalidInput", err)
	}

	if got := svc.Regions(); len(got) != 2 || got[1].Code != "H" {
		t.Errorf("Regions() = %+v", got)
	}
}
