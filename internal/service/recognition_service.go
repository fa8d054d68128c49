package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"plate-service/internal/plate"
	"plate-service/internal/regions"
	"plate-service/internal/utils"
	"plate-service/internal/vision"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrDetectionUnavailable = errors.New("detection is not configured")
)

type ReadStatus string

const (
	StatusRead             ReadStatus = "read"
	StatusNoPlate          ReadStatus = "no_plate"
	StatusPlateTooSmall    ReadStatus = "plate_too_small"
	StatusPlateDetectError ReadStatus = "plate_detection_failed"
	StatusOCRError         ReadStatus = "ocr_failed"
)

// Detectors are the external models a photo passes through. Any of them may be
// nil when detection is disabled; only text parsing is available then.
type Detectors struct {
	Vehicles vision.VehicleDetector
	Plates   vision.PlateDetector
	Text     vision.TextReader
}

func (d Detectors) complete() bool {
	return d.Vehicles != nil && d.Plates != nil && d.Text != nil
}

type RecognitionService struct {
	reader        *plate.Reader
	table         *regions.Table
	detectors     Detectors
	minPlateWidth int
	log           zerolog.Logger
}

func NewRecognitionService(table *regions.Table, detectors Detectors, minPlateWidth int, log zerolog.Logger) *RecognitionService {
	return &RecognitionService{
		reader:        plate.NewReader(table),
		table:         table,
		detectors:     detectors,
		minPlateWidth: minPlateWidth,
		log:           log,
	}
}

func (s *RecognitionService) DetectionEnabled() bool {
	return s.detectors.complete()
}

// Recognize runs vehicle detection, plate detection and OCR on one photo,
// one vehicle at a time, and reads the first plate of each vehicle.
func (s *RecognitionService) Recognize(ctx context.Context, photo []byte) (*RecognitionResult, error) {
	if !s.detectors.complete() {
		return nil, ErrDetectionUnavailable
	}
	if len(photo) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}

	img, err := vision.Decode(photo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	started := time.Now()
	bounds := img.Bounds()
	result := &RecognitionResult{
		ID:     uuid.New(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Reads:  []VehicleRead{},
	}

	vehicles, err := s.detectors.Vehicles.DetectVehicles(ctx, img)
	if err != nil {
		s.log.Error().Err(err).Str("recognition_id", result.ID.String()).Msg("vehicle detection failed")
		return nil, fmt.Errorf("detect vehicles: %w", err)
	}

	for _, vehicleBox := range vehicles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		read := s.readVehicle(ctx, img, vehicleBox, result.ID)
		result.Reads = append(result.Reads, read)
	}

	s.log.Info().
		Str("recognition_id", result.ID.String()).
		Int("vehicles", len(vehicles)).
		Int("plates_read", result.PlatesRead()).
		Dur("took", time.Since(started)).
		Msg("photo processed")

	return result, nil
}

func (s *RecognitionService) readVehicle(ctx context.Context, img image.Image, vehicleBox vision.Box, id uuid.UUID) VehicleRead {
	read := VehicleRead{VehicleBox: vehicleBox}
	vehicleImg := vision.Crop(img, vehicleBox)

	plates, err := s.detectors.Plates.DetectPlates(ctx, vehicleImg)
	if err != nil {
		s.log.Warn().Err(err).Str("recognition_id", id.String()).Msg("plate detection failed, skipping vehicle")
		read.Status = StatusPlateDetectError
		return read
	}
	if len(plates) == 0 {
		read.Status = StatusNoPlate
		return read
	}

	plateBox := plates[0]
	absolute := plateBox.Offset(vehicleBox)
	read.PlateBox = &absolute

	if plateBox.Width() < s.minPlateWidth {
		s.log.Debug().
			Str("recognition_id", id.String()).
			Int("plate_width", plateBox.Width()).
			Int("min_plate_width", s.minPlateWidth).
			Msg("plate too small for OCR")
		read.Status = StatusPlateTooSmall
		return read
	}

	fragments, err := s.detectors.Text.ReadText(ctx, vision.Crop(vehicleImg, plateBox))
	read.Status = StatusRead
	if err != nil {
		s.log.Warn().Err(err).Str("recognition_id", id.String()).Msg("ocr failed, reading empty text")
		read.Status = StatusOCRError
		fragments = nil
	}

	res := s.reader.ReadFragments(fragments)
	read.setResult(res)

	s.log.Debug().
		Str("recognition_id", id.String()).
		Str("raw_text", res.RawText).
		Str("plate", read.NormalizedPlate).
		Str("region", read.RegionLabel).
		Str("outcome", string(res.Outcome)).
		Msg("plate read")
	return read
}

// ParseText runs the text pipeline on already recognized text.
func (s *RecognitionService) ParseText(raw string) PlateText {
	return newPlateText(s.reader.Read(raw))
}

func (s *RecognitionService) ParseFragments(fragments []plate.Fragment) PlateText {
	return newPlateText(s.reader.ReadFragments(fragments))
}

func (s *RecognitionService) Regions() []regions.Record {
	return s.table.Records()
}

// LookupRegion resolves a code exactly, or else to the record the corrector
// would adopt for it.
func (s *RecognitionService) LookupRegion(code string) (*RegionLookup, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	if rec, ok := s.table.Lookup(code); ok {
		return &RegionLookup{Query: code, Record: rec, Score: 100, Exact: true}, nil
	}

	rec, score, ok := s.reader.Corrector().Best(code)
	if !ok {
		return nil, fmt.Errorf("%w: no region code similar to %q", ErrNotFound, code)
	}
	return &RegionLookup{Query: code, Record: rec, Score: score}, nil
}

type RecognitionResult struct {
	ID     uuid.UUID     `json:"id"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Reads  []VehicleRead `json:"reads"`
}

func (r *RecognitionResult) PlatesRead() int {
	n := 0
	for _, read := range r.Reads {
		if read.Outcome != "" && read.Outcome != plate.OutcomeNoMatch {
			n++
		}
	}
	return n
}

type VehicleRead struct {
	VehicleBox      vision.Box    `json:"vehicle_box"`
	PlateBox        *vision.Box   `json:"plate_box,omitempty"`
	Status          ReadStatus    `json:"status"`
	RawText         string        `json:"raw_text,omitempty"`
	NormalizedPlate string        `json:"normalized_plate,omitempty"`
	CompactPlate    string        `json:"compact_plate,omitempty"`
	RegionLabel     string        `json:"region_label,omitempty"`
	Outcome         plate.Outcome `json:"outcome,omitempty"`
}

func (v *VehicleRead) setResult(res plate.Result) {
	v.RawText = res.RawText
	v.NormalizedPlate = res.NormalizedPlate()
	v.RegionLabel = res.RegionLabel()
	v.Outcome = res.Outcome
	if res.Outcome != plate.OutcomeNoMatch {
		v.CompactPlate = utils.CompactPlate(res.Plate)
	}
}

type PlateText struct {
	plate.Result
	NormalizedPlate string `json:"normalized_plate"`
	CompactPlate    string `json:"compact_plate,omitempty"`
	RegionLabel     string `json:"region_label"`
}

func newPlateText(res plate.Result) PlateText {
	out := PlateText{
		Result:          res,
		NormalizedPlate: res.NormalizedPlate(),
		RegionLabel:     res.RegionLabel(),
	}
	if res.Outcome != plate.OutcomeNoMatch {
		out.CompactPlate = utils.CompactPlate(res.Plate)
	}
	return out
}

type RegionLookup struct {
	Query  string         `json:"query"`
	Record regions.Record `json:"record"`
	Score  int            `json:"score"`
	Exact  bool           `json:"exact"`
}
