package vision

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/disintegration/imaging"

	"plate-service/internal/plate"
)

// Labels Rekognition reports for the vehicle classes plates are read from.
var vehicleLabels = map[string]bool{
	"car":        true,
	"bus":        true,
	"truck":      true,
	"motorcycle": true,
	"van":        true,
}

type rekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
	DetectCustomLabels(ctx context.Context, params *rekognition.DetectCustomLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectCustomLabelsOutput, error)
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// Rekognition implements all three collaborators on Amazon Rekognition:
// DetectLabels for vehicles, a Custom Labels model for plates and
// DetectText for OCR.
type Rekognition struct {
	client               rekognitionAPI
	vehicleMinConfidence float32
	plateModelARN        string
	plateMinConfidence   float32
}

type RekognitionOptions struct {
	VehicleMinConfidence float64
	PlateModelARN        string
	PlateMinConfidence   float64
}

func NewRekognition(client *rekognition.Client, opts RekognitionOptions) *Rekognition {
	return newRekognition(client, opts)
}

func newRekognition(client rekognitionAPI, opts RekognitionOptions) *Rekognition {
	return &Rekognition{
		client:               client,
		vehicleMinConfidence: float32(opts.VehicleMinConfidence),
		plateModelARN:        opts.PlateModelARN,
		plateMinConfidence:   float32(opts.PlateMinConfidence),
	}
}

func (r *Rekognition) DetectVehicles(ctx context.Context, img image.Image) ([]Box, error) {
	data, err := encode(img, imaging.JPEG)
	if err != nil {
		return nil, err
	}

	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: data},
		MinConfidence: aws.Float32(r.vehicleMinConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect labels: %w", err)
	}

	w, h := size(img)
	var boxes []Box
	for _, label := range out.Labels {
		if !vehicleLabels[strings.ToLower(aws.ToString(label.Name))] {
			continue
		}
		for _, inst := range label.Instances {
			if aws.ToFloat32(inst.Confidence) < r.vehicleMinConfidence {
				continue
			}
			if box, ok := fromBoundingBox(inst.BoundingBox, w, h); ok {
				boxes = append(boxes, box)
			}
		}
	}
	return boxes, nil
}

// DetectPlates returns plate boxes ordered by confidence, best first.
func (r *Rekognition) DetectPlates(ctx context.Context, img image.Image) ([]Box, error) {
	data, err := encode(img, imaging.JPEG)
	if err != nil {
		return nil, err
	}

	out, err := r.client.DetectCustomLabels(ctx, &rekognition.DetectCustomLabelsInput{
		Image:             &types.Image{Bytes: data},
		ProjectVersionArn: aws.String(r.plateModelARN),
		MinConfidence:     aws.Float32(r.plateMinConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect custom labels: %w", err)
	}

	labels := make([]types.CustomLabel, 0, len(out.CustomLabels))
	for _, label := range out.CustomLabels {
		if label.Geometry != nil && label.Geometry.BoundingBox != nil {
			labels = append(labels, label)
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return aws.ToFloat32(labels[i].Confidence) > aws.ToFloat32(labels[j].Confidence)
	})

	w, h := size(img)
	boxes := make([]Box, 0, len(labels))
	for _, label := range labels {
		if box, ok := fromBoundingBox(label.Geometry.BoundingBox, w, h); ok {
			boxes = append(boxes, box)
		}
	}
	return boxes, nil
}

// ReadText returns LINE detections in reading order with 0-1 confidences.
func (r *Rekognition) ReadText(ctx context.Context, img image.Image) ([]plate.Fragment, error) {
	data, err := encode(img, imaging.JPEG)
	if err != nil {
		return nil, err
	}

	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: data},
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect text: %w", err)
	}

	var fragments []plate.Fragment
	for _, det := range out.TextDetections {
		if det.Type != types.TextTypesLine {
			continue
		}
		text := strings.TrimSpace(aws.ToString(det.DetectedText))
		if text == "" {
			continue
		}
		fragments = append(fragments, plate.Fragment{
			Text:       text,
			Confidence: float64(aws.ToFloat32(det.Confidence)) / 100,
		})
	}
	return fragments, nil
}

func fromBoundingBox(bb *types.BoundingBox, w, h int) (Box, bool) {
	if bb == nil {
		return Box{}, false
	}
	box := BoxFromRelative(
		float64(aws.ToFloat32(bb.Left)),
		float64(aws.ToFloat32(bb.Top)),
		float64(aws.ToFloat32(bb.Width)),
		float64(aws.ToFloat32(bb.Height)),
		w, h,
	)
	return box, !box.Empty()
}
