package main

import (
	"fmt"
	"image"

	"github.com/swdee/go-zonetrack/tracker"
	"gocv.io/x/gocv"
)

// Detector runs YOLOv5 ONNX object detection on video frames using the
// OpenCV DNN module
type Detector struct {
	net gocv.Net
	// inputSize is the model tensor input size
	inputSize image.Point
	// confThresh filters detections below this confidence
	confThresh float32
	// nmsThresh is the IoU threshold used for non maximum suppression
	nmsThresh float32
}

// NewDetector loads the YOLOv5 ONNX model file and returns a Detector
func NewDetector(modelFile string, confThresh,
	nmsThresh float32) (*Detector, error) {

	net := gocv.ReadNet(modelFile, "")

	if net.Empty() {
		return nil, fmt.Errorf("error reading model file %s", modelFile)
	}

	return &Detector{
		net:        net,
		inputSize:  image.Pt(640, 640),
		confThresh: confThresh,
		nmsThresh:  nmsThresh,
	}, nil
}

// Close releases the DNN resources
func (d *Detector) Close() error {
	return d.net.Close()
}

// Detect runs inference on the given frame and returns the detected
// objects with bounding boxes in frame coordinates
func (d *Detector) Detect(img gocv.Mat) ([]tracker.Object, error) {

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize,
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	// output tensor is 1 x N x (5 + classes), one detection per row
	sizes := output.Size()

	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected model output shape %v", sizes)
	}

	rows := sizes[1]
	dims := sizes[2]

	res := output.Reshape(1, rows)
	defer res.Close()

	// scale factors between tensor input size and frame size
	scaleX := float32(img.Cols()) / float32(d.inputSize.X)
	scaleY := float32(img.Rows()) / float32(d.inputSize.Y)

	var boxes []image.Rectangle
	var scores []float32
	var classes []int

	for r := 0; r < rows; r++ {

		objScore := res.GetFloatAt(r, 4)

		if objScore < d.confThresh {
			continue
		}

		// find best scoring class
		bestClass := 0
		bestScore := float32(0)

		for c := 5; c < dims; c++ {
			if s := res.GetFloatAt(r, c); s > bestScore {
				bestScore = s
				bestClass = c - 5
			}
		}

		score := objScore * bestScore

		if score < d.confThresh {
			continue
		}

		// decode center box to frame coordinates
		cx := res.GetFloatAt(r, 0) * scaleX
		cy := res.GetFloatAt(r, 1) * scaleY
		w := res.GetFloatAt(r, 2) * scaleX
		h := res.GetFloatAt(r, 3) * scaleY

		boxes = append(boxes, image.Rect(int(cx-w/2), int(cy-h/2),
			int(cx+w/2), int(cy+h/2)))
		scores = append(scores, score)
		classes = append(classes, bestClass)
	}

	// suppress overlapping detections
	indices := gocv.NMSBoxes(boxes, scores, d.confThresh, d.nmsThresh)

	var objects []tracker.Object

	for _, idx := range indices {

		box := boxes[idx]

		objects = append(objects, tracker.NewObject(
			tracker.NewRect(float32(box.Min.X), float32(box.Min.Y),
				float32(box.Dx()), float32(box.Dy())),
			classes[idx], scores[idx]))
	}

	return objects, nil
}
