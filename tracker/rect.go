package tracker

import (
	"math"
)

// Xyah (center x, center y, aspect ratio, height) is the bounding box
// parameterisation used by the Kalman filter state
type Xyah []float64

// Rect represents an axis aligned bounding box in top-left, width,
// height form
type Rect struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float32) Rect {
	return Rect{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// TLX returns the top-left x coordinate of the rectangle
func (r *Rect) TLX() float32 {
	return r.X
}

// TLY returns the top-left y coordinate of the rectangle
func (r *Rect) TLY() float32 {
	return r.Y
}

// BRX returns the bottom-right x coordinate of the rectangle
func (r *Rect) BRX() float32 {
	return r.X + r.Width
}

// BRY returns the bottom-right y coordinate of the rectangle
func (r *Rect) BRY() float32 {
	return r.Y + r.Height
}

// GetXyah converts the rectangle to Xyah (center x, center y, aspect
// ratio, height) format
func (r *Rect) GetXyah() Xyah {
	return Xyah{
		float64(r.X + r.Width/2),
		float64(r.Y + r.Height/2),
		float64(r.Width / r.Height),
		float64(r.Height),
	}
}

// GenerateRectByXyah creates a Rect from Xyah (center x, center y,
// aspect ratio, height) format
func GenerateRectByXyah(xyah Xyah) Rect {
	width := xyah[2] * xyah[3]
	return NewRect(float32(xyah[0]-width/2), float32(xyah[1]-xyah[3]/2),
		float32(width), float32(xyah[3]))
}

// CalcIoU calculates the Intersection over Union (IoU) with another
// rectangle
func (r *Rect) CalcIoU(other Rect) float32 {

	iw := float32(math.Min(float64(r.BRX()), float64(other.BRX())) -
		math.Max(float64(r.TLX()), float64(other.TLX())))

	if iw <= 0 {
		return 0
	}

	ih := float32(math.Min(float64(r.BRY()), float64(other.BRY())) -
		math.Max(float64(r.TLY()), float64(other.TLY())))

	if ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := r.Width*r.Height + other.Width*other.Height - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}
