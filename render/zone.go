package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-zonetrack"
	"gocv.io/x/gocv"
)

// boxLabel holds the label rendering details of a bounding box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// Zones draws each zones polygon outline and name on the source image.
// Zones are drawn in engine order so later zones overlay earlier ones,
// matching the z-order of the dwell results.
func Zones(img *gocv.Mat, zones []*zonetrack.Zone, font Font,
	lineThickness int) {

	for i, zone := range zones {

		useClr := ZoneColor(i)
		polygon := zone.Polygon()

		pts := gocv.NewPointsVectorFromPoints([][]image.Point{polygon})
		gocv.Polylines(img, pts, true, useClr, lineThickness)
		pts.Close()

		// name the zone at its first vertex
		text := fmt.Sprintf("zone %d", i)
		gocv.PutTextWithParams(img, text,
			image.Pt(polygon[0].X+font.LeftPad, polygon[0].Y-font.BottomPad),
			font.Face, font.Scale, useClr, font.Thickness,
			font.LineType, false)
	}
}

// DwellBoxes renders the bounding boxes of objects dwelling inside a
// zone with a label showing track ID, class name and dwell time, eg:
// "#12 person 4.56s"
func DwellBoxes(img *gocv.Mat, results []zonetrack.DwellResult,
	classNames []string, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	for _, res := range results {

		// Get the color for this object
		useClr := TrackColor(res.TrackID)

		// draw rectangle around tracked object
		rect := image.Rect(res.Box.Left, res.Box.Top, res.Box.Right,
			res.Box.Bottom)
		gocv.Rectangle(img, rect, useClr, lineThickness)

		// create text for label
		text := fmt.Sprintf("#%d %s %.2fs", res.TrackID,
			classNames[res.Class], res.ElapsedSeconds)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale,
			font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (res.Box.Left + res.Box.Right) / 2

		case Right:
			centerX = res.Box.Right - (textSize.X / 2) - font.RightPad +
				(lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = res.Box.Left + (textSize.X / 2) + font.LeftPad -
				(lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2,
			res.Box.Top-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			res.Box.Top-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, res.Box.Top)

		// record label rendering details
		nextLabel := boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		}
		boxLabels = append(boxLabels, nextLabel)
	}

	// draw all precalculated box labels so they are the top most layer
	// on the image and don't get overlapped by zone polygon lines
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
