// Package render draws the gesture debug overlay.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/talkheal/gesturemode/internal/detector"
	"github.com/talkheal/gesturemode/internal/fps"
	"github.com/talkheal/gesturemode/internal/gesture"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
	trail = color.RGBA{152, 251, 152, 255}
)

// bones are landmark index pairs joined by a line.
var bones = [][2]int{
	{detector.ThumbCMC, detector.ThumbMCP}, {detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.IndexMCP, detector.IndexPIP}, {detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.MiddleMCP, detector.MiddlePIP}, {detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.RingMCP, detector.RingPIP}, {detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP}, {detector.PinkyDIP, detector.PinkyTip},
	// palm
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.IndexMCP}, {detector.IndexMCP, detector.MiddleMCP},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.PinkyMCP}, {detector.PinkyMCP, detector.Wrist},
}

// Renderer draws onto copies of session frames.
type Renderer struct {
	// BoundingRect enables the per-hand box.
	BoundingRect bool
	// Quality is the JPEG quality for EncodeJPEG. Zero uses the OpenCV default.
	Quality int
	fps     *fps.Counter
}

func New(boundingRect bool) *Renderer {
	return &Renderer{
		BoundingRect: boundingRect,
		fps:          fps.New(fps.DefaultWindow),
	}
}

// Draw returns a copy of frame with the overlay for res. The caller owns
// the returned Mat. frame itself is not modified.
func (r *Renderer) Draw(frame *gocv.Mat, res *gesture.Result) gocv.Mat {
	debug := frame.Clone()
	rate := r.fps.Tick()

	if res != nil {
		for i := range res.Hands {
			h := &res.Hands[i]
			if r.BoundingRect {
				gocv.Rectangle(&debug, h.Rect, black, 1)
			}
			drawLandmarks(&debug, &h.Hand)
			drawInfoText(&debug, h)
		}
		drawPointHistory(&debug, res.PointHistory)
	}
	drawFPS(&debug, rate)

	return debug
}

func drawLandmarks(img *gocv.Mat, hand *detector.Hand) {
	for _, b := range bones {
		p1, p2 := hand.Points[b[0]].Pt(), hand.Points[b[1]].Pt()
		gocv.Line(img, p1, p2, black, 6)
		gocv.Line(img, p1, p2, white, 2)
	}
	for i, p := range hand.Points {
		radius := 5
		if i == detector.ThumbTip || i == detector.IndexTip || i == detector.MiddleTip ||
			i == detector.RingTip || i == detector.PinkyTip {
			radius = 8
		}
		gocv.Circle(img, p.Pt(), radius, white, -1)
		gocv.Circle(img, p.Pt(), radius, black, 1)
	}
}

func drawInfoText(img *gocv.Mat, h *gesture.HandResult) {
	banner := image.Rect(h.Rect.Min.X, h.Rect.Min.Y-22, h.Rect.Max.X, h.Rect.Min.Y)
	gocv.Rectangle(img, banner, black, -1)

	text := h.Hand.Handedness.Label
	if h.PoseLabel != "" {
		text += ":" + h.PoseLabel
	}
	gocv.PutTextWithParams(img, text, image.Pt(h.Rect.Min.X+5, h.Rect.Min.Y-4),
		gocv.FontHersheySimplex, 0.6, white, 1, gocv.LineAA, false)

	if h.MotionName != "" {
		putOutlined(img, "Finger Gesture:"+h.MotionName, image.Pt(10, 60), 1.0)
	}
}

// drawPointHistory skips (0,0) sentinels. Newer points are drawn larger.
func drawPointHistory(img *gocv.Mat, points []detector.Point) {
	for i, p := range points {
		if p.IsZero() {
			continue
		}
		gocv.Circle(img, p.Pt(), 1+i/2, trail, 2)
	}
}

func drawFPS(img *gocv.Mat, rate float64) {
	putOutlined(img, fmt.Sprintf("FPS:%.0f", rate), image.Pt(10, 30), 1.0)
}

func putOutlined(img *gocv.Mat, text string, org image.Point, scale float64) {
	gocv.PutTextWithParams(img, text, org, gocv.FontHersheySimplex, scale, black, 4, gocv.LineAA, false)
	gocv.PutTextWithParams(img, text, org, gocv.FontHersheySimplex, scale, white, 2, gocv.LineAA, false)
}

// FPS returns the frame rate measured over recent Draw calls.
func (r *Renderer) FPS() float64 {
	return r.fps.Rate()
}

// ResetFPS discards the measured frame intervals.
func (r *Renderer) ResetFPS() {
	r.fps.Reset()
}

// EncodeJPEG renders frame with the overlay and returns JPEG bytes.
func (r *Renderer) EncodeJPEG(frame *gocv.Mat, res *gesture.Result) ([]byte, error) {
	debug := r.Draw(frame, res)
	defer debug.Close()

	var (
		buf *gocv.NativeByteBuffer
		err error
	)
	if r.Quality > 0 {
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, debug, []int{gocv.IMWriteJpegQuality, r.Quality})
	} else {
		buf, err = gocv.IMEncode(gocv.JPEGFileExt, debug)
	}
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
