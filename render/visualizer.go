// Package render shows processing stages of a video in gocv windows
package render

import (
	"image"
	"image/color"
	"strconv"

	"github.com/LdDl/abandoned-go/detect"
	"github.com/LdDl/abandoned-go/pipeline"
	"gocv.io/x/gocv"
)

var (
	clrWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	clrBlack = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	// candidate boxes of the current frame
	clrCandidate = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	// confirmed abandoned objects
	clrFound = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// StagesProvider gives access to intermediate images of the last processed frame
type StagesProvider interface {
	Stages() detect.Stages
}

// Visualizer renders frame with candidates, hypotheses and found objects plus foreground masks.
// It implements pipeline.Observer
type Visualizer struct {
	stages        StagesProvider
	delayMs       int
	lineThickness int
	frameWin      *gocv.Window
	maskWin       *gocv.Window
	erodedWin     *gocv.Window
	dilatedWin    *gocv.Window
	canvas        gocv.Mat
}

// NewVisualizer opens windows. delayMs is passed to WaitKey after every frame
func NewVisualizer(stages StagesProvider, delayMs int) *Visualizer {
	return &Visualizer{
		stages:        stages,
		delayMs:       delayMs,
		lineThickness: 2,
		frameWin:      gocv.NewWindow("Frame"),
		maskWin:       gocv.NewWindow("FG Mask MOG"),
		erodedWin:     gocv.NewWindow("FG Mask MOG eroded"),
		dilatedWin:    gocv.NewWindow("FG Mask MOG dilated"),
		canvas:        gocv.NewMat(),
	}
}

// ObserveFrame draws current state
func (v *Visualizer) ObserveFrame(state pipeline.FrameState) {
	stages := v.stages.Stages()
	if stages.Frame.Empty() {
		return
	}
	stages.Frame.CopyTo(&v.canvas)

	// frame number label
	gocv.Rectangle(&v.canvas, image.Rect(10, 2, 100, 20), clrWhite, -1)
	gocv.PutText(&v.canvas, frameLabel(state.Frame.Index), image.Pt(15, 15), gocv.FontHersheySimplex, 0.5, clrBlack, 1)

	for _, box := range state.Frame.Boxes {
		gocv.Rectangle(&v.canvas, box.ToImage(), clrCandidate, v.lineThickness)
	}
	for i := range state.Hypotheses {
		h := &state.Hypotheses[i]
		gocv.Rectangle(&v.canvas, h.GetBBox().ToImage(), hypothesisColor(h.GetFramesCount(), state.MinFrames), v.lineThickness)
	}
	for _, obj := range state.Found {
		gocv.Rectangle(&v.canvas, obj.BBox.ToImage(), clrFound, v.lineThickness)
	}

	v.frameWin.IMShow(v.canvas)
	v.maskWin.IMShow(stages.Foreground)
	v.erodedWin.IMShow(stages.Eroded)
	v.dilatedWin.IMShow(stages.Dilated)
	v.frameWin.WaitKey(v.delayMs)
}

// Close destroys windows
func (v *Visualizer) Close() error {
	for _, win := range []*gocv.Window{v.frameWin, v.maskWin, v.erodedWin, v.dilatedWin} {
		if err := win.Close(); err != nil {
			return err
		}
	}
	return v.canvas.Close()
}

// hypothesisColor is green with brightness growing towards confirmation threshold
func hypothesisColor(framesCount, minFrames int) color.RGBA {
	luminance := uint8(255)
	if minFrames > 0 && framesCount < minFrames {
		luminance = uint8(255 * framesCount / minFrames)
	}
	return color.RGBA{R: 0, G: luminance, B: 0, A: 255}
}

// frameLabel is the 1-based number of the frame as reported by the capture position
func frameLabel(frameIndex int) string {
	return strconv.Itoa(frameIndex + 1)
}
