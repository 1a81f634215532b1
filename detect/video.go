package detect

import (
	"context"
	"io"

	"github.com/LdDl/abandoned-go/config"
	"github.com/LdDl/abandoned-go/mot"
	"github.com/LdDl/abandoned-go/pipeline"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Stages holds intermediate images of the last processed frame. Mats are owned by VideoSource
type Stages struct {
	Frame      gocv.Mat
	Foreground gocv.Mat
	Eroded     gocv.Mat
	Dilated    gocv.Mat
	Boxes      []mot.Rectangle
}

// VideoSource decodes video file and produces candidate boxes for every frame. Frames are indexed from 0
type VideoSource struct {
	capture    *gocv.VideoCapture
	extractor  *ForegroundExtractor
	cleaner    *MaskCleaner
	detector   *CandidateDetector
	stages     Stages
	frameIndex int
}

// OpenVideo opens video file and prepares detection stages from configuration
func OpenVideo(path string, cfg config.Config) (*VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(pipeline.ErrSourceOpen, "%s: %v", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Wrapf(pipeline.ErrSourceOpen, "%s: capture is not opened", path)
	}
	return &VideoSource{
		capture:   capture,
		extractor: NewForegroundExtractor(cfg.MOGHistory, cfg.MOGVarThreshold),
		cleaner:   NewMaskCleaner(cfg.ErosionSize, cfg.DilationSize),
		detector:  NewCandidateDetector(cfg.PolyEpsilon),
		stages: Stages{
			Frame:      gocv.NewMat(),
			Foreground: gocv.NewMat(),
			Eroded:     gocv.NewMat(),
			Dilated:    gocv.NewMat(),
		},
	}, nil
}

// Next reads next frame and runs detection stages over it
func (src *VideoSource) Next(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}
	if ok := src.capture.Read(&src.stages.Frame); !ok || src.stages.Frame.Empty() {
		return pipeline.Frame{}, io.EOF
	}
	src.extractor.Apply(src.stages.Frame, &src.stages.Foreground)
	src.cleaner.Clean(src.stages.Foreground, &src.stages.Eroded, &src.stages.Dilated)
	// FindContours may modify its input on old OpenCV versions
	tmp := src.stages.Dilated.Clone()
	boxes := src.detector.Detect(tmp)
	tmp.Close()

	src.stages.Boxes = boxes
	frame := pipeline.Frame{
		Index: src.frameIndex,
		Boxes: boxes,
	}
	src.frameIndex++
	return frame, nil
}

// Stages returns intermediate images of the last frame. They stay valid until the next call of Next
func (src *VideoSource) Stages() Stages {
	return src.stages
}

// Close releases capture device and all gocv resources
func (src *VideoSource) Close() error {
	errs := make([]error, 0)
	if err := src.capture.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, closer := range []interface{ Close() error }{src.extractor, src.cleaner, &src.stages.Frame, &src.stages.Foreground, &src.stages.Eroded, &src.stages.Dilated} {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrapf(errs[0], "can't release video source (%d errors)", len(errs))
	}
	return nil
}
