// Package detect turns video frames into candidate bounding boxes: background subtraction,
// morphological cleanup of the foreground mask and contour extraction.
package detect

import (
	"image"

	"github.com/LdDl/abandoned-go/mot"
	"gocv.io/x/gocv"
)

// ForegroundExtractor keeps adaptive background model and produces binary change mask for every frame
type ForegroundExtractor struct {
	bs gocv.BackgroundSubtractorMOG2
}

// NewForegroundExtractor creates MOG2 based extractor. Shadows detection is off so the mask is binary
func NewForegroundExtractor(history int, varThreshold float64) *ForegroundExtractor {
	return &ForegroundExtractor{
		bs: gocv.NewBackgroundSubtractorMOG2WithParams(history, varThreshold, false),
	}
}

// Apply updates background model with frame and writes foreground mask into mask
func (fe *ForegroundExtractor) Apply(frame gocv.Mat, mask *gocv.Mat) {
	fe.bs.Apply(frame, mask)
}

// Close frees resources used by gocv
func (fe *ForegroundExtractor) Close() error {
	return fe.bs.Close()
}

// MaskCleaner removes noise with erosion and then connects fragmented parts of an object with dilation
type MaskCleaner struct {
	erosionElement  gocv.Mat
	dilationElement gocv.Mat
}

// NewMaskCleaner creates cleaner with elliptic structuring elements of (2*size+1) diameter
func NewMaskCleaner(erosionSize, dilationSize int) *MaskCleaner {
	return &MaskCleaner{
		erosionElement:  gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(2*erosionSize+1, 2*erosionSize+1)),
		dilationElement: gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(2*dilationSize+1, 2*dilationSize+1)),
	}
}

// Clean writes eroded and then dilated versions of mask
func (mc *MaskCleaner) Clean(mask gocv.Mat, eroded, dilated *gocv.Mat) {
	gocv.Erode(mask, eroded, mc.erosionElement)
	gocv.Dilate(*eroded, dilated, mc.dilationElement)
}

// Close frees resources used by gocv
func (mc *MaskCleaner) Close() error {
	if err := mc.erosionElement.Close(); err != nil {
		return err
	}
	return mc.dilationElement.Close()
}

// CandidateDetector extracts external contours of a cleaned mask, approximates them by polygons
// and emits one bounding box per contour
type CandidateDetector struct {
	polyEpsilon float64
}

// NewCandidateDetector creates detector. polyEpsilon is max distance between contour and its polygonal approximation
func NewCandidateDetector(polyEpsilon float64) *CandidateDetector {
	return &CandidateDetector{
		polyEpsilon: polyEpsilon,
	}
}

// Detect returns bounding boxes in contour order
func (cd *CandidateDetector) Detect(mask gocv.Mat) []mot.Rectangle {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]mot.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		poly := gocv.ApproxPolyDP(contours.At(i), cd.polyEpsilon, true)
		boxes = append(boxes, mot.NewRectFrom(gocv.BoundingRect(poly)))
		poly.Close()
	}
	return boxes
}
