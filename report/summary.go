package report

import (
	"github.com/LdDl/abandoned-go/mot"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes how long found objects persisted (in frames)
type Summary struct {
	Count        int     `json:"count"`
	MeanFrames   float64 `json:"mean_frames"`
	StdDevFrames float64 `json:"stddev_frames"`
	MaxFrames    float64 `json:"max_frames"`
	TotalFrames  float64 `json:"total_frames"`
}

// Summarize computes persistence statistics. Zero Summary is returned for no objects
func Summarize(objects []mot.AbandonedObject) Summary {
	if len(objects) == 0 {
		return Summary{}
	}
	spans := make([]float64, len(objects))
	for i, obj := range objects {
		spans[i] = float64(obj.FramesCount)
	}
	summary := Summary{
		Count:       len(objects),
		MeanFrames:  stat.Mean(spans, nil),
		MaxFrames:   floats.Max(spans),
		TotalFrames: floats.Sum(spans),
	}
	if len(spans) > 1 {
		summary.StdDevFrames = stat.StdDev(spans, nil)
	}
	return summary
}
