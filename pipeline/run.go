package pipeline

import (
	"context"
	"io"

	"github.com/LdDl/abandoned-go/mot"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FrameState is what observers get after every processed frame
type FrameState struct {
	Frame      Frame
	Hypotheses []mot.Hypothesis
	Confirmed  []mot.AbandonedObject
	Found      []mot.AbandonedObject
	MinFrames  int
}

// Observer receives frame states synchronously, e.g. for live visualization
type Observer interface {
	ObserveFrame(state FrameState)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(state FrameState)

// ObserveFrame calls f(state)
func (f ObserverFunc) ObserveFrame(state FrameState) {
	f(state)
}

type runOptions struct {
	maxSimilarDistance int
	minFrames          int
	audit              bool
	observers          []Observer
	logger             logrus.FieldLogger
}

// Option configures Run
type Option func(*runOptions)

// WithTrackerParams sets similarity tolerance and confirmation threshold
func WithTrackerParams(maxSimilarDistance, minFrames int) Option {
	return func(o *runOptions) {
		o.maxSimilarDistance = maxSimilarDistance
		o.minFrames = minFrames
	}
}

// WithAssignmentAudit enables logging of frames where first-fit association is worse than the optimal one
func WithAssignmentAudit(enabled bool) Option {
	return func(o *runOptions) {
		o.audit = enabled
	}
}

// WithObservers appends frame observers
func WithObservers(observers ...Observer) Option {
	return func(o *runOptions) {
		o.observers = append(o.observers, observers...)
	}
}

// WithLogger sets logger. Default is logrus standard logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// Run processes a single video: a fresh tracker consumes every frame of src until io.EOF.
// Hypotheses alive at the end are discarded without promotion.
// If ctx is cancelled between frames, objects found so far are returned together with the context error.
// Any source error aborts the video and no objects are returned.
func Run(ctx context.Context, src FrameSource, opts ...Option) ([]mot.AbandonedObject, error) {
	options := runOptions{
		maxSimilarDistance: mot.DefaultMaxSimilarDistance,
		minFrames:          mot.DefaultMinFrames,
		logger:             logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	log := options.logger
	tracker := mot.NewPersistenceTracker(options.maxSimilarDistance, options.minFrames)

	lastIndex := 0
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			dropped := tracker.Drain()
			log.WithFields(logrus.Fields{"frames": processed, "dropped": len(dropped)}).Info("processing stopped")
			return tracker.Found(), errors.Wrap(err, "processing stopped")
		}
		frame, err := src.Next(ctx)
		if errors.Cause(err) == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "can't read frame after %d processed frames", processed)
		}
		if processed > 0 && frame.Index <= lastIndex {
			return nil, errors.Wrapf(ErrFrameOrder, "frame %d follows frame %d", frame.Index, lastIndex)
		}
		lastIndex = frame.Index
		processed++

		if options.audit {
			audit := tracker.AuditFrame(frame.Boxes)
			if audit.Diverged() {
				log.WithFields(logrus.Fields{
					"frame":          frame.Index,
					"divergent":      audit.Divergent,
					"first_fit":      audit.FirstFitScore,
					"optimal":        audit.OptimalScore,
					"hypotheses_num": tracker.Len(),
				}).Warn("first-fit association is suboptimal")
			}
		}

		confirmed := tracker.AdvanceFrame(frame.Index, frame.Boxes)
		for _, obj := range confirmed {
			log.WithFields(logrus.Fields{
				"id":    obj.ID,
				"frame": frame.Index,
				"bbox":  obj.BBox,
				"span":  [2]int{obj.AppearFrame, obj.LastFrame},
			}).Debug("abandoned object confirmed")
		}
		if len(options.observers) > 0 {
			state := FrameState{
				Frame:      frame,
				Hypotheses: tracker.Hypotheses(),
				Confirmed:  confirmed,
				Found:      tracker.Found(),
				MinFrames:  tracker.MinFrames(),
			}
			for _, observer := range options.observers {
				observer.ObserveFrame(state)
			}
		}
	}

	dropped := tracker.Drain()
	overThreshold := 0
	for i := range dropped {
		if dropped[i].GetFramesCount() >= tracker.MinFrames() {
			overThreshold++
		}
	}
	found := tracker.Found()
	log.WithFields(logrus.Fields{
		"frames":         processed,
		"found":          len(found),
		"dropped":        len(dropped),
		"dropped_stable": overThreshold,
	}).Debug("end of stream")
	return found, nil
}
