package pipeline

import (
	"context"

	"github.com/LdDl/abandoned-go/mot"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// InputProcessor finds abandoned objects in a single input (video or box stream)
type InputProcessor func(ctx context.Context, name string) ([]mot.AbandonedObject, error)

// ResultHandler consumes objects found in a single input, e.g. prints or stores them
type ResultHandler func(name string, found []mot.AbandonedObject) error

// ProcessAll processes inputs in the given order and stops at the first failure.
// The handler is called only for inputs processed successfully; inputs after a failed one are never touched.
func ProcessAll(ctx context.Context, names []string, process InputProcessor, handle ResultHandler, logger logrus.FieldLogger) error {
	for i, name := range names {
		log := logger.WithField("input", name)
		log.Info("processing started")
		found, err := process(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "input %d of %d (%s)", i+1, len(names), name)
		}
		log.WithField("found", len(found)).Info("processing finished")
		if err := handle(name, found); err != nil {
			return errors.Wrapf(err, "can't handle result of %s", name)
		}
	}
	return nil
}
