// Package report formats, summarizes and persists abandoned objects found in videos.
package report

import (
	"fmt"
	"strings"

	"github.com/LdDl/abandoned-go/mot"
	"github.com/pkg/errors"
	"github.com/tidwall/sjson"
)

// FormatText renders result line: "name: rectangle: (x, y, w, h) - timespan: (a, b)..." without trailing newline
func FormatText(name string, objects []mot.AbandonedObject) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(": ")
	for _, obj := range objects {
		fmt.Fprintf(&sb, "rectangle: (%d, %d, %d, %d) - timespan: (%d, %d)",
			obj.BBox.X, obj.BBox.Y, obj.BBox.Width, obj.BBox.Height,
			obj.AppearFrame, obj.LastFrame,
		)
	}
	return sb.String()
}

// FormatJSON renders single-line JSON document with the video name, found objects and their summary
func FormatJSON(name string, objects []mot.AbandonedObject) (string, error) {
	doc, err := sjson.Set("{}", "video", name)
	if err != nil {
		return "", errors.Wrap(err, "can't set video name")
	}
	doc, err = sjson.SetRaw(doc, "objects", "[]")
	if err != nil {
		return "", errors.Wrap(err, "can't init objects array")
	}
	for _, obj := range objects {
		fields := []struct {
			path  string
			value interface{}
		}{
			{"id", obj.ID.String()},
			{"rectangle.x", obj.BBox.X},
			{"rectangle.y", obj.BBox.Y},
			{"rectangle.width", obj.BBox.Width},
			{"rectangle.height", obj.BBox.Height},
			{"appear_frame", obj.AppearFrame},
			{"last_frame", obj.LastFrame},
			{"frames_count", obj.FramesCount},
		}
		objDoc := "{}"
		for _, field := range fields {
			objDoc, err = sjson.Set(objDoc, field.path, field.value)
			if err != nil {
				return "", errors.Wrapf(err, "can't set %s", field.path)
			}
		}
		doc, err = sjson.SetRaw(doc, "objects.-1", objDoc)
		if err != nil {
			return "", errors.Wrap(err, "can't append object")
		}
	}
	summary := Summarize(objects)
	doc, err = sjson.Set(doc, "summary", summary)
	if err != nil {
		return "", errors.Wrap(err, "can't set summary")
	}
	return doc, nil
}
