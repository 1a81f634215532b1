package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"math"
	"os"

	"github.com/LdDl/abandoned-go/mot"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	maxLineSize     = 10 << 20
	// Integers above this magnitude are not represented exactly by JSON numbers parsed as float64
	maxExactInteger = 1 << 53
)

// BoxStreamSource reads pre-computed candidate boxes from JSON lines:
//
//	{"frame": 0, "boxes": [[10, 10, 50, 50], {"x": 200, "y": 40, "width": 20, "height": 30}]}
//
// Frame indices must be strictly increasing. A gap of skipped indices is emitted as a single frame without candidates
// at the first skipped index.
type BoxStreamSource struct {
	scanner   *bufio.Scanner
	closer    io.Closer
	line      int
	started   bool
	nextIndex int
	pending   *Frame
}

// NewBoxStreamSource creates source reading from r
func NewBoxStreamSource(r io.Reader) *BoxStreamSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &BoxStreamSource{
		scanner: scanner,
	}
}

// OpenBoxStreamFile creates source reading given file. Close releases the file
func OpenBoxStreamFile(path string) (*BoxStreamSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceOpen, "%s: %v", path, err)
	}
	src := NewBoxStreamSource(file)
	src.closer = file
	return src, nil
}

// Next returns next frame or io.EOF
func (src *BoxStreamSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	for {
		if src.pending != nil {
			// One empty frame evicts everything, further empty frames of the gap would change nothing
			if src.nextIndex < src.pending.Index {
				gap := Frame{Index: src.nextIndex, Boxes: []mot.Rectangle{}}
				src.nextIndex = src.pending.Index
				return gap, nil
			}
			frame := *src.pending
			src.pending = nil
			src.nextIndex = frame.Index + 1
			return frame, nil
		}
		frame, err := src.readFrame()
		if err != nil {
			return Frame{}, err
		}
		if !src.started {
			src.started = true
			src.nextIndex = frame.Index
		} else if frame.Index < src.nextIndex {
			return Frame{}, errors.Wrapf(ErrFrameOrder, "line %d: frame %d, expected at least %d", src.line, frame.Index, src.nextIndex)
		}
		src.pending = &frame
	}
}

func (src *BoxStreamSource) readFrame() (Frame, error) {
	for src.scanner.Scan() {
		src.line++
		data := bytes.TrimSpace(src.scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		frame, err := ParseFrameJSON(data)
		if err != nil {
			return Frame{}, errors.Wrapf(err, "line %d", src.line)
		}
		return frame, nil
	}
	if err := src.scanner.Err(); err != nil {
		return Frame{}, errors.Wrap(err, "can't scan box stream")
	}
	return Frame{}, io.EOF
}

// Close releases underlying file (if any)
func (src *BoxStreamSource) Close() error {
	if src.closer == nil {
		return nil
	}
	return src.closer.Close()
}

// ParseFrameJSON parses a single JSON line of the box stream
func ParseFrameJSON(data []byte) (Frame, error) {
	if !gjson.ValidBytes(data) {
		return Frame{}, errors.New("malformed JSON")
	}
	doc := gjson.ParseBytes(data)
	index := doc.Get("frame")
	if !index.Exists() {
		return Frame{}, errors.New("missing \"frame\" field")
	}
	frameIndex, err := integerValue(index)
	if err != nil {
		return Frame{}, errors.Wrap(err, "\"frame\"")
	}
	if frameIndex < 0 {
		return Frame{}, errors.Errorf("negative frame index %d", frameIndex)
	}
	frame := Frame{
		Index: frameIndex,
		Boxes: make([]mot.Rectangle, 0),
	}
	boxes := doc.Get("boxes")
	if !boxes.Exists() {
		return frame, nil
	}
	if !boxes.IsArray() {
		return Frame{}, errors.New("\"boxes\" must be an array")
	}
	for i, value := range boxes.Array() {
		box, err := parseBox(value)
		if err != nil {
			return Frame{}, errors.Wrapf(err, "box %d", i)
		}
		frame.Boxes = append(frame.Boxes, box)
	}
	return frame, nil
}

var boxKeys = []string{"x", "y", "width", "height"}

func parseBox(value gjson.Result) (mot.Rectangle, error) {
	var fields []gjson.Result
	switch {
	case value.IsArray():
		fields = value.Array()
		if len(fields) != 4 {
			return mot.Rectangle{}, errors.Errorf("expected 4 values [x, y, width, height], got %d", len(fields))
		}
	case value.IsObject():
		fields = make([]gjson.Result, len(boxKeys))
		for i, key := range boxKeys {
			fields[i] = value.Get(key)
			if !fields[i].Exists() {
				return mot.Rectangle{}, errors.Errorf("missing %q", key)
			}
		}
	default:
		return mot.Rectangle{}, errors.Errorf("unexpected box value %s", value.Raw)
	}
	coords := make([]int, len(fields))
	for i, field := range fields {
		v, err := integerValue(field)
		if err != nil {
			return mot.Rectangle{}, errors.Wrapf(err, "%q", boxKeys[i])
		}
		coords[i] = v
	}
	return mot.NewRect(coords[0], coords[1], coords[2], coords[3]), nil
}

// integerValue accepts JSON numbers without fractional part only
func integerValue(value gjson.Result) (int, error) {
	if value.Type != gjson.Number {
		return 0, errors.Errorf("expected integer, got %s", value.Raw)
	}
	if value.Num != math.Trunc(value.Num) || math.Abs(value.Num) > maxExactInteger {
		return 0, errors.Errorf("expected integer, got %s", value.Raw)
	}
	return int(value.Int()), nil
}
