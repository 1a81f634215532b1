package report

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/LdDl/abandoned-go/mot"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func sampleObjects() []mot.AbandonedObject {
	return []mot.AbandonedObject{
		{ID: uuid.New(), BBox: mot.NewRect(10, 10, 50, 50), AppearFrame: 0, LastFrame: 40, FramesCount: 41},
		{ID: uuid.New(), BBox: mot.NewRect(200, 120, 30, 60), AppearFrame: 100, LastFrame: 158, FramesCount: 59},
	}
}

func TestFormatText(t *testing.T) {
	line := FormatText("video.avi", sampleObjects())
	require.Equal(t, "video.avi: rectangle: (10, 10, 50, 50) - timespan: (0, 40)rectangle: (200, 120, 30, 60) - timespan: (100, 158)", line)
	require.Equal(t, "empty.avi: ", FormatText("empty.avi", nil))
}

func TestFormatJSON(t *testing.T) {
	objects := sampleObjects()
	doc, err := FormatJSON("video.avi", objects)
	require.NoError(t, err)
	require.True(t, gjson.Valid(doc))

	parsed := gjson.Parse(doc)
	require.Equal(t, "video.avi", parsed.Get("video").String())
	require.Equal(t, int64(2), parsed.Get("objects.#").Int())
	require.Equal(t, objects[1].ID.String(), parsed.Get("objects.1.id").String())
	require.Equal(t, int64(120), parsed.Get("objects.1.rectangle.y").Int())
	require.Equal(t, int64(40), parsed.Get("objects.0.last_frame").Int())
	require.Equal(t, int64(2), parsed.Get("summary.count").Int())
	require.Equal(t, 50.0, parsed.Get("summary.mean_frames").Float())

	doc, err = FormatJSON("empty.avi", nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), gjson.Get(doc, "objects.#").Int())
	require.True(t, gjson.Get(doc, "objects").IsArray())
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleObjects())
	require.Equal(t, 2, summary.Count)
	require.Equal(t, 50.0, summary.MeanFrames)
	require.Equal(t, 59.0, summary.MaxFrames)
	require.Equal(t, 100.0, summary.TotalFrames)
	require.InDelta(t, 12.7279, summary.StdDevFrames, 0.0001)

	require.Equal(t, Summary{}, Summarize(nil))
	single := Summarize(sampleObjects()[:1])
	require.Equal(t, 0.0, single.StdDevFrames)
}

func TestResultDB(t *testing.T) {
	rdb, err := NewResultDB(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer rdb.Close()

	ctx := context.Background()
	objects := sampleObjects()

	firstRun, err := rdb.SaveRun(ctx, "video.avi", objects)
	require.NoError(t, err)
	secondRun, err := rdb.SaveRun(ctx, "video.avi", objects[:1])
	require.NoError(t, err)
	require.Greater(t, secondRun, firstRun)

	runID, stored, err := rdb.LatestRun(ctx, "video.avi")
	require.NoError(t, err)
	require.Equal(t, secondRun, runID)
	require.Equal(t, objects[:1], stored)

	stored, err = rdb.RunObjects(ctx, firstRun)
	require.NoError(t, err)
	require.Equal(t, objects, stored)

	_, err = rdb.SaveRun(ctx, "nothing.avi", nil)
	require.NoError(t, err)
	_, stored, err = rdb.LatestRun(ctx, "nothing.avi")
	require.NoError(t, err)
	require.Empty(t, stored)

	_, _, err = rdb.LatestRun(ctx, "unknown.avi")
	require.Equal(t, sql.ErrNoRows, errors.Cause(err))
}
