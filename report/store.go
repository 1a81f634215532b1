package report

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/LdDl/abandoned-go/mot"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// schema.sql defines tables for processing runs and abandoned objects found in them.
//
//go:embed schema.sql
var schemaSQL string

// ResultDB persists found abandoned objects per processed video
type ResultDB struct {
	*sql.DB
}

// NewResultDB opens (creating if needed) SQLite database and applies schema
func NewResultDB(path string) (*ResultDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open database %s", path)
	}
	if _, err = db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "can't apply schema")
	}
	return &ResultDB{db}, nil
}

// SaveRun stores objects found in video as a new run and returns its identifier
func (rdb *ResultDB) SaveRun(ctx context.Context, video string, objects []mot.AbandonedObject) (int64, error) {
	tx, err := rdb.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "can't begin transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (video, created_unix_nanos, objects_count) VALUES (?, ?, ?)`,
		video, time.Now().UnixNano(), len(objects),
	)
	if err != nil {
		return 0, errors.Wrap(err, "can't insert run")
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "can't get run id")
	}

	query := `
		INSERT INTO abandoned_objects (
			object_id, run_id, position,
			x, y, width, height,
			appear_frame, last_frame, frames_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, obj := range objects {
		_, err = tx.ExecContext(ctx, query,
			obj.ID.String(), runID, i,
			obj.BBox.X, obj.BBox.Y, obj.BBox.Width, obj.BBox.Height,
			obj.AppearFrame, obj.LastFrame, obj.FramesCount,
		)
		if err != nil {
			return 0, errors.Wrapf(err, "can't insert object %s", obj.ID)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "can't commit run")
	}
	return runID, nil
}

// LatestRun returns objects of the most recent run for video. sql.ErrNoRows (wrapped) is returned when video has never been processed
func (rdb *ResultDB) LatestRun(ctx context.Context, video string) (int64, []mot.AbandonedObject, error) {
	var runID int64
	err := rdb.QueryRowContext(ctx,
		`SELECT run_id FROM runs WHERE video = ? ORDER BY run_id DESC LIMIT 1`, video,
	).Scan(&runID)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "can't find run for %s", video)
	}
	objects, err := rdb.RunObjects(ctx, runID)
	if err != nil {
		return 0, nil, err
	}
	return runID, objects, nil
}

// RunObjects returns objects of the run in the order they have been found
func (rdb *ResultDB) RunObjects(ctx context.Context, runID int64) ([]mot.AbandonedObject, error) {
	rows, err := rdb.QueryContext(ctx, `
		SELECT object_id, x, y, width, height, appear_frame, last_frame, frames_count
		FROM abandoned_objects
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "can't query objects of run %d", runID)
	}
	defer rows.Close()

	objects := make([]mot.AbandonedObject, 0)
	for rows.Next() {
		var obj mot.AbandonedObject
		var id string
		if err := rows.Scan(&id, &obj.BBox.X, &obj.BBox.Y, &obj.BBox.Width, &obj.BBox.Height, &obj.AppearFrame, &obj.LastFrame, &obj.FramesCount); err != nil {
			return nil, errors.Wrap(err, "can't scan object")
		}
		obj.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, errors.Wrapf(err, "bad object id %q", id)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "can't iterate objects")
	}
	return objects, nil
}
