package db

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type CreateSnapshotParams struct {
	User string
	Time int64
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (int64, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO snapshot (user, time) VALUES (?, ?) RETURNING id`,
		arg.User, arg.Time,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type CreateSnapshotClassParams struct {
	SnapshotID int64
	Name       string
}

func (q *Queries) CreateSnapshotClass(ctx context.Context, arg CreateSnapshotClassParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO snapshot_class (snapshot_id, name) VALUES (?, ?)`,
		arg.SnapshotID, arg.Name,
	)
	return err
}

type DeleteSnapshotsInParams struct {
	User   string
	After  int64
	Before int64
}

// DeleteSnapshotsIn removes a user's snapshots in [After, Before) along
// with their class rows.
func (q *Queries) DeleteSnapshotsIn(ctx context.Context, arg DeleteSnapshotsInParams) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM snapshot_class WHERE snapshot_id IN
			(SELECT id FROM snapshot WHERE user = ? AND time >= ? AND time < ?)`,
		arg.User, arg.After, arg.Before,
	)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx,
		`DELETE FROM snapshot WHERE user = ? AND time >= ? AND time < ?`,
		arg.User, arg.After, arg.Before,
	)
	return err
}

type GetSnapshotsRow struct {
	ID   int64
	Time time.Time
}

func (q *Queries) GetSnapshots(ctx context.Context, user string) ([]GetSnapshotsRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, time FROM snapshot WHERE user = ? ORDER BY time ASC, id ASC`,
		user,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetSnapshotsRow
	for rows.Next() {
		var id, unix int64
		err := rows.Scan(&id, &unix)
		if err != nil {
			return nil, err
		}
		out = append(out, GetSnapshotsRow{ID: id, Time: time.Unix(unix, 0)})
	}
	return out, rows.Err()
}

func (q *Queries) GetSnapshotClasses(ctx context.Context, snapshotId int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT name FROM snapshot_class WHERE snapshot_id = ? ORDER BY rowid ASC`,
		snapshotId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		err := rows.Scan(&name)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
