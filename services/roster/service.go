// Package roster keeps a per-user history of extracted class lists so
// that runs can be compared over time.
package roster

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"lsfassist-backend/lib/telemetry"
	"lsfassist-backend/lib/timezone"
	"lsfassist-backend/services/roster/db"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("lsfassist.services.roster")

// renameSimilarity is the JaroWinkler score above which two class
// names from consecutive snapshots are treated as the same class
// renamed, rather than one removal plus one addition.
const renameSimilarity = 0.9

type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

type PushRequest struct {
	User    string
	Time    time.Time
	Classes []string
}

// Push stores one extraction run. Only the last run of a calendar day
// is kept per user; earlier same-day snapshots are replaced.
func (s Service) Push(ctx context.Context, req PushRequest) error {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()

	span.SetAttributes(attribute.String("user", req.User))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	startOfToday := time.Date(req.Time.Year(), req.Time.Month(), req.Time.Day(), 0, 0, 0, 0, timezone.Location).Unix()
	startOfTommorow := time.Date(req.Time.Year(), req.Time.Month(), req.Time.Day()+1, 0, 0, 0, 0, timezone.Location).Unix()

	err = txqry.DeleteSnapshotsIn(ctx, db.DeleteSnapshotsInParams{
		User:   req.User,
		After:  startOfToday,
		Before: startOfTommorow,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	snapshotId, err := txqry.CreateSnapshot(ctx, db.CreateSnapshotParams{
		User: req.User,
		Time: req.Time.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, name := range req.Classes {
		err := txqry.CreateSnapshotClass(ctx, db.CreateSnapshotClassParams{
			SnapshotID: snapshotId,
			Name:       name,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return tx.Commit()
}

type Snapshot struct {
	Time    time.Time
	Classes []string
}

// History returns a user's snapshots in chronological order.
func (s Service) History(ctx context.Context, user string) ([]Snapshot, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()

	span.SetAttributes(attribute.String("user", user))

	rows, err := s.qry.GetSnapshots(ctx, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	snapshots := make([]Snapshot, len(rows))
	for i, r := range rows {
		classes, err := s.qry.GetSnapshotClasses(ctx, r.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		snapshots[i] = Snapshot{Time: r.Time, Classes: classes}
	}
	return snapshots, nil
}

type Rename struct {
	From       string
	To         string
	Similarity float64
}

type Diff struct {
	Added   []string
	Removed []string
	Renamed []Rename
}

// DiffLatest compares the two most recent snapshots of a user. The
// second return is false when fewer than two snapshots exist.
func (s Service) DiffLatest(ctx context.Context, user string) (Diff, bool, error) {
	ctx, span := tracer.Start(ctx, "DiffLatest")
	defer span.End()

	span.SetAttributes(attribute.String("user", user))

	snapshots, err := s.History(ctx, user)
	if err != nil {
		return Diff{}, false, err
	}
	if len(snapshots) < 2 {
		return Diff{}, false, nil
	}

	previous := snapshots[len(snapshots)-2].Classes
	current := snapshots[len(snapshots)-1].Classes
	return diffClasses(previous, current), true, nil
}

func diffClasses(previous, current []string) Diff {
	srcMatched := make([]bool, len(previous))
	dstMatched := make([]bool, len(current))

	for i, prev := range previous {
		for j, cur := range current {
			if dstMatched[j] {
				continue
			}
			if prev == cur {
				srcMatched[i] = true
				dstMatched[j] = true
				break
			}
		}
	}

	type link struct {
		similarity float64
		src        int
		dst        int
	}
	var links []link

	for i, prev := range previous {
		if srcMatched[i] {
			continue
		}
		for j, cur := range current {
			if dstMatched[j] {
				continue
			}
			similarity := matchr.JaroWinkler(prev, cur, false)
			if similarity < renameSimilarity {
				continue
			}
			links = append(links, link{
				similarity: similarity,
				src:        i,
				dst:        j,
			})
		}
	}

	slices.SortFunc(links, func(a, b link) int {
		// the 1 and -1 are flipped to make it sort descending (large values near the front)
		if a.similarity < b.similarity {
			return 1
		}
		if a.similarity > b.similarity {
			return -1
		}
		return 0
	})

	var diff Diff
	for _, l := range links {
		if srcMatched[l.src] || dstMatched[l.dst] {
			continue
		}
		srcMatched[l.src] = true
		dstMatched[l.dst] = true
		diff.Renamed = append(diff.Renamed, Rename{
			From:       previous[l.src],
			To:         current[l.dst],
			Similarity: l.similarity,
		})
	}

	for i, prev := range previous {
		if !srcMatched[i] {
			diff.Removed = append(diff.Removed, prev)
		}
	}
	for j, cur := range current {
		if !dstMatched[j] {
			diff.Added = append(diff.Added, cur)
		}
	}
	return diff
}
