// Package sqlitestore is the single source of truth for persisted posts and
// their schedule entries. All read projections (calendar, grouped list,
// counts) are computed on demand from here.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"postcraft/internal/model"
)

// ErrNotFound is returned for lookups of unknown posts or entries.
var ErrNotFound = errors.New("not found")

// DB wraps the SQLite database holding posts and scheduled posts.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer; also keeps :memory: databases on one connection.
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS posts (
	  id TEXT PRIMARY KEY,
	  topic TEXT NOT NULL,
	  content TEXT NOT NULL,
	  platform TEXT NOT NULL,
	  research TEXT,
	  status TEXT NOT NULL DEFAULT 'draft',
	  platform_post_id TEXT,
	  created_at INTEGER NOT NULL,
	  published_at INTEGER
	);
	CREATE TABLE IF NOT EXISTS scheduled_posts (
	  id TEXT PRIMARY KEY,
	  post_id TEXT NOT NULL UNIQUE REFERENCES posts(id),
	  scheduled_time INTEGER NOT NULL,
	  status TEXT NOT NULL DEFAULT 'scheduled',
	  error_message TEXT,
	  created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sched_time ON scheduled_posts(scheduled_time);
	CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);
	`)
	return err
}

// CreatePost persists a new draft post and assigns its id.
func (d *DB) CreatePost(ctx context.Context, topic, content string, platform model.Platform, research *model.ResearchCorpus) (model.PersistedPost, error) {
	post := model.PersistedPost{
		ID:           uuid.NewString(),
		Topic:        topic,
		Content:      content,
		Platform:     platform,
		ResearchData: research,
		Status:       model.PostDraft,
		CreatedAt:    time.Now().UTC(),
	}
	var researchJSON *string
	if research != nil {
		b, err := json.Marshal(research)
		if err != nil {
			return model.PersistedPost{}, err
		}
		s := string(b)
		researchJSON = &s
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO posts(id, topic, content, platform, research, status, created_at) VALUES(?,?,?,?,?,?,?)`,
		post.ID, post.Topic, post.Content, string(post.Platform), researchJSON, string(post.Status), post.CreatedAt.Unix())
	if err != nil {
		return model.PersistedPost{}, err
	}
	return post, nil
}

// GetPost returns one post by id.
func (d *DB) GetPost(ctx context.Context, id string) (model.PersistedPost, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT id, topic, content, platform, research, status, platform_post_id, created_at, published_at FROM posts WHERE id=?`, id)
	return scanPost(row)
}

// ListPosts returns the most recent posts, newest first.
func (d *DB) ListPosts(ctx context.Context, limit int) ([]model.PersistedPost, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, topic, content, platform, research, status, platform_post_id, created_at, published_at
		 FROM posts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PersistedPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePostContent replaces a post's content, the explicit edit+resave path.
func (d *DB) UpdatePostContent(ctx context.Context, id, content string) error {
	res, err := d.sql.ExecContext(ctx, `UPDATE posts SET content=? WHERE id=?`, content, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkPublished records a successful immediate publish.
func (d *DB) MarkPublished(ctx context.Context, postID, platformPostID string) error {
	res, err := d.sql.ExecContext(ctx,
		`UPDATE posts SET status=?, platform_post_id=?, published_at=? WHERE id=?`,
		string(model.PostPublished), platformPostID, time.Now().UTC().Unix(), postID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Schedule creates the schedule entry for a post. A post carries at most one
// entry at a time: re-scheduling replaces the prior entry's time and resets
// its status and error.
func (d *DB) Schedule(ctx context.Context, postID string, at time.Time) (model.ScheduledEntry, error) {
	post, err := d.GetPost(ctx, postID)
	if err != nil {
		return model.ScheduledEntry{}, err
	}
	entry := model.ScheduledEntry{
		ID:            uuid.NewString(),
		PostID:        postID,
		ScheduledTime: at.UTC(),
		Status:        model.ScheduleScheduled,
		CreatedAt:     time.Now().UTC(),
		Post:          &post,
	}
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		var existingID string
		row := tx.QueryRowContext(ctx, `SELECT id FROM scheduled_posts WHERE post_id=?`, postID)
		switch err := row.Scan(&existingID); {
		case err == nil:
			entry.ID = existingID
			if _, err := tx.ExecContext(ctx,
				`UPDATE scheduled_posts SET scheduled_time=?, status=?, error_message=NULL WHERE id=?`,
				entry.ScheduledTime.Unix(), string(model.ScheduleScheduled), existingID); err != nil {
				return err
			}
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO scheduled_posts(id, post_id, scheduled_time, status, created_at) VALUES(?,?,?,?,?)`,
				entry.ID, postID, entry.ScheduledTime.Unix(), string(model.ScheduleScheduled), entry.CreatedAt.Unix()); err != nil {
				return err
			}
		default:
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE posts SET status=? WHERE id=?`, string(model.PostScheduled), postID)
		return err
	})
	if err != nil {
		return model.ScheduledEntry{}, err
	}
	entry.Post.Status = model.PostScheduled
	return entry, nil
}

// Cancel transitions a pending entry to canceled. Settled entries cannot be
// canceled.
func (d *DB) Cancel(ctx context.Context, entryID string) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		var postID string
		row := tx.QueryRowContext(ctx,
			`SELECT post_id FROM scheduled_posts WHERE id=? AND status=?`, entryID, string(model.ScheduleScheduled))
		if err := row.Scan(&postID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE scheduled_posts SET status=? WHERE id=?`, string(model.ScheduleCanceled), entryID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE posts SET status=? WHERE id=?`, string(model.PostDraft), postID)
		return err
	})
}

// MarkEntryPublished settles an entry after a successful deferred publish.
func (d *DB) MarkEntryPublished(ctx context.Context, entryID, platformPostID string) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		var postID string
		row := tx.QueryRowContext(ctx, `SELECT post_id FROM scheduled_posts WHERE id=?`, entryID)
		if err := row.Scan(&postID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE scheduled_posts SET status=?, error_message=NULL WHERE id=?`,
			string(model.SchedulePublished), entryID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE posts SET status=?, platform_post_id=?, published_at=? WHERE id=?`,
			string(model.PostPublished), platformPostID, time.Now().UTC().Unix(), postID)
		return err
	})
}

// MarkEntryFailed records a failed deferred publish with its error message.
func (d *DB) MarkEntryFailed(ctx context.Context, entryID, msg string) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		var postID string
		row := tx.QueryRowContext(ctx, `SELECT post_id FROM scheduled_posts WHERE id=?`, entryID)
		if err := row.Scan(&postID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE scheduled_posts SET status=?, error_message=? WHERE id=?`,
			string(model.ScheduleFailed), msg, entryID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE posts SET status=? WHERE id=?`, string(model.PostFailed), postID)
		return err
	})
}

// DuePending returns pending entries whose scheduled time has passed.
func (d *DB) DuePending(ctx context.Context, now time.Time, limit int) ([]model.ScheduledEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return d.queryEntries(ctx,
		`WHERE s.status=? AND s.scheduled_time<=? ORDER BY s.scheduled_time LIMIT ?`,
		string(model.ScheduleScheduled), now.UTC().Unix(), limit)
}

// CalendarRange returns non-canceled entries with scheduled times inside
// [start, end], ordered by time.
func (d *DB) CalendarRange(ctx context.Context, start, end time.Time) ([]model.ScheduledEntry, error) {
	return d.queryEntries(ctx,
		`WHERE s.status!=? AND s.scheduled_time>=? AND s.scheduled_time<=? ORDER BY s.scheduled_time`,
		string(model.ScheduleCanceled), start.UTC().Unix(), end.UTC().Unix())
}

// ListUpcoming returns pending entries ordered by scheduled time.
func (d *DB) ListUpcoming(ctx context.Context, limit int) ([]model.ScheduledEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return d.queryEntries(ctx,
		`WHERE s.status=? ORDER BY s.scheduled_time LIMIT ?`,
		string(model.ScheduleScheduled), limit)
}

// Counts is the dashboard projection: totals by post status.
func (d *DB) Counts(ctx context.Context) (map[model.PostStatus]int, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT status, COUNT(*) FROM posts GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[model.PostStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.PostStatus(status)] = n
	}
	return out, rows.Err()
}

func (d *DB) queryEntries(ctx context.Context, where string, args ...any) ([]model.ScheduledEntry, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT s.id, s.post_id, s.scheduled_time, s.status, COALESCE(s.error_message, ''), s.created_at,
		       p.id, p.topic, p.content, p.platform, p.research, p.status, p.platform_post_id, p.created_at, p.published_at
		FROM scheduled_posts s JOIN posts p ON p.id = s.post_id `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ScheduledEntry
	for rows.Next() {
		var e model.ScheduledEntry
		var schedTS, createdTS int64
		var status string
		var p model.PersistedPost
		var pPlatform, pStatus string
		var pResearch, pPlatformPostID sql.NullString
		var pCreatedTS int64
		var pPublishedTS sql.NullInt64
		if err := rows.Scan(&e.ID, &e.PostID, &schedTS, &status, &e.ErrorMessage, &createdTS,
			&p.ID, &p.Topic, &p.Content, &pPlatform, &pResearch, &pStatus, &pPlatformPostID, &pCreatedTS, &pPublishedTS); err != nil {
			return nil, err
		}
		e.ScheduledTime = time.Unix(schedTS, 0).UTC()
		e.Status = model.ScheduleStatus(status)
		e.CreatedAt = time.Unix(createdTS, 0).UTC()
		p.Platform = model.Platform(pPlatform)
		p.Status = model.PostStatus(pStatus)
		if pPlatformPostID.Valid {
			p.PlatformPostID = pPlatformPostID.String
		}
		if pResearch.Valid && pResearch.String != "" {
			var rc model.ResearchCorpus
			if err := json.Unmarshal([]byte(pResearch.String), &rc); err == nil {
				p.ResearchData = &rc
			}
		}
		p.CreatedAt = time.Unix(pCreatedTS, 0).UTC()
		if pPublishedTS.Valid {
			t := time.Unix(pPublishedTS.Int64, 0).UTC()
			p.PublishedAt = &t
		}
		e.Post = &p
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanPost(row rowScanner) (model.PersistedPost, error) {
	var p model.PersistedPost
	var platform, status string
	var research, platformPostID sql.NullString
	var createdTS int64
	var publishedTS sql.NullInt64
	err := row.Scan(&p.ID, &p.Topic, &p.Content, &platform, &research, &status, &platformPostID, &createdTS, &publishedTS)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.Platform = model.Platform(platform)
	p.Status = model.PostStatus(status)
	if platformPostID.Valid {
		p.PlatformPostID = platformPostID.String
	}
	if research.Valid && research.String != "" {
		var rc model.ResearchCorpus
		if err := json.Unmarshal([]byte(research.String), &rc); err == nil {
			p.ResearchData = &rc
		}
	}
	p.CreatedAt = time.Unix(createdTS, 0).UTC()
	if publishedTS.Valid {
		t := time.Unix(publishedTS.Int64, 0).UTC()
		p.PublishedAt = &t
	}
	return p, nil
}

func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
