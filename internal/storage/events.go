package storage

import (
	"context"
	"database/sql"
	"time"

	"reach/workflowd/internal/domain"
)

func (q *Queries) InsertEvent(ctx context.Context, e domain.Event) (int64, error) {
	var userID any
	if e.UserID != nil {
		userID = *e.UserID
	}
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO events (session_id, run_id, event_type, summary, payload_text, source, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, nullableRunID(e.RunID), e.EventType, e.Summary, e.PayloadText, e.Source, userID,
		time.Now().UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func nullableRunID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

const eventColumns = `id, session_id, run_id, event_type, summary, payload_text, source, user_id, created_at`

// SearchEvents implements spec §4.1's event search: an FTS MATCH query when a
// non-empty q is given, falling back to a substring LIKE scan if the FTS
// query itself errors (missing table, tokenizer failure); with no query, the
// latest 100 events newest-first.
func (q *Queries) SearchEvents(ctx context.Context, sessionID, query string) ([]domain.Event, error) {
	if query == "" {
		rows, err := q.q.QueryContext(ctx, `
			SELECT `+eventColumns+` FROM events
			WHERE session_id = ? ORDER BY id DESC LIMIT 100`, sessionID)
		if err != nil {
			return nil, err
		}
		return scanEvents(rows)
	}

	rows, err := q.q.QueryContext(ctx, `
		SELECT e.`+eventColumns+` FROM events e
		JOIN events_fts fts ON fts.rowid = e.id
		WHERE e.session_id = ? AND events_fts MATCH ?
		ORDER BY e.id DESC`, sessionID, query)
	if err == nil {
		events, scanErr := scanEvents(rows)
		if scanErr == nil {
			return events, nil
		}
	}

	// FTS path failed operationally; fall back to a case-insensitive
	// substring scan over event_type, summary and payload_text.
	like := likePattern(query)
	rows, err = q.q.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE session_id = ? AND (
			event_type LIKE ? ESCAPE '\' OR
			summary LIKE ? ESCAPE '\' OR
			payload_text LIKE ? ESCAPE '\'
		)
		ORDER BY id DESC`, sessionID, like, like, like)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var runID sql.NullInt64
		var userID sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &e.SessionID, &runID, &e.EventType, &e.Summary, &e.PayloadText, &e.Source, &userID, &created); err != nil {
			return nil, err
		}
		if runID.Valid {
			r := runID.Int64
			e.RunID = &r
		}
		if userID.Valid {
			u := userID.String
			e.UserID = &u
		}
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
