package storage

import (
	"context"
	"database/sql"
	"time"

	"reach/workflowd/internal/domain"
)

// UpsertToolIfAbsent seeds a tool descriptor idempotently, grounded on the
// original daemon's ON CONFLICT(tool_name) DO NOTHING seeding.
func (q *Queries) UpsertToolIfAbsent(ctx context.Context, t domain.Tool) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO tool_registry (tool_name, permission_profile, description, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tool_name) DO NOTHING`,
		t.Name, t.PermissionProfile, t.Description, boolToInt(t.Enabled), now, now)
	return err
}

func (q *Queries) GetTool(ctx context.Context, name string) (domain.Tool, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT tool_name, permission_profile, description, enabled, created_at, updated_at
		FROM tool_registry WHERE tool_name = ?`, name)
	var t domain.Tool
	var enabled int
	var created, updated string
	err := row.Scan(&t.Name, &t.PermissionProfile, &t.Description, &enabled, &created, &updated)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Enabled = enabled != 0
	t.CreatedAt, _ = time.Parse(timeLayout, created)
	t.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return t, nil
}

func (q *Queries) ListTools(ctx context.Context) ([]domain.Tool, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT tool_name, permission_profile, description, enabled, created_at, updated_at
		FROM tool_registry ORDER BY tool_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Tool
	for rows.Next() {
		var t domain.Tool
		var enabled int
		var created, updated string
		if err := rows.Scan(&t.Name, &t.PermissionProfile, &t.Description, &enabled, &created, &updated); err != nil {
			return nil, err
		}
		t.Enabled = enabled != 0
		t.CreatedAt, _ = time.Parse(timeLayout, created)
		t.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, t)
	}
	return out, rows.Err()
}
