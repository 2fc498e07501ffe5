package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/johncui/vega/pkg/model"
)

// EmbeddedFact pairs a stored fact with its embedding.
type EmbeddedFact struct {
	Fact      model.Fact
	Embedding []float64
}

// InsertFact writes a fact row unless one with the same id exists.
// It reports whether a new row was created.
func (d *Database) InsertFact(ctx context.Context, f model.Fact, embedding []float64) (bool, error) {
	if f.ID == "" || f.Text == "" {
		return false, fmt.Errorf("fact id and text are required")
	}
	var emb sql.NullString
	if len(embedding) > 0 {
		b, err := json.Marshal(embedding)
		if err != nil {
			return false, err
		}
		emb = sql.NullString{String: string(b), Valid: true}
	}

	res, err := d.db.ExecContext(ctx, `
        INSERT INTO facts(id, text, embedding, created_at)
        VALUES(?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(id) DO NOTHING;
    `, f.ID, f.Text, emb)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetFact loads a fact by id. ok is false when it does not exist.
func (d *Database) GetFact(ctx context.Context, id string) (f model.Fact, ok bool, err error) {
	err = d.db.QueryRowContext(ctx, `SELECT id, text, created_at FROM facts WHERE id = ?`, id).
		Scan(&f.ID, &f.Text, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Fact{}, false, nil
	}
	if err != nil {
		return model.Fact{}, false, err
	}
	return f, true, nil
}

// FetchFacts retrieves facts by ids in the order the ids were given.
func (d *Database) FetchFacts(ctx context.Context, ids []string) ([]model.Fact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, text, created_at FROM facts WHERE id IN (` + placeholders(len(ids)) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]model.Fact, len(ids))
	for rows.Next() {
		var f model.Fact
		if err := rows.Scan(&f.ID, &f.Text, &f.CreatedAt); err != nil {
			return nil, err
		}
		byID[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Fact, 0, len(byID))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// EmbeddedFacts returns every fact that has a stored embedding.
func (d *Database) EmbeddedFacts(ctx context.Context) ([]EmbeddedFact, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, text, created_at, embedding
        FROM facts
        WHERE embedding IS NOT NULL
        ORDER BY created_at ASC;
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmbeddedFact
	for rows.Next() {
		var e EmbeddedFact
		var raw string
		if err := rows.Scan(&e.Fact.ID, &e.Fact.Text, &e.Fact.CreatedAt, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &e.Embedding); err != nil {
			d.logger.Warn("skipping fact with unreadable embedding", "id", e.Fact.ID, "err", err)
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentFacts fetches the latest facts limited by n.
func (d *Database) RecentFacts(ctx context.Context, limit int) ([]model.Fact, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, text, created_at
        FROM facts
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?;
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Fact
	for rows.Next() {
		var f model.Fact
		if err := rows.Scan(&f.ID, &f.Text, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountFacts returns the number of stored facts.
func (d *Database) CountFacts(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts;`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteFact removes a fact by id. Administrative use only. With vss enabled
// the fact's index rows go too; vss_payload cascades but vss_facts does not.
func (d *Database) DeleteFact(ctx context.Context, id string) (bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if d.enableVSS {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vss_facts WHERE rowid IN (SELECT rowid FROM vss_payload WHERE fact_id = ?)`, id); err != nil {
			return false, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM facts WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, '?')
		if i != n-1 {
			out = append(out, ',')
		}
	}
	return string(out)
}
