package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// NoteStore implements ports.NoteRepository. Every statement filters on the
// owner.
type NoteStore struct {
	db *sql.DB
}

const noteColumns = `id, owner_id, title, description, created_at, updated_at`

func (s *NoteStore) Create(ctx context.Context, n *domain.Note) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.OwnerID, n.Title, n.Description, toMillis(n.CreatedAt), toMillis(n.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *NoteStore) FindForOwner(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	n, err := scanNote(s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note: %w", err)
	}
	return n, nil
}

func (s *NoteStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE owner_id = ? ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}

func (s *NoteStore) Update(ctx context.Context, n *domain.Note) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE notes SET title = ?, description = ?, updated_at = ?
WHERE id = ? AND owner_id = ?`,
		n.Title, n.Description, toMillis(n.UpdatedAt), n.ID, n.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireOneRow(res, domain.ErrNoteNotFound)
}

func (s *NoteStore) Delete(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireOneRow(res, domain.ErrNoteNotFound)
}

func requireOneRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

func scanNote(row scanner) (*domain.Note, error) {
	var (
		n                    domain.Note
		createdAt, updatedAt int64
	)
	if err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	return &n, nil
}
