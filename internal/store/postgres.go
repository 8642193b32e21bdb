package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
)

// Directory implements UserDirectory on the PostgreSQL users table.
type Directory struct {
	db *sql.DB
}

func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

const userColumns = `id, company_id, username, display_name, role, is_active, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var rawRole string
	if err := row.Scan(&u.ID, &u.TenantID, &u.Username, &u.DisplayName, &rawRole, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	u.Role = role
	return &u, nil
}

func (d *Directory) User(ctx context.Context, tenantID, userID string) (*models.User, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}
	tid, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}

	row := d.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND company_id = $2 AND is_active = TRUE
	`, uid, tid)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

func (d *Directory) ActiveEmployees(ctx context.Context, tenantID string, ids []string) ([]models.User, error) {
	tid, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, apperr.NotFound("company not found")
	}

	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		uid, err := uuid.Parse(id)
		if err != nil {
			// Malformed ids can never resolve; skip so the caller's
			// all-or-nothing size check fails.
			continue
		}
		parsed = append(parsed, uid)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE company_id = $1 AND role = 'employee' AND is_active = TRUE AND id = ANY($2)
	`, tid, pq.Array(parsed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (d *Directory) TenantUsers(ctx context.Context, tenantID string, employeesOnly bool) ([]models.User, error) {
	tid, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, apperr.NotFound("company not found")
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE company_id = $1 AND is_active = TRUE`
	if employeesOnly {
		query += ` AND role = 'employee'`
	}
	query += ` ORDER BY username ASC`

	rows, err := d.db.QueryContext(ctx, query, tid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
