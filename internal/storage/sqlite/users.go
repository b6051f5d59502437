package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/linac-qa/backend/internal/storage/models"
)

func (c *Client) InsertUser(u *models.User) error {
	u.CreatedAt = time.Now()

	res, err := c.db.Exec(
		`INSERT INTO users (username, email, hashed_password, full_name, role, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.HashedPassword, u.FullName, u.Role, boolToInt(u.Active), u.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	u.ID, _ = res.LastInsertId()
	return nil
}

func (c *Client) UpdateUser(u *models.User) error {
	_, err := c.db.Exec(
		`UPDATE users SET username = ?, email = ?, hashed_password = ?, full_name = ?, role = ?, active = ?
		 WHERE id = ?`,
		u.Username, u.Email, u.HashedPassword, u.FullName, u.Role, boolToInt(u.Active), u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (c *Client) GetUser(id int64) (*models.User, error) {
	row := c.db.QueryRow(
		`SELECT id, username, email, hashed_password, full_name, role, active, created_at, last_login
		 FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (c *Client) GetUserByUsername(username string) (*models.User, error) {
	row := c.db.QueryRow(
		`SELECT id, username, email, hashed_password, full_name, role, active, created_at, last_login
		 FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (c *Client) ListUsers() ([]models.User, error) {
	rows, err := c.db.Query(
		`SELECT id, username, email, hashed_password, full_name, role, active, created_at, last_login
		 FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (c *Client) CountUsers() (int, error) {
	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// UserExists reports whether another user already holds the username or
// email, skipping excludeID so updates do not collide with themselves.
func (c *Client) UserExists(username, email string, excludeID int64) (bool, error) {
	var count int
	err := c.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE (username = ? OR email = ?) AND id != ?`,
		username, email, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}

func (c *Client) UpdateLastLogin(id int64, when time.Time) error {
	_, err := c.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, when.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var active int
	var createdAt int64
	var lastLogin sql.NullInt64

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.FullName, &u.Role,
		&active, &createdAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Active = active != 0
	u.CreatedAt = time.Unix(createdAt, 0)
	if lastLogin.Valid {
		t := time.Unix(lastLogin.Int64, 0)
		u.LastLogin = &t
	}
	return &u, nil
}

func scanUserRow(rows *sql.Rows) (*models.User, error) {
	var u models.User
	var active int
	var createdAt int64
	var lastLogin sql.NullInt64

	err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.FullName, &u.Role,
		&active, &createdAt, &lastLogin)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Active = active != 0
	u.CreatedAt = time.Unix(createdAt, 0)
	if lastLogin.Valid {
		t := time.Unix(lastLogin.Int64, 0)
		u.LastLogin = &t
	}
	return &u, nil
}
