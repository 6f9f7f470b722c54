package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/miru/internal/db"
	"github.com/alexanderramin/miru/internal/domain"
)

// SQLiteConnectionRepo implements ConnectionRepo using a SQLite database.
type SQLiteConnectionRepo struct {
	db db.DBTX
}

func NewSQLiteConnectionRepo(conn db.DBTX) *SQLiteConnectionRepo {
	return &SQLiteConnectionRepo{db: conn}
}

const connectionColumns = `id, user_id, nickname, platform, current_stage,
	age, occupation, location, hobbies,
	frequency, response_time, communication_style, last_contact,
	expectation, concerns, attractive_points,
	created_at, updated_at`

func (r *SQLiteConnectionRepo) Create(ctx context.Context, c *domain.Connection) error {
	query := `INSERT INTO connections (` + connectionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.Nickname,
		c.Platform,
		string(c.CurrentStage),
		nullableIntToValue(c.BasicInfo.Age),
		c.BasicInfo.Occupation,
		c.BasicInfo.Location,
		encodeList(c.BasicInfo.Hobbies),
		string(c.Communication.Frequency),
		string(c.Communication.ResponseTime),
		c.Communication.Style,
		nullableTimeToString(c.Communication.LastContact, time.RFC3339),
		string(c.UserFeelings.Expectation),
		encodeList(c.UserFeelings.Concerns),
		encodeList(c.UserFeelings.AttractivePoints),
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting connection: %w", err)
	}
	return nil
}

func (r *SQLiteConnectionRepo) GetByID(ctx context.Context, userID, id string) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = ? AND user_id = ?`
	c, err := scanConnection(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("connection %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *SQLiteConnectionRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = ? ORDER BY updated_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer rows.Close()

	var conns []*domain.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connections: %w", err)
	}
	return conns, nil
}

func (r *SQLiteConnectionRepo) Update(ctx context.Context, c *domain.Connection) error {
	query := `UPDATE connections SET nickname = ?, platform = ?, current_stage = ?,
		age = ?, occupation = ?, location = ?, hobbies = ?,
		frequency = ?, response_time = ?, communication_style = ?, last_contact = ?,
		expectation = ?, concerns = ?, attractive_points = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Nickname,
		c.Platform,
		string(c.CurrentStage),
		nullableIntToValue(c.BasicInfo.Age),
		c.BasicInfo.Occupation,
		c.BasicInfo.Location,
		encodeList(c.BasicInfo.Hobbies),
		string(c.Communication.Frequency),
		string(c.Communication.ResponseTime),
		c.Communication.Style,
		nullableTimeToString(c.Communication.LastContact, time.RFC3339),
		string(c.UserFeelings.Expectation),
		encodeList(c.UserFeelings.Concerns),
		encodeList(c.UserFeelings.AttractivePoints),
		formatTime(c.UpdatedAt),
		c.ID,
		c.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating connection: %w", err)
	}
	return requireAffected(res, "connection "+c.ID)
}

func (r *SQLiteConnectionRepo) UpdateStage(ctx context.Context, userID, id string, stage domain.Stage, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE connections SET current_stage = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		string(stage), formatTime(at), id, userID)
	if err != nil {
		return fmt.Errorf("updating connection stage: %w", err)
	}
	return requireAffected(res, "connection "+id)
}

func (r *SQLiteConnectionRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	return requireAffected(res, "connection "+id)
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func scanConnection(row rowScanner) (*domain.Connection, error) {
	var c domain.Connection
	var stage, frequency, responseTime, expectation string
	var hobbies, concerns, attractive string
	var createdAt, updatedAt string
	var age sql.NullInt64
	var lastContact sql.NullString

	err := row.Scan(
		&c.ID, &c.UserID, &c.Nickname, &c.Platform, &stage,
		&age, &c.BasicInfo.Occupation, &c.BasicInfo.Location, &hobbies,
		&frequency, &responseTime, &c.Communication.Style, &lastContact,
		&expectation, &concerns, &attractive,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning connection: %w", err)
	}

	c.CurrentStage = domain.Stage(stage)
	c.BasicInfo.Age = nullableInt(age)
	c.Communication.Frequency = domain.Frequency(frequency)
	c.Communication.ResponseTime = domain.ResponseTime(responseTime)
	c.Communication.LastContact = parseNullableTime(lastContact, time.RFC3339)
	c.UserFeelings.Expectation = domain.Expectation(expectation)

	if c.BasicInfo.Hobbies, err = decodeList(hobbies, "hobbies"); err != nil {
		return nil, err
	}
	if c.UserFeelings.Concerns, err = decodeList(concerns, "concerns"); err != nil {
		return nil, err
	}
	if c.UserFeelings.AttractivePoints, err = decodeList(attractive, "attractive_points"); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &c, nil
}
