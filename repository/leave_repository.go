package repository

import (
	"context"
	"errors"
	"fmt"

	"leaveflow-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaveRepository handles database operations for leave requests
type LeaveRepository struct {
	db *pgxpool.Pool
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *pgxpool.Pool) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create creates a new leave request
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	query := `
		INSERT INTO leaves (
			user_id, username, leave_start_date, leave_day_count,
			leave_type, reason, status, explanation
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		leave.UserID,
		leave.Username,
		leave.StartDate,
		leave.DayCount,
		leave.LeaveType,
		leave.Reason,
		leave.Status,
		leave.Explanation,
	).Scan(&leave.ID, &leave.CreatedAt, &leave.UpdatedAt)
}

// GetByID retrieves a leave request by ID
func (r *LeaveRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Leave, error) {
	leave := &models.Leave{}
	query := `
		SELECT id, user_id, username, leave_start_date, leave_day_count,
			leave_type, reason, status, explanation, created_at, updated_at
		FROM leaves
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&leave.ID,
		&leave.UserID,
		&leave.Username,
		&leave.StartDate,
		&leave.DayCount,
		&leave.LeaveType,
		&leave.Reason,
		&leave.Status,
		&leave.Explanation,
		&leave.CreatedAt,
		&leave.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return leave, nil
}

// ListByUser retrieves all leave requests of a user, most recent first
func (r *LeaveRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Leave, error) {
	query := `
		SELECT id, user_id, username, leave_start_date, leave_day_count,
			leave_type, reason, status, explanation, created_at, updated_at
		FROM leaves
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}
	defer rows.Close()

	var leaves []models.Leave
	for rows.Next() {
		var leave models.Leave
		err := rows.Scan(
			&leave.ID,
			&leave.UserID,
			&leave.Username,
			&leave.StartDate,
			&leave.DayCount,
			&leave.LeaveType,
			&leave.Reason,
			&leave.Status,
			&leave.Explanation,
			&leave.CreatedAt,
			&leave.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave: %w", err)
		}
		leaves = append(leaves, leave)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaves: %w", err)
	}

	return leaves, nil
}
