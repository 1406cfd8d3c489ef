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

// ErrInsufficientBalance is returned when a deduction would drive a leave
// count negative
var ErrInsufficientBalance = errors.New("insufficient leave balance")

// LeaveBalanceRepository handles database operations for leave balances
type LeaveBalanceRepository struct {
	db *pgxpool.Pool
}

// NewLeaveBalanceRepository creates a new leave balance repository
func NewLeaveBalanceRepository(db *pgxpool.Pool) *LeaveBalanceRepository {
	return &LeaveBalanceRepository{db: db}
}

// CreateDefault provisions the default allocation for a new user
func (r *LeaveBalanceRepository) CreateDefault(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO leave_balances (user_id, sick_leaves, casual_leaves, annual_leaves, other_leaves)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, userID,
		models.DefaultSickLeaves,
		models.DefaultCasualLeaves,
		models.DefaultAnnualLeaves,
		models.DefaultOtherLeaves,
	)
	return err
}

// GetByUserID retrieves the balance row for a user
func (r *LeaveBalanceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.LeaveBalance, error) {
	balance := &models.LeaveBalance{}
	query := `
		SELECT id, user_id, sick_leaves, casual_leaves, annual_leaves, other_leaves, updated_at
		FROM leave_balances
		WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&balance.ID,
		&balance.UserID,
		&balance.SickLeaves,
		&balance.CasualLeaves,
		&balance.AnnualLeaves,
		&balance.OtherLeaves,
		&balance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return balance, nil
}

// Deduct subtracts days from the given leave type, guarding against
// overdraft in the same statement. Returns ErrInsufficientBalance if the
// remaining count is too low.
func (r *LeaveBalanceRepository) Deduct(ctx context.Context, userID uuid.UUID, leaveType models.LeaveType, days int) error {
	column, err := balanceColumn(leaveType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE leave_balances
		SET %s = %s - $2, updated_at = NOW()
		WHERE user_id = $1 AND %s >= $2`, column, column, column)

	tag, err := r.db.Exec(ctx, query, userID, days)
	if err != nil {
		return fmt.Errorf("failed to deduct leave balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}

	return nil
}

// balanceColumn maps a leave type to its column. The allow-list keeps the
// fmt.Sprintf above out of reach of user input.
func balanceColumn(t models.LeaveType) (string, error) {
	switch t {
	case models.LeaveTypeSick:
		return "sick_leaves", nil
	case models.LeaveTypeCasual:
		return "casual_leaves", nil
	case models.LeaveTypeAnnual:
		return "annual_leaves", nil
	case models.LeaveTypeOther:
		return "other_leaves", nil
	}
	return "", fmt.Errorf("unknown leave type: %s", t)
}
