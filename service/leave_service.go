package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"leaveflow-backend/models"
	"leaveflow-backend/rag"
	"leaveflow-backend/repository"

	"github.com/google/uuid"
)

var (
	ErrLeaveNotFound   = errors.New("leave request not found")
	ErrInvalidLeave    = errors.New("invalid leave request")
	ErrNotLeaveOwner   = errors.New("leave request belongs to another user")
	ErrBalanceNotFound = errors.New("leave balance not found")
)

const insufficientBalanceExplanation = "The request satisfies company policy, but the remaining %s leave balance (%d day(s)) does not cover the requested %d day(s)."

// Adjudicator decides a leave justification against company policy
type Adjudicator interface {
	Adjudicate(ctx context.Context, justification string) (*rag.Decision, error)
}

// LeaveStore persists leave requests
type LeaveStore interface {
	Create(ctx context.Context, leave *models.Leave) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Leave, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Leave, error)
}

// BalanceStore tracks per-user remaining leave days
type BalanceStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.LeaveBalance, error)
	Deduct(ctx context.Context, userID uuid.UUID, leaveType models.LeaveType, days int) error
}

// LeaveService handles the leave request workflow: adjudicate the free-text
// reason against policy, persist the verdict, and keep balances current
type LeaveService struct {
	leaveRepo   LeaveStore
	balanceRepo BalanceStore
	adjudicator Adjudicator
}

// LeaveServiceOption is a functional option for LeaveService
type LeaveServiceOption func(*LeaveService)

// LeaveWithLeaveRepository sets the leave repository
func LeaveWithLeaveRepository(repo LeaveStore) LeaveServiceOption {
	return func(s *LeaveService) {
		s.leaveRepo = repo
	}
}

// LeaveWithBalanceRepository sets the leave balance repository
func LeaveWithBalanceRepository(repo BalanceStore) LeaveServiceOption {
	return func(s *LeaveService) {
		s.balanceRepo = repo
	}
}

// LeaveWithAdjudicator sets the policy adjudicator
func LeaveWithAdjudicator(a Adjudicator) LeaveServiceOption {
	return func(s *LeaveService) {
		s.adjudicator = a
	}
}

// NewLeaveService creates a new leave service
func NewLeaveService(opts ...LeaveServiceOption) *LeaveService {
	s := &LeaveService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyRequest represents a leave application
type ApplyRequest struct {
	StartDate time.Time
	DayCount  int
	LeaveType models.LeaveType
	Reason    string
}

// Apply adjudicates and persists a leave request. The verdict maps onto the
// leave status fail-closed: only an explicit approval that the balance can
// cover becomes Approved; unparseable model output and insufficient balance
// both resolve to Rejected. The explanation is stored verbatim so the
// requester always sees why.
func (s *LeaveService) Apply(ctx context.Context, user *models.User, req ApplyRequest) (*models.Leave, error) {
	if s.leaveRepo == nil {
		return nil, errors.New("leave repository not set")
	}
	if s.adjudicator == nil {
		return nil, errors.New("adjudicator not set")
	}

	if req.DayCount < 1 {
		return nil, fmt.Errorf("%w: day count must be at least 1", ErrInvalidLeave)
	}
	if !models.ValidLeaveType(req.LeaveType) {
		return nil, fmt.Errorf("%w: unknown leave type %q", ErrInvalidLeave, req.LeaveType)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidLeave)
	}

	decision, err := s.adjudicator.Adjudicate(ctx, req.Reason)
	if err != nil {
		return nil, err
	}

	status := models.StatusRejected
	explanation := decision.Explanation

	if decision.Verdict == rag.VerdictApproved {
		status = models.StatusApproved

		if s.balanceRepo != nil {
			err := s.balanceRepo.Deduct(ctx, user.ID, req.LeaveType, req.DayCount)
			if errors.Is(err, repository.ErrInsufficientBalance) {
				status = models.StatusRejected
				remaining := 0
				if balance, berr := s.balanceRepo.GetByUserID(ctx, user.ID); berr == nil {
					remaining = balance.Remaining(req.LeaveType)
				}
				explanation = fmt.Sprintf(insufficientBalanceExplanation, req.LeaveType, remaining, req.DayCount)
			} else if err != nil {
				return nil, fmt.Errorf("failed to deduct leave balance: %w", err)
			}
		}
	}

	leave := &models.Leave{
		UserID:      user.ID,
		Username:    user.Username,
		StartDate:   req.StartDate,
		DayCount:    req.DayCount,
		LeaveType:   req.LeaveType,
		Reason:      req.Reason,
		Status:      status,
		Explanation: &explanation,
	}

	if err := s.leaveRepo.Create(ctx, leave); err != nil {
		// The balance deduction has already happened for approvals; losing
		// the leave row here is an operator problem, not a silent one.
		log.Printf("Error: failed to persist leave for user %s: %v", user.Username, err)
		return nil, fmt.Errorf("failed to create leave request: %w", err)
	}

	return leave, nil
}

// Get retrieves one leave request, enforcing ownership
func (s *LeaveService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Leave, error) {
	if s.leaveRepo == nil {
		return nil, errors.New("leave repository not set")
	}

	leave, err := s.leaveRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}
	if leave.UserID != user.ID {
		return nil, ErrNotLeaveOwner
	}

	return leave, nil
}

// List retrieves all leave requests of the user, most recent first
func (s *LeaveService) List(ctx context.Context, user *models.User) ([]models.Leave, error) {
	if s.leaveRepo == nil {
		return nil, errors.New("leave repository not set")
	}
	return s.leaveRepo.ListByUser(ctx, user.ID)
}

// Balance retrieves the user's remaining leave counts
func (s *LeaveService) Balance(ctx context.Context, user *models.User) (*models.LeaveBalance, error) {
	if s.balanceRepo == nil {
		return nil, errors.New("balance repository not set")
	}

	balance, err := s.balanceRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}

	return balance, nil
}
