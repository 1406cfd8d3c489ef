package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaveflow-backend/models"
	"leaveflow-backend/rag"
	"leaveflow-backend/repository"
)

type fakeAdjudicator struct {
	decision *rag.Decision
	err      error
	gotText  string
}

func (f *fakeAdjudicator) Adjudicate(ctx context.Context, justification string) (*rag.Decision, error) {
	f.gotText = justification
	return f.decision, f.err
}

type fakeLeaveStore struct {
	created   []*models.Leave
	createErr error
	leaves    map[uuid.UUID]*models.Leave
}

func (f *fakeLeaveStore) Create(ctx context.Context, leave *models.Leave) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, leave)
	return nil
}

func (f *fakeLeaveStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Leave, error) {
	leave, ok := f.leaves[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return leave, nil
}

func (f *fakeLeaveStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Leave, error) {
	var out []models.Leave
	for _, leave := range f.leaves {
		if leave.UserID == userID {
			out = append(out, *leave)
		}
	}
	return out, nil
}

type fakeBalanceStore struct {
	balance    *models.LeaveBalance
	deductErr  error
	deductions int
}

func (f *fakeBalanceStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.LeaveBalance, error) {
	if f.balance == nil {
		return nil, repository.ErrNotFound
	}
	return f.balance, nil
}

func (f *fakeBalanceStore) Deduct(ctx context.Context, userID uuid.UUID, leaveType models.LeaveType, days int) error {
	if f.deductErr != nil {
		return f.deductErr
	}
	f.deductions++
	return nil
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Username: "testuser"}
}

func applyRequest() ApplyRequest {
	return ApplyRequest{
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DayCount:  2,
		LeaveType: models.LeaveTypeSick,
		Reason:    "hospitalized for two days",
	}
}

func TestApplyApproved(t *testing.T) {
	store := &fakeLeaveStore{}
	balances := &fakeBalanceStore{balance: &models.LeaveBalance{SickLeaves: 10}}
	svc := NewLeaveService(
		LeaveWithLeaveRepository(store),
		LeaveWithBalanceRepository(balances),
		LeaveWithAdjudicator(&fakeAdjudicator{decision: &rag.Decision{
			Verdict:     rag.VerdictApproved,
			Explanation: "Medical emergency verified.",
		}}),
	)

	leave, err := svc.Apply(context.Background(), testUser(), applyRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, leave.Status)
	require.NotNil(t, leave.Explanation)
	assert.Equal(t, "Medical emergency verified.", *leave.Explanation)
	assert.Equal(t, 1, balances.deductions)
	require.Len(t, store.created, 1)
	assert.Equal(t, leave, store.created[0])
}

func TestApplyRejectedVerdict(t *testing.T) {
	store := &fakeLeaveStore{}
	balances := &fakeBalanceStore{balance: &models.LeaveBalance{SickLeaves: 10}}
	svc := NewLeaveService(
		LeaveWithLeaveRepository(store),
		LeaveWithBalanceRepository(balances),
		LeaveWithAdjudicator(&fakeAdjudicator{decision: &rag.Decision{
			Verdict:     rag.VerdictRejected,
			Explanation: "Policy does not cover this.",
		}}),
	)

	leave, err := svc.Apply(context.Background(), testUser(), applyRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, leave.Status)
	assert.Equal(t, "Policy does not cover this.", *leave.Explanation)
	// No deduction for a rejection.
	assert.Zero(t, balances.deductions)
}

// An unparseable model verdict persists as a rejection, never an approval.
func TestApplyUnparseableVerdict(t *testing.T) {
	store := &fakeLeaveStore{}
	svc := NewLeaveService(
		LeaveWithLeaveRepository(store),
		LeaveWithBalanceRepository(&fakeBalanceStore{}),
		LeaveWithAdjudicator(&fakeAdjudicator{decision: &rag.Decision{
			Verdict:     rag.VerdictUnparseable,
			Explanation: "Output format does not match the expected format.",
		}}),
	)

	leave, err := svc.Apply(context.Background(), testUser(), applyRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, leave.Status)
	assert.Equal(t, "Output format does not match the expected format.", *leave.Explanation)
}

func TestApplyInsufficientBalance(t *testing.T) {
	store := &fakeLeaveStore{}
	balances := &fakeBalanceStore{
		balance:   &models.LeaveBalance{SickLeaves: 1},
		deductErr: repository.ErrInsufficientBalance,
	}
	svc := NewLeaveService(
		LeaveWithLeaveRepository(store),
		LeaveWithBalanceRepository(balances),
		LeaveWithAdjudicator(&fakeAdjudicator{decision: &rag.Decision{
			Verdict:     rag.VerdictApproved,
			Explanation: "Policy allows it.",
		}}),
	)

	leave, err := svc.Apply(context.Background(), testUser(), applyRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, leave.Status)
	assert.Contains(t, *leave.Explanation, "remaining sick leave balance (1 day(s))")
	assert.Contains(t, *leave.Explanation, "requested 2 day(s)")
}

func TestApplyValidation(t *testing.T) {
	svc := NewLeaveService(
		LeaveWithLeaveRepository(&fakeLeaveStore{}),
		LeaveWithAdjudicator(&fakeAdjudicator{decision: &rag.Decision{Verdict: rag.VerdictApproved}}),
	)
	user := testUser()

	req := applyRequest()
	req.DayCount = 0
	_, err := svc.Apply(context.Background(), user, req)
	assert.ErrorIs(t, err, ErrInvalidLeave)

	req = applyRequest()
	req.LeaveType = models.LeaveType("sabbatical")
	_, err = svc.Apply(context.Background(), user, req)
	assert.ErrorIs(t, err, ErrInvalidLeave)

	req = applyRequest()
	req.Reason = ""
	_, err = svc.Apply(context.Background(), user, req)
	assert.ErrorIs(t, err, ErrInvalidLeave)
}

func TestApplyAdjudicatorFailure(t *testing.T) {
	store := &fakeLeaveStore{}
	svc := NewLeaveService(
		LeaveWithLeaveRepository(store),
		LeaveWithAdjudicator(&fakeAdjudicator{err: ErrNoPolicy}),
	)

	leave, err := svc.Apply(context.Background(), testUser(), applyRequest())
	assert.Nil(t, leave)
	assert.ErrorIs(t, err, ErrNoPolicy)
	// Nothing persisted on failure.
	assert.Empty(t, store.created)
}

func TestGetEnforcesOwnership(t *testing.T) {
	owner := testUser()
	other := testUser()
	leave := &models.Leave{ID: uuid.New(), UserID: owner.ID}
	store := &fakeLeaveStore{leaves: map[uuid.UUID]*models.Leave{leave.ID: leave}}
	svc := NewLeaveService(LeaveWithLeaveRepository(store))

	got, err := svc.Get(context.Background(), owner, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, leave, got)

	_, err = svc.Get(context.Background(), other, leave.ID)
	assert.ErrorIs(t, err, ErrNotLeaveOwner)

	_, err = svc.Get(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, ErrLeaveNotFound)
}

func TestBalanceNotFound(t *testing.T) {
	svc := NewLeaveService(LeaveWithBalanceRepository(&fakeBalanceStore{}))
	_, err := svc.Balance(context.Background(), testUser())
	assert.ErrorIs(t, err, ErrBalanceNotFound)
}

func TestApplyPersistFailure(t *testing.T) {
	svc := NewLeaveService(
		LeaveWithLeaveRepository(&fakeLeaveStore{createErr: errors.New("connection reset")}),
		LeaveWithAdjudicator(&fakeAdjudicator{decision: &rag.Decision{
			Verdict:     rag.VerdictRejected,
			Explanation: "no",
		}}),
	)

	leave, err := svc.Apply(context.Background(), testUser(), applyRequest())
	assert.Nil(t, leave)
	assert.Error(t, err)
}
