package models

import (
	"time"

	"github.com/google/uuid"
)

// LeaveType represents the category of a leave request
type LeaveType string

const (
	LeaveTypeSick   LeaveType = "sick"
	LeaveTypeCasual LeaveType = "casual"
	LeaveTypeAnnual LeaveType = "annual"
	LeaveTypeOther  LeaveType = "other"
)

// LeaveStatus represents the lifecycle state of a leave request
type LeaveStatus string

const (
	StatusPending  LeaveStatus = "Pending"
	StatusApproved LeaveStatus = "Approved"
	StatusRejected LeaveStatus = "Rejected"
)

// Leave represents a leave request and its adjudication outcome
type Leave struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Username    string      `json:"username"`
	StartDate   time.Time   `json:"leave_start_date"`
	DayCount    int         `json:"leave_day_count"`
	LeaveType   LeaveType   `json:"leave_type"`
	Reason      string      `json:"reason"`
	Status      LeaveStatus `json:"status"`
	Explanation *string     `json:"explanation,omitempty"` // Adjudication explanation from the policy model
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// LeaveBalance tracks the remaining leave counts for a user
type LeaveBalance struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	SickLeaves   int       `json:"sick_leaves"`
	CasualLeaves int       `json:"casual_leaves"`
	AnnualLeaves int       `json:"annual_leaves"`
	OtherLeaves  int       `json:"other_leaves"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Default leave allocations granted to each new user
const (
	DefaultSickLeaves   = 10
	DefaultCasualLeaves = 30
	DefaultAnnualLeaves = 14
	DefaultOtherLeaves  = 30
)

// Remaining returns the remaining count for the given leave type
func (b *LeaveBalance) Remaining(t LeaveType) int {
	switch t {
	case LeaveTypeSick:
		return b.SickLeaves
	case LeaveTypeCasual:
		return b.CasualLeaves
	case LeaveTypeAnnual:
		return b.AnnualLeaves
	case LeaveTypeOther:
		return b.OtherLeaves
	}
	return 0
}

// ValidLeaveType reports whether t is one of the supported leave types
func ValidLeaveType(t LeaveType) bool {
	switch t {
	case LeaveTypeSick, LeaveTypeCasual, LeaveTypeAnnual, LeaveTypeOther:
		return true
	}
	return false
}
