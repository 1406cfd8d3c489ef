package handlers

import (
	"errors"
	"net/http"
	"time"

	"leaveflow-backend/middleware"
	"leaveflow-backend/models"
	"leaveflow-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LeaveHandler handles HTTP requests for leave requests and balances
type LeaveHandler struct {
	leaveService *service.LeaveService
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(leaveService *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveService: leaveService}
}

// ApplyLeaveRequest represents the request body for applying for leave
type ApplyLeaveRequest struct {
	StartDate string `json:"leave_start_date" binding:"required"`
	DayCount  int    `json:"leave_day_count" binding:"required,min=1"`
	LeaveType string `json:"leave_type" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// Apply handles POST /api/leaves
func (h *LeaveHandler) Apply(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Not authenticated",
			},
		})
		return
	}

	var req ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_START_DATE",
				"message": "leave_start_date must be formatted as YYYY-MM-DD",
			},
		})
		return
	}

	leave, err := h.leaveService.Apply(c.Request.Context(), user, service.ApplyRequest{
		StartDate: startDate,
		DayCount:  req.DayCount,
		LeaveType: models.LeaveType(req.LeaveType),
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeApplyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    leave,
	})
}

// writeApplyError maps adjudication pipeline errors onto HTTP responses.
// Typed errors pass through with distinct codes; none of them ever turn
// into an approved leave.
func (h *LeaveHandler) writeApplyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidLeave):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_LEAVE",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrNoPolicy):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_POLICY",
				"message": "No policy document has been ingested; leave requests cannot be adjudicated",
			},
		})
	case errors.Is(err, service.ErrEmbeddingService):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EMBEDDING_FAILED",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrModelInvocation):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MODEL_FAILED",
				"message": err.Error(),
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "APPLY_FAILED",
				"message": err.Error(),
			},
		})
	}
}

// List handles GET /api/leaves
func (h *LeaveHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Not authenticated",
			},
		})
		return
	}

	leaves, err := h.leaveService.List(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    leaves,
	})
}

// Get handles GET /api/leaves/:id
func (h *LeaveHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Not authenticated",
			},
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid leave ID format",
			},
		})
		return
	}

	leave, err := h.leaveService.Get(c.Request.Context(), user, id)
	if err != nil {
		if errors.Is(err, service.ErrLeaveNotFound) || errors.Is(err, service.ErrNotLeaveOwner) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Leave request not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    leave,
	})
}

// Balance handles GET /api/balance
func (h *LeaveHandler) Balance(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Not authenticated",
			},
		})
		return
	}

	balance, err := h.leaveService.Balance(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, service.ErrBalanceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Leave balance not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    balance,
	})
}
