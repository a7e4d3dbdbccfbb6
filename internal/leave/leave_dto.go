package leave

type CreateLeaveRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	LeaveType string `json:"leaveType" binding:"required,oneof=ANNUAL SICK PERSONAL UNPAID"`
	Reason    string `json:"reason" binding:"required"`
}

type DecideLeaveRequest struct {
	Comment string `json:"comment"`
}

// ListAllFilter narrows the privileged all-requests view. Empty fields match
// everything.
type ListAllFilter struct {
	Status    string
	LeaveType string
}

type LeaveResponse struct {
	LeaveID        string  `json:"leaveId"`
	UserID         string  `json:"userId"`
	LeaveType      string  `json:"leaveType"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	Days           int     `json:"days"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	ManagerID      *string `json:"managerId,omitempty"`
	ManagerComment *string `json:"managerComment,omitempty"`
	ApprovedBy     *string `json:"approvedBy,omitempty"`
	RejectedBy     *string `json:"rejectedBy,omitempty"`
	ApprovedAt     *string `json:"approvedAt,omitempty"`
	RejectedAt     *string `json:"rejectedAt,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

// PendingLeaveResponse decorates a queue item with the requester's remaining
// allowance for the current year.
type PendingLeaveResponse struct {
	LeaveResponse
	RemainingDays int `json:"remainingDays"`
}

type LeaveStatsResponse struct {
	Year             int `json:"year"`
	AnnualLeaveLimit int `json:"annualLeaveLimit"`
	UsedDays         int `json:"usedDays"`
	RemainingDays    int `json:"remainingDays"`
}
