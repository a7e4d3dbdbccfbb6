package leave

import "time"

// LeaveRequest is keyed by the human-readable LV_NNN identifier. ManagerID is
// a snapshot of the requester's manager at creation time; authorization on
// approve/reject re-resolves the live relation instead of trusting it.
type LeaveRequest struct {
	LeaveID string `gorm:"type:varchar(20);primaryKey"`
	UserID  string `gorm:"type:varchar(20);not null;index:idx_leave_requests_user"`

	LeaveType string    `gorm:"type:varchar(20);not null;default:'ANNUAL'"`
	StartDate time.Time `gorm:"type:date;not null;index:idx_leave_requests_user_start"`
	EndDate   time.Time `gorm:"type:date;not null"`
	Days      int       `gorm:"type:int;not null;default:1"`
	Reason    string    `gorm:"type:text;not null"`

	Status         string  `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status"`
	ManagerID      *string `gorm:"type:varchar(20);index:idx_leave_requests_manager"`
	ManagerComment *string `gorm:"type:text"`
	ApprovedBy     *string `gorm:"type:varchar(20)"`
	RejectedBy     *string `gorm:"type:varchar(20)"`

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	RejectedAt *time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}
