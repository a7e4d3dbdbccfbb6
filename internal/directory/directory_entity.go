package directory

import "time"

// Employee mirrors the identity directory's employee table. The directory is
// owned by the identity service; this module only reads it to resolve roles
// and the manager hierarchy.
type Employee struct {
	ID        string  `gorm:"type:varchar(20);primaryKey"`
	FullName  string  `gorm:"type:varchar(120);not null"`
	Email     string  `gorm:"type:varchar(120);not null;uniqueIndex:uq_employees_email"`
	Role      string  `gorm:"type:varchar(20);not null;default:'employee'"`
	ManagerID *string `gorm:"type:varchar(20);index:idx_employees_manager"`
	IsActive  bool    `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Employee) TableName() string {
	return "employees"
}
