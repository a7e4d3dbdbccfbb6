package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

//go:generate mockgen -source=directory_repo.go -destination=mock/directory_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, id string) (*Employee, error)
	// ManagerOf returns the employee's current manager id, or nil when no
	// manager is assigned or the employee is unknown. Callers re-read this on
	// every authorization check; it is never cached.
	ManagerOf(ctx context.Context, employeeID string) (*string, error)
	// DirectReportIDs returns the ids of every active employee whose
	// manager-of-record is managerID. No reports yields an empty slice.
	DirectReportIDs(ctx context.Context, managerID string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) ManagerOf(ctx context.Context, employeeID string) (*string, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		Select("manager_id").
		Where("is_active = ?", true).
		First(&e, "id = ?", employeeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e.ManagerID, nil
}

func (r *repository) DirectReportIDs(ctx context.Context, managerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("manager_id = ?", managerID).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}
