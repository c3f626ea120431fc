package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/printshop-manager/internal/models"
	"gorm.io/gorm"
)

// GormTable is a GORM implementation of Table. Each sheet maps to one SQL table.
type GormTable[T any] struct {
	db      *gorm.DB
	orderBy string
}

// NewGormTable creates a Table ordered by the given column
func NewGormTable[T any](db *gorm.DB, orderBy string) *GormTable[T] {
	return &GormTable[T]{db: db, orderBy: orderBy}
}

// NewGormStore creates a Store backed by SQL tables
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:  NewGormTable[models.User](db, models.UserSheet.OrderBy),
		Orders: NewGormTable[models.Order](db, models.OrderSheet.OrderBy),
		Tasks:  NewGormTable[models.Task](db, models.TaskSheet.OrderBy),
	}
}

// List returns all rows in append order
func (t *GormTable[T]) List(ctx context.Context) ([]T, error) {
	rows := []T{}
	query := t.db.WithContext(ctx)
	if t.orderBy != "" {
		query = query.Order(t.orderBy + " ASC")
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Append inserts a row
func (t *GormTable[T]) Append(ctx context.Context, row *T) error {
	return t.db.WithContext(ctx).Create(row).Error
}

// Replace overwrites every column of the row matching id
func (t *GormTable[T]) Replace(ctx context.Context, id string, row *T) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", ErrRowNotFound, id)
		}

		// Select("*") writes zero values too, so the update is a full-row replace.
		return tx.Model(new(T)).Where("id = ?", id).
			Select("*").
			Omit("id", "row_created_at").
			Updates(row).Error
	})
}

// Delete removes the row matching id
func (t *GormTable[T]) Delete(ctx context.Context, id string) error {
	result := t.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	return nil
}
