package repository

import (
	"context"

	"stockpilot/internal/model"

	"gorm.io/gorm"
)

type CounterRepository interface {
	Increment(ctx context.Context, name string) (int64, error)
	Current(ctx context.Context, name string) (int64, error)
}

type counterRepo struct {
	db *gorm.DB
}

func NewCounterRepo(db *gorm.DB) CounterRepository {
	return &counterRepo{db}
}

// upsert and increment in one statement; the row is created at 0 and bumped to 1
const incrementCounterSQL = `INSERT INTO counters (id, sequence_value) VALUES (?, 1)
ON CONFLICT (id) DO UPDATE SET sequence_value = counters.sequence_value + 1
RETURNING sequence_value`

func (r *counterRepo) Increment(ctx context.Context, name string) (int64, error) {
	var value int64
	if err := r.db.WithContext(ctx).Raw(incrementCounterSQL, name).Scan(&value).Error; err != nil {
		return 0, err
	}
	return value, nil
}

// Current returns 0 for a counter that was never incremented
func (r *counterRepo) Current(ctx context.Context, name string) (int64, error) {
	var counter model.Counter
	err := r.db.WithContext(ctx).Where("id = ?", name).Limit(1).Find(&counter).Error
	return counter.SequenceValue, err
}
