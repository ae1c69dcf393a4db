package storage

import (
	"context"

	"gorm.io/gorm"

	"p9e.in/idfsurvey/models"
)

// RowSink appends exactly one submission row to the survey register. The
// append is treated as atomic; durability is the store's problem.
type RowSink interface {
	Append(ctx context.Context, sub *models.Submission) error
}

// PostgresSink appends submissions to the submissions table.
type PostgresSink struct {
	DB *gorm.DB
}

func NewPostgresSink(db *gorm.DB) *PostgresSink {
	return &PostgresSink{DB: db}
}

func (s *PostgresSink) Append(ctx context.Context, sub *models.Submission) error {
	return s.DB.WithContext(ctx).Create(sub).Error
}
