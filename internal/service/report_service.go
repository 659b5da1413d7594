package service

import (
	"context"

	"psms/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PopulationByGenderRow is one bucket of the population report. Share is an
// exact percentage computed with decimal arithmetic, rounded to two places.
type PopulationByGenderRow struct {
	Gender  string `json:"gender"`
	Count   int64  `json:"count"`
	Percent string `json:"percent"`
}

type ComplaintsByStatusRow struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type ReportService interface {
	PopulationByGender(ctx context.Context) ([]PopulationByGenderRow, error)
	ComplaintsByStatus(ctx context.Context) ([]ComplaintsByStatusRow, error)
}

type reportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db}
}

func (s *reportService) PopulationByGender(ctx context.Context) ([]PopulationByGenderRow, error) {
	var buckets []struct {
		Gender string
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&model.Person{}).
		Select("gender, COUNT(*) as count").
		Group("gender").
		Order("gender ASC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	var total int64
	for _, b := range buckets {
		total += b.Count
	}

	hundred := decimal.NewFromInt(100)
	rows := make([]PopulationByGenderRow, 0, len(buckets))
	for _, b := range buckets {
		percent := decimal.Zero
		if total > 0 {
			percent = decimal.NewFromInt(b.Count).Mul(hundred).
				DivRound(decimal.NewFromInt(total), 2)
		}
		rows = append(rows, PopulationByGenderRow{
			Gender:  b.Gender,
			Count:   b.Count,
			Percent: percent.StringFixed(2),
		})
	}
	return rows, nil
}

func (s *reportService) ComplaintsByStatus(ctx context.Context) ([]ComplaintsByStatusRow, error) {
	var rows []ComplaintsByStatusRow
	err := s.db.WithContext(ctx).Model(&model.Complaint{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
