package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"psms/internal/model"
	"psms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateComplaintRequest struct {
	ReporterPersonID string `json:"reporter_person_id" binding:"required"`
	Content          string `json:"content" binding:"required"`
	Category         string `json:"category" binding:"required"`
}

type UpdateComplaintStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new pending resolved"`
}

type ComplaintResponse struct {
	ID               string `json:"id"`
	ReporterPersonID string `json:"reporter_person_id"`
	Content          string `json:"content"`
	Category         string `json:"category"`
	Status           string `json:"status"`
	DuplicateCount   int    `json:"duplicate_count"`
	CreatedBy        string `json:"created_by"`
	CreatedAt        string `json:"created_at"`
	Merged           bool   `json:"merged,omitempty"` // true when the submission was folded into an existing complaint
}

// --- Interface ---

type ComplaintService interface {
	CreateComplaint(ctx context.Context, req CreateComplaintRequest, createdBy uuid.UUID) (*ComplaintResponse, error)
	ListComplaints(ctx context.Context, page, limit int) ([]ComplaintResponse, int64, error)
	UpdateStatus(ctx context.Context, id string, req UpdateComplaintStatusRequest, updatedBy uuid.UUID) (*ComplaintResponse, error)
}

type complaintService struct {
	db       *gorm.DB
	tx       repository.TransactionManager
	notifier Notifier
}

func NewComplaintService(db *gorm.DB, tx repository.TransactionManager, notifier Notifier) ComplaintService {
	return &complaintService{db: db, tx: tx, notifier: notifier}
}

// --- Implementation ---

func toComplaintResponse(c model.Complaint, merged bool) ComplaintResponse {
	return ComplaintResponse{
		ID:               c.ID.String(),
		ReporterPersonID: c.ReporterPersonID.String(),
		Content:          c.Content,
		Category:         c.Category,
		Status:           c.Status,
		DuplicateCount:   c.DuplicateCount,
		CreatedBy:        c.CreatedBy.String(),
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
		Merged:           merged,
	}
}

// CreateComplaint files a complaint. A submission whose normalized content
// matches an existing complaint in the same category is merged into it:
// duplicate_count is bumped and a ComplaintReport row links the new reporter,
// but no second complaint row appears.
func (s *complaintService) CreateComplaint(ctx context.Context, req CreateComplaintRequest, createdBy uuid.UUID) (*ComplaintResponse, error) {
	reporterID, err := uuid.Parse(req.ReporterPersonID)
	if err != nil {
		return nil, fmt.Errorf("invalid reporter person id: %w", err)
	}

	normalized := strings.ToLower(strings.TrimSpace(req.Content))

	var complaint model.Complaint
	var merged bool

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		findErr := db.Where("LOWER(content) = ? AND category = ?", normalized, req.Category).First(&complaint).Error
		switch {
		case findErr == nil:
			merged = true
			res := db.Model(&model.Complaint{}).
				Where("id = ?", complaint.ID).
				Update("duplicate_count", gorm.Expr("duplicate_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			complaint.DuplicateCount++
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			complaint = model.Complaint{
				ReporterPersonID: reporterID,
				Content:          req.Content,
				Category:         req.Category,
				Status:           model.ComplaintStatusNew,
				CreatedBy:        createdBy,
				DuplicateCount:   1,
			}
			if err := db.Create(&complaint).Error; err != nil {
				return fmt.Errorf("failed to create complaint: %w", err)
			}
		default:
			return findErr
		}

		report := model.ComplaintReport{
			ComplaintID:      complaint.ID,
			ReporterPersonID: reporterID,
		}
		return db.Create(&report).Error
	})
	if err != nil {
		return nil, err
	}

	resp := toComplaintResponse(complaint, merged)
	return &resp, nil
}

func (s *complaintService) ListComplaints(ctx context.Context, page, limit int) ([]ComplaintResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Complaint{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var complaints []model.Complaint
	if err := s.db.WithContext(ctx).Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").Find(&complaints).Error; err != nil {
		return nil, 0, err
	}

	res := make([]ComplaintResponse, 0, len(complaints))
	for _, c := range complaints {
		res = append(res, toComplaintResponse(c, false))
	}
	return res, total, nil
}

// UpdateStatus transitions the complaint and notifies its creator.
func (s *complaintService) UpdateStatus(ctx context.Context, id string, req UpdateComplaintStatusRequest, updatedBy uuid.UUID) (*ComplaintResponse, error) {
	complaintID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid complaint id: %w", err)
	}

	var complaint model.Complaint
	if err := s.db.WithContext(ctx).First(&complaint, "id = ?", complaintID).Error; err != nil {
		return nil, errors.New("complaint not found")
	}

	complaint.Status = req.Status
	if err := s.db.WithContext(ctx).Save(&complaint).Error; err != nil {
		return nil, fmt.Errorf("failed to update complaint: %w", err)
	}

	s.notifyCreator(ctx, complaint)

	resp := toComplaintResponse(complaint, false)
	return &resp, nil
}

func (s *complaintService) notifyCreator(ctx context.Context, c model.Complaint) {
	title := "Complaint status updated"
	body := fmt.Sprintf("Your complaint in category '%s' is now '%s'.", c.Category, c.Status)

	notification := model.Notification{UserID: c.CreatedBy, Title: title, Body: body}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		log.Println("WARNING: failed to store notification:", err)
		return
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyUser(ctx, c.CreatedBy, title, body)
	}
}
