package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"psms/internal/model"
	"psms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTempAbsenceRequest struct {
	PersonID string `json:"person_id" binding:"required"`
	FromDate string `json:"from_date" binding:"required"` // YYYY-MM-DD
	ToDate   string `json:"to_date" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

type CreateTempResidenceRequest struct {
	PersonID        string `json:"person_id" binding:"required"`
	FromDate        string `json:"from_date" binding:"required"`
	ToDate          string `json:"to_date" binding:"required"`
	HostHouseholdID string `json:"host_household_id" binding:"required"`
	Reason          string `json:"reason" binding:"required"`
}

type TempRequestResponse struct {
	ID              string  `json:"id"`
	PersonID        string  `json:"person_id"`
	FromDate        string  `json:"from_date"`
	ToDate          string  `json:"to_date"`
	HostHouseholdID *string `json:"host_household_id,omitempty"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	RegisteredBy    string  `json:"registered_by"`
	CreatedAt       string  `json:"created_at"`
}

// --- Interface ---

type TempService interface {
	CreateAbsence(ctx context.Context, req CreateTempAbsenceRequest, registeredBy uuid.UUID) (*TempRequestResponse, error)
	CreateResidence(ctx context.Context, req CreateTempResidenceRequest, registeredBy uuid.UUID) (*TempRequestResponse, error)
	ListAbsences(ctx context.Context, page, limit int) ([]TempRequestResponse, int64, error)
	ListResidences(ctx context.Context, page, limit int) ([]TempRequestResponse, int64, error)
	DecideAbsence(ctx context.Context, id string, approve bool, decidedBy uuid.UUID) (*TempRequestResponse, error)
	DecideResidence(ctx context.Context, id string, approve bool, decidedBy uuid.UUID) (*TempRequestResponse, error)
}

type tempService struct {
	db       *gorm.DB
	tx       repository.TransactionManager
	notifier Notifier
}

// Notifier delivers a decision notice to the registrant. The websocket hub
// satisfies it; tests may pass nil.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, title, body string) error
}

func NewTempService(db *gorm.DB, tx repository.TransactionManager, notifier Notifier) TempService {
	return &tempService{db: db, tx: tx, notifier: notifier}
}

// --- Implementation ---

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	fromDate, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from_date: %w", err)
	}
	toDate, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to_date: %w", err)
	}
	if toDate.Before(fromDate) {
		return time.Time{}, time.Time{}, errors.New("to_date must not be before from_date")
	}
	return fromDate, toDate, nil
}

func absenceToResponse(a model.TempAbsence) TempRequestResponse {
	return TempRequestResponse{
		ID:           a.ID.String(),
		PersonID:     a.PersonID.String(),
		FromDate:     a.FromDate.Format("2006-01-02"),
		ToDate:       a.ToDate.Format("2006-01-02"),
		Reason:       a.Reason,
		Status:       a.Status,
		RegisteredBy: a.RegisteredBy.String(),
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
}

func residenceToResponse(r model.TempResidence) TempRequestResponse {
	host := r.HostHouseholdID.String()
	return TempRequestResponse{
		ID:              r.ID.String(),
		PersonID:        r.PersonID.String(),
		FromDate:        r.FromDate.Format("2006-01-02"),
		ToDate:          r.ToDate.Format("2006-01-02"),
		HostHouseholdID: &host,
		Reason:          r.Reason,
		Status:          r.Status,
		RegisteredBy:    r.RegisteredBy.String(),
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
}

func (s *tempService) CreateAbsence(ctx context.Context, req CreateTempAbsenceRequest, registeredBy uuid.UUID) (*TempRequestResponse, error) {
	personID, err := uuid.Parse(req.PersonID)
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}
	fromDate, toDate, err := parseDateRange(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}

	absence := model.TempAbsence{
		PersonID:     personID,
		FromDate:     fromDate,
		ToDate:       toDate,
		Reason:       req.Reason,
		Status:       model.RequestStatusNew,
		RegisteredBy: registeredBy,
	}
	if err := s.db.WithContext(ctx).Create(&absence).Error; err != nil {
		return nil, fmt.Errorf("failed to create temp absence: %w", err)
	}

	resp := absenceToResponse(absence)
	return &resp, nil
}

func (s *tempService) CreateResidence(ctx context.Context, req CreateTempResidenceRequest, registeredBy uuid.UUID) (*TempRequestResponse, error) {
	personID, err := uuid.Parse(req.PersonID)
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}
	hostID, err := uuid.Parse(req.HostHouseholdID)
	if err != nil {
		return nil, fmt.Errorf("invalid host household id: %w", err)
	}
	fromDate, toDate, err := parseDateRange(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Household{}).
		Where("id = ?", hostID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.New("host household not found")
	}

	residence := model.TempResidence{
		PersonID:        personID,
		FromDate:        fromDate,
		ToDate:          toDate,
		HostHouseholdID: hostID,
		Reason:          req.Reason,
		Status:          model.RequestStatusNew,
		RegisteredBy:    registeredBy,
	}
	if err := s.db.WithContext(ctx).Create(&residence).Error; err != nil {
		return nil, fmt.Errorf("failed to create temp residence: %w", err)
	}

	resp := residenceToResponse(residence)
	return &resp, nil
}

func (s *tempService) ListAbsences(ctx context.Context, page, limit int) ([]TempRequestResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.TempAbsence{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.TempAbsence
	if err := s.db.WithContext(ctx).Offset((page - 1) * limit).Limit(limit).
		Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	res := make([]TempRequestResponse, 0, len(rows))
	for _, a := range rows {
		res = append(res, absenceToResponse(a))
	}
	return res, total, nil
}

func (s *tempService) ListResidences(ctx context.Context, page, limit int) ([]TempRequestResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.TempResidence{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.TempResidence
	if err := s.db.WithContext(ctx).Offset((page - 1) * limit).Limit(limit).
		Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	res := make([]TempRequestResponse, 0, len(rows))
	for _, r := range rows {
		res = append(res, residenceToResponse(r))
	}
	return res, total, nil
}

// DecideAbsence approves or rejects a pending absence request. The status
// update is conditional on the row still being "new" so two concurrent
// decisions cannot both land.
func (s *tempService) DecideAbsence(ctx context.Context, id string, approve bool, decidedBy uuid.UUID) (*TempRequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}

	newStatus := model.RequestStatusApproved
	if !approve {
		newStatus = model.RequestStatusRejected
	}

	var absence model.TempAbsence
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		res := db.Model(&model.TempAbsence{}).
			Where("id = ? AND status = ?", requestID, model.RequestStatusNew).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("request not found or already decided")
		}
		return db.First(&absence, "id = ?", requestID).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(ctx, absence.RegisteredBy, "Temporary absence "+newStatus,
		fmt.Sprintf("Your temporary absence request (%s — %s) was %s.",
			absence.FromDate.Format("2006-01-02"), absence.ToDate.Format("2006-01-02"), newStatus))

	resp := absenceToResponse(absence)
	return &resp, nil
}

func (s *tempService) DecideResidence(ctx context.Context, id string, approve bool, decidedBy uuid.UUID) (*TempRequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}

	newStatus := model.RequestStatusApproved
	if !approve {
		newStatus = model.RequestStatusRejected
	}

	var residence model.TempResidence
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		res := db.Model(&model.TempResidence{}).
			Where("id = ? AND status = ?", requestID, model.RequestStatusNew).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("request not found or already decided")
		}
		return db.First(&residence, "id = ?", requestID).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(ctx, residence.RegisteredBy, "Temporary residence "+newStatus,
		fmt.Sprintf("Your temporary residence request (%s — %s) was %s.",
			residence.FromDate.Format("2006-01-02"), residence.ToDate.Format("2006-01-02"), newStatus))

	resp := residenceToResponse(residence)
	return &resp, nil
}

func (s *tempService) notifyDecision(ctx context.Context, userID uuid.UUID, title, body string) {
	notification := model.Notification{UserID: userID, Title: title, Body: body}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		log.Println("WARNING: failed to store notification:", err)
		return
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyUser(ctx, userID, title, body)
	}
}
