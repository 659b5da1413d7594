package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"psms/internal/model"
	"psms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateHouseholdRequest struct {
	HouseholdNumber string `json:"household_number" binding:"required"`
	Address         string `json:"address"`
}

type SplitHouseholdRequest struct {
	NewHouseholdNumber string   `json:"new_household_number" binding:"required"`
	NewAddress         string   `json:"new_address"`
	MemberIDs          []string `json:"member_ids" binding:"required,min=1"`
	NewHeadPersonID    string   `json:"new_head_person_id"`
}

type HouseholdResponse struct {
	ID              string  `json:"id"`
	HouseholdNumber string  `json:"household_number"`
	Address         string  `json:"address"`
	HeadPersonID    *string `json:"head_person_id"`
	MemberCount     int64   `json:"member_count"`
	CreatedAt       string  `json:"created_at"`
}

// --- Interface ---

type HouseholdService interface {
	CreateHousehold(ctx context.Context, req CreateHouseholdRequest) (*HouseholdResponse, error)
	GetHousehold(ctx context.Context, id string) (*HouseholdResponse, error)
	ListHouseholds(ctx context.Context, page, limit int) ([]HouseholdResponse, int64, error)
	SplitHousehold(ctx context.Context, id string, req SplitHouseholdRequest, performedBy uuid.UUID) (*HouseholdResponse, error)
}

type householdService struct {
	db *gorm.DB
	tx repository.TransactionManager
}

func NewHouseholdService(db *gorm.DB, tx repository.TransactionManager) HouseholdService {
	return &householdService{db: db, tx: tx}
}

// --- Implementation ---

func (s *householdService) toResponse(ctx context.Context, h model.Household) HouseholdResponse {
	var memberCount int64
	s.db.WithContext(ctx).Model(&model.Person{}).
		Where("current_household_id = ?", h.ID).Count(&memberCount)

	var headID *string
	if h.HeadPersonID != nil {
		v := h.HeadPersonID.String()
		headID = &v
	}

	return HouseholdResponse{
		ID:              h.ID.String(),
		HouseholdNumber: h.HouseholdNumber,
		Address:         h.Address,
		HeadPersonID:    headID,
		MemberCount:     memberCount,
		CreatedAt:       h.CreatedAt.Format(time.RFC3339),
	}
}

func (s *householdService) CreateHousehold(ctx context.Context, req CreateHouseholdRequest) (*HouseholdResponse, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Household{}).
		Where("household_number = ?", req.HouseholdNumber).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check household number: %w", err)
	}
	if count > 0 {
		return nil, errors.New("household number already exists")
	}

	h := model.Household{
		HouseholdNumber: req.HouseholdNumber,
		Address:         req.Address,
	}
	if err := s.db.WithContext(ctx).Create(&h).Error; err != nil {
		return nil, fmt.Errorf("failed to create household: %w", err)
	}

	resp := s.toResponse(ctx, h)
	return &resp, nil
}

func (s *householdService) GetHousehold(ctx context.Context, id string) (*HouseholdResponse, error) {
	householdID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid household id: %w", err)
	}

	var h model.Household
	if err := s.db.WithContext(ctx).First(&h, "id = ?", householdID).Error; err != nil {
		return nil, errors.New("household not found")
	}

	resp := s.toResponse(ctx, h)
	return &resp, nil
}

func (s *householdService) ListHouseholds(ctx context.Context, page, limit int) ([]HouseholdResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Household{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var households []model.Household
	offset := (page - 1) * limit
	if err := s.db.WithContext(ctx).Offset(offset).Limit(limit).
		Order("created_at ASC").Find(&households).Error; err != nil {
		return nil, 0, err
	}

	res := make([]HouseholdResponse, 0, len(households))
	for _, h := range households {
		res = append(res, s.toResponse(ctx, h))
	}
	return res, total, nil
}

// SplitHousehold moves the listed members of the source household into a
// freshly created one, writing a PersonHistory row per moved person. The
// whole operation runs in a single transaction — either every member moves or
// none does.
func (s *householdService) SplitHousehold(ctx context.Context, id string, req SplitHouseholdRequest, performedBy uuid.UUID) (*HouseholdResponse, error) {
	sourceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid household id: %w", err)
	}

	memberIDs, err := parseUUIDs(req.MemberIDs)
	if err != nil {
		return nil, err
	}

	var newHousehold model.Household

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		var source model.Household
		if err := db.First(&source, "id = ?", sourceID).Error; err != nil {
			return errors.New("source household not found")
		}

		var count int64
		if err := db.Model(&model.Household{}).
			Where("household_number = ?", req.NewHouseholdNumber).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.New("new household number already exists")
		}

		newHousehold = model.Household{
			HouseholdNumber: req.NewHouseholdNumber,
			Address:         req.NewAddress,
		}
		if err := db.Create(&newHousehold).Error; err != nil {
			return fmt.Errorf("failed to create new household: %w", err)
		}

		var members []model.Person
		if err := db.Where("id IN ? AND current_household_id = ?", memberIDs, sourceID).
			Find(&members).Error; err != nil {
			return err
		}
		if len(members) != len(memberIDs) {
			return errors.New("some members do not belong to the source household")
		}

		for i := range members {
			from := members[i].CurrentHouseholdID
			members[i].CurrentHouseholdID = &newHousehold.ID
			if err := db.Save(&members[i]).Error; err != nil {
				return fmt.Errorf("failed to move person: %w", err)
			}

			history := model.PersonHistory{
				PersonID:        members[i].ID,
				Action:          model.HistoryActionSplit,
				FromHouseholdID: from,
				ToHouseholdID:   &newHousehold.ID,
				Note:            fmt.Sprintf("Split from household %s", source.HouseholdNumber),
				PerformedBy:     performedBy,
			}
			if err := db.Create(&history).Error; err != nil {
				return fmt.Errorf("failed to write person history: %w", err)
			}
		}

		if req.NewHeadPersonID != "" {
			headID, parseErr := uuid.Parse(req.NewHeadPersonID)
			if parseErr != nil {
				return fmt.Errorf("invalid new head person id: %w", parseErr)
			}
			newHousehold.HeadPersonID = &headID
			if err := db.Save(&newHousehold).Error; err != nil {
				return fmt.Errorf("failed to set household head: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, newHousehold)
	return &resp, nil
}
