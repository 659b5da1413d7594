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

type CreatePersonRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	Birthdate      string `json:"birthdate"` // YYYY-MM-DD
	Gender         string `json:"gender" binding:"omitempty,oneof=M F O"`
	HouseholdID    string `json:"household_id"`
	RelationToHead string `json:"relation_to_head"`
}

type UpdatePersonRequest struct {
	FullName       string `json:"full_name"`
	Birthdate      string `json:"birthdate"`
	Gender         string `json:"gender" binding:"omitempty,oneof=M F O"`
	HouseholdID    string `json:"household_id"`
	RelationToHead string `json:"relation_to_head"`
	Note           string `json:"note"`
}

type PersonResponse struct {
	ID             string  `json:"id"`
	FullName       string  `json:"full_name"`
	Birthdate      *string `json:"birthdate"`
	Gender         string  `json:"gender"`
	HouseholdID    *string `json:"household_id"`
	RelationToHead string  `json:"relation_to_head"`
	CreatedAt      string  `json:"created_at"`
}

type PersonHistoryResponse struct {
	ID              string  `json:"id"`
	Action          string  `json:"action"`
	FromHouseholdID *string `json:"from_household_id"`
	ToHouseholdID   *string `json:"to_household_id"`
	Note            string  `json:"note"`
	PerformedBy     string  `json:"performed_by"`
	PerformedAt     string  `json:"performed_at"`
}

// --- Interface ---

type PersonService interface {
	CreatePerson(ctx context.Context, req CreatePersonRequest, performedBy uuid.UUID) (*PersonResponse, error)
	GetPerson(ctx context.Context, id string) (*PersonResponse, error)
	ListPersons(ctx context.Context, page, limit int) ([]PersonResponse, int64, error)
	UpdatePerson(ctx context.Context, id string, req UpdatePersonRequest, performedBy uuid.UUID) (*PersonResponse, error)
	GetPersonHistory(ctx context.Context, id string) ([]PersonHistoryResponse, error)
}

type personService struct {
	db *gorm.DB
	tx repository.TransactionManager
}

func NewPersonService(db *gorm.DB, tx repository.TransactionManager) PersonService {
	return &personService{db: db, tx: tx}
}

// --- Implementation ---

func toPersonResponse(p model.Person) PersonResponse {
	var birthdate *string
	if p.Birthdate != nil {
		v := p.Birthdate.Format("2006-01-02")
		birthdate = &v
	}
	var householdID *string
	if p.CurrentHouseholdID != nil {
		v := p.CurrentHouseholdID.String()
		householdID = &v
	}
	return PersonResponse{
		ID:             p.ID.String(),
		FullName:       p.FullName,
		Birthdate:      birthdate,
		Gender:         p.Gender,
		HouseholdID:    householdID,
		RelationToHead: p.RelationToHead,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}

func parseBirthdate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid birthdate '%s': %w", s, err)
	}
	return &t, nil
}

func (s *personService) CreatePerson(ctx context.Context, req CreatePersonRequest, performedBy uuid.UUID) (*PersonResponse, error) {
	birthdate, err := parseBirthdate(req.Birthdate)
	if err != nil {
		return nil, err
	}

	var householdID *uuid.UUID
	if req.HouseholdID != "" {
		parsed, parseErr := uuid.Parse(req.HouseholdID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid household id: %w", parseErr)
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Household{}).
			Where("id = ?", parsed).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, errors.New("household not found")
		}
		householdID = &parsed
	}

	person := model.Person{
		FullName:           req.FullName,
		Birthdate:          birthdate,
		Gender:             req.Gender,
		CurrentHouseholdID: householdID,
		RelationToHead:     req.RelationToHead,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)
		if err := db.Create(&person).Error; err != nil {
			return fmt.Errorf("failed to create person: %w", err)
		}
		history := model.PersonHistory{
			PersonID:      person.ID,
			Action:        model.HistoryActionCreated,
			ToHouseholdID: householdID,
			PerformedBy:   performedBy,
		}
		return db.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	resp := toPersonResponse(person)
	return &resp, nil
}

func (s *personService) GetPerson(ctx context.Context, id string) (*PersonResponse, error) {
	personID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}

	var person model.Person
	if err := s.db.WithContext(ctx).First(&person, "id = ?", personID).Error; err != nil {
		return nil, errors.New("person not found")
	}

	resp := toPersonResponse(person)
	return &resp, nil
}

func (s *personService) ListPersons(ctx context.Context, page, limit int) ([]PersonResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Person{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var persons []model.Person
	offset := (page - 1) * limit
	if err := s.db.WithContext(ctx).Offset(offset).Limit(limit).
		Order("created_at ASC").Find(&persons).Error; err != nil {
		return nil, 0, err
	}

	res := make([]PersonResponse, 0, len(persons))
	for _, p := range persons {
		res = append(res, toPersonResponse(p))
	}
	return res, total, nil
}

// UpdatePerson applies field changes; a household change additionally writes
// a "moved" history row.
func (s *personService) UpdatePerson(ctx context.Context, id string, req UpdatePersonRequest, performedBy uuid.UUID) (*PersonResponse, error) {
	personID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}

	var person model.Person
	if err := s.db.WithContext(ctx).First(&person, "id = ?", personID).Error; err != nil {
		return nil, errors.New("person not found")
	}

	if req.FullName != "" {
		person.FullName = req.FullName
	}
	if req.Gender != "" {
		person.Gender = req.Gender
	}
	if req.RelationToHead != "" {
		person.RelationToHead = req.RelationToHead
	}
	if req.Birthdate != "" {
		birthdate, parseErr := parseBirthdate(req.Birthdate)
		if parseErr != nil {
			return nil, parseErr
		}
		person.Birthdate = birthdate
	}

	var moved bool
	var fromHousehold *uuid.UUID
	if req.HouseholdID != "" {
		newHousehold, parseErr := uuid.Parse(req.HouseholdID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid household id: %w", parseErr)
		}
		if person.CurrentHouseholdID == nil || *person.CurrentHouseholdID != newHousehold {
			var count int64
			if err := s.db.WithContext(ctx).Model(&model.Household{}).
				Where("id = ?", newHousehold).Count(&count).Error; err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, errors.New("household not found")
			}
			moved = true
			fromHousehold = person.CurrentHouseholdID
			person.CurrentHouseholdID = &newHousehold
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)
		if err := db.Save(&person).Error; err != nil {
			return fmt.Errorf("failed to update person: %w", err)
		}

		action := model.HistoryActionUpdated
		var toHousehold *uuid.UUID
		if moved {
			action = model.HistoryActionMoved
			toHousehold = person.CurrentHouseholdID
		}
		history := model.PersonHistory{
			PersonID:        person.ID,
			Action:          action,
			FromHouseholdID: fromHousehold,
			ToHouseholdID:   toHousehold,
			Note:            req.Note,
			PerformedBy:     performedBy,
		}
		return db.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	resp := toPersonResponse(person)
	return &resp, nil
}

func (s *personService) GetPersonHistory(ctx context.Context, id string) ([]PersonHistoryResponse, error) {
	personID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}

	var rows []model.PersonHistory
	if err := s.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("performed_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	res := make([]PersonHistoryResponse, 0, len(rows))
	for _, h := range rows {
		var from, to *string
		if h.FromHouseholdID != nil {
			v := h.FromHouseholdID.String()
			from = &v
		}
		if h.ToHouseholdID != nil {
			v := h.ToHouseholdID.String()
			to = &v
		}
		res = append(res, PersonHistoryResponse{
			ID:              h.ID.String(),
			Action:          h.Action,
			FromHouseholdID: from,
			ToHouseholdID:   to,
			Note:            h.Note,
			PerformedBy:     h.PerformedBy.String(),
			PerformedAt:     h.PerformedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}
