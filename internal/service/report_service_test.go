package service

import (
	"context"
	"testing"

	"psms/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulationByGenderPercentages(t *testing.T) {
	f := newRegistryFixture(t)
	reports := NewReportService(f.db)
	ctx := context.Background()

	household := f.createHousehold(t, "HK-001")
	for _, p := range []struct {
		name   string
		gender string
	}{
		{"Person A", model.GenderMale},
		{"Person B", model.GenderMale},
		{"Person C", model.GenderFemale},
	} {
		_, err := f.persons.CreatePerson(ctx, CreatePersonRequest{
			FullName:    p.name,
			Gender:      p.gender,
			HouseholdID: household.ID,
		}, f.actor)
		require.NoError(t, err)
	}

	rows, err := reports.PopulationByGender(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Sorted by gender code: F before M.
	assert.Equal(t, model.GenderFemale, rows[0].Gender)
	assert.Equal(t, int64(1), rows[0].Count)
	assert.Equal(t, "33.33", rows[0].Percent)

	assert.Equal(t, model.GenderMale, rows[1].Gender)
	assert.Equal(t, int64(2), rows[1].Count)
	assert.Equal(t, "66.67", rows[1].Percent)
}

func TestPopulationByGenderEmptyRegistry(t *testing.T) {
	f := newRegistryFixture(t)
	reports := NewReportService(f.db)

	rows, err := reports.PopulationByGender(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestComplaintsByStatus(t *testing.T) {
	f := newRegistryFixture(t)
	reports := NewReportService(f.db)
	complaints := NewComplaintService(f.db, f.tx, nil)
	ctx := context.Background()

	household := f.createHousehold(t, "HK-001")
	person := f.createPerson(t, "Nguyen Van A", household.ID)

	first, err := complaints.CreateComplaint(ctx, CreateComplaintRequest{
		ReporterPersonID: person.ID,
		Content:          "Noise at night",
		Category:         "noise",
	}, f.actor)
	require.NoError(t, err)
	_, err = complaints.CreateComplaint(ctx, CreateComplaintRequest{
		ReporterPersonID: person.ID,
		Content:          "Garbage not collected",
		Category:         "sanitation",
	}, f.actor)
	require.NoError(t, err)

	_, err = complaints.UpdateStatus(ctx, first.ID, UpdateComplaintStatusRequest{
		Status: model.ComplaintStatusResolved,
	}, f.actor)
	require.NoError(t, err)

	rows, err := reports.ComplaintsByStatus(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byStatus := map[string]int64{}
	for _, r := range rows {
		byStatus[r.Status] = r.Count
	}
	assert.Equal(t, int64(1), byStatus[model.ComplaintStatusNew])
	assert.Equal(t, int64(1), byStatus[model.ComplaintStatusResolved])
}
