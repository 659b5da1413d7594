package service

import (
	"context"
	"testing"

	"psms/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAbsenceValidatesDateRange(t *testing.T) {
	f := newRegistryFixture(t)
	temps := NewTempService(f.db, f.tx, nil)
	ctx := context.Background()

	household := f.createHousehold(t, "HK-001")
	person := f.createPerson(t, "Nguyen Van A", household.ID)

	_, err := temps.CreateAbsence(ctx, CreateTempAbsenceRequest{
		PersonID: person.ID,
		FromDate: "2026-09-10",
		ToDate:   "2026-09-01",
		Reason:   "work trip",
	}, f.actor)
	assert.EqualError(t, err, "to_date must not be before from_date")

	absence, err := temps.CreateAbsence(ctx, CreateTempAbsenceRequest{
		PersonID: person.ID,
		FromDate: "2026-09-01",
		ToDate:   "2026-09-10",
		Reason:   "work trip",
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusNew, absence.Status)
	assert.Equal(t, "2026-09-01", absence.FromDate)
}

func TestCreateResidenceRequiresExistingHost(t *testing.T) {
	f := newRegistryFixture(t)
	temps := NewTempService(f.db, f.tx, nil)
	ctx := context.Background()

	household := f.createHousehold(t, "HK-001")
	person := f.createPerson(t, "Nguyen Van A", household.ID)

	_, err := temps.CreateResidence(ctx, CreateTempResidenceRequest{
		PersonID:        person.ID,
		FromDate:        "2026-09-01",
		ToDate:          "2026-12-01",
		HostHouseholdID: "1b671a64-40d5-491e-99b0-da01ff1f3341",
		Reason:          "semester housing",
	}, f.actor)
	assert.EqualError(t, err, "host household not found")

	residence, err := temps.CreateResidence(ctx, CreateTempResidenceRequest{
		PersonID:        person.ID,
		FromDate:        "2026-09-01",
		ToDate:          "2026-12-01",
		HostHouseholdID: household.ID,
		Reason:          "semester housing",
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusNew, residence.Status)
	require.NotNil(t, residence.HostHouseholdID)
	assert.Equal(t, household.ID, *residence.HostHouseholdID)
}

func TestDecideAbsenceIsDecidedAtMostOnce(t *testing.T) {
	f := newRegistryFixture(t)
	notifier := &recordingNotifier{}
	temps := NewTempService(f.db, f.tx, notifier)
	ctx := context.Background()

	household := f.createHousehold(t, "HK-001")
	person := f.createPerson(t, "Nguyen Van A", household.ID)

	absence, err := temps.CreateAbsence(ctx, CreateTempAbsenceRequest{
		PersonID: person.ID,
		FromDate: "2026-09-01",
		ToDate:   "2026-09-10",
		Reason:   "work trip",
	}, f.actor)
	require.NoError(t, err)

	decided, err := temps.DecideAbsence(ctx, absence.ID, true, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, decided.Status)

	// The registrant got a push and a stored notification.
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, f.actor, notifier.calls[0])

	// A second decision, even the opposite one, bounces.
	_, err = temps.DecideAbsence(ctx, absence.ID, false, f.actor)
	assert.EqualError(t, err, "request not found or already decided")

	reloaded, _, err := temps.ListAbsences(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, model.RequestStatusApproved, reloaded[0].Status)
}

func TestDecideResidenceRejection(t *testing.T) {
	f := newRegistryFixture(t)
	temps := NewTempService(f.db, f.tx, nil)
	ctx := context.Background()

	household := f.createHousehold(t, "HK-001")
	person := f.createPerson(t, "Nguyen Van A", household.ID)

	residence, err := temps.CreateResidence(ctx, CreateTempResidenceRequest{
		PersonID:        person.ID,
		FromDate:        "2026-09-01",
		ToDate:          "2026-12-01",
		HostHouseholdID: household.ID,
		Reason:          "semester housing",
	}, f.actor)
	require.NoError(t, err)

	decided, err := temps.DecideResidence(ctx, residence.ID, false, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, decided.Status)

	_, err = temps.DecideResidence(ctx, residence.ID, true, f.actor)
	assert.EqualError(t, err, "request not found or already decided")
}
