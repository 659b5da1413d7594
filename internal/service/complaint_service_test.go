package service

import (
	"context"
	"testing"

	"psms/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	calls []uuid.UUID
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID uuid.UUID, _, _ string) error {
	n.calls = append(n.calls, userID)
	return nil
}

func TestCreateComplaintMergesDuplicateContent(t *testing.T) {
	f := newRegistryFixture(t)
	complaints := NewComplaintService(f.db, f.tx, nil)
	ctx := context.Background()

	household := f.createHousehold(t, "HK-001")
	first := f.createPerson(t, "Nguyen Van A", household.ID)
	second := f.createPerson(t, "Tran Thi B", household.ID)

	created, err := complaints.CreateComplaint(ctx, CreateComplaintRequest{
		ReporterPersonID: first.ID,
		Content:          "Broken streetlight on Hang Bai",
		Category:         "infrastructure",
	}, f.actor)
	require.NoError(t, err)
	assert.False(t, created.Merged)
	assert.Equal(t, 1, created.DuplicateCount)
	assert.Equal(t, model.ComplaintStatusNew, created.Status)

	// Same content modulo case and surrounding whitespace merges.
	merged, err := complaints.CreateComplaint(ctx, CreateComplaintRequest{
		ReporterPersonID: second.ID,
		Content:          "  broken streetlight on hang bai ",
		Category:         "infrastructure",
	}, f.actor)
	require.NoError(t, err)
	assert.True(t, merged.Merged)
	assert.Equal(t, created.ID, merged.ID)
	assert.Equal(t, 2, merged.DuplicateCount)

	// One complaint row, two report links.
	var complaintCount, reportCount int64
	require.NoError(t, f.db.Model(&model.Complaint{}).Count(&complaintCount).Error)
	require.NoError(t, f.db.Model(&model.ComplaintReport{}).Count(&reportCount).Error)
	assert.Equal(t, int64(1), complaintCount)
	assert.Equal(t, int64(2), reportCount)

	// Same content in a different category is a distinct complaint.
	other, err := complaints.CreateComplaint(ctx, CreateComplaintRequest{
		ReporterPersonID: first.ID,
		Content:          "Broken streetlight on Hang Bai",
		Category:         "safety",
	}, f.actor)
	require.NoError(t, err)
	assert.False(t, other.Merged)
	assert.NotEqual(t, created.ID, other.ID)
}

func TestCreateComplaintDistinctContentStaysSeparate(t *testing.T) {
	f := newRegistryFixture(t)
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

	second, err := complaints.CreateComplaint(ctx, CreateComplaintRequest{
		ReporterPersonID: person.ID,
		Content:          "Garbage not collected",
		Category:         "sanitation",
	}, f.actor)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	list, total, err := complaints.ListComplaints(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)
}

func TestUpdateComplaintStatusNotifiesCreator(t *testing.T) {
	f := newRegistryFixture(t)
	notifier := &recordingNotifier{}
	complaints := NewComplaintService(f.db, f.tx, notifier)
	ctx := context.Background()

	household := f.createHousehold(t, "HK-001")
	person := f.createPerson(t, "Nguyen Van A", household.ID)

	created, err := complaints.CreateComplaint(ctx, CreateComplaintRequest{
		ReporterPersonID: person.ID,
		Content:          "Noise at night",
		Category:         "noise",
	}, f.actor)
	require.NoError(t, err)

	updated, err := complaints.UpdateStatus(ctx, created.ID, UpdateComplaintStatusRequest{
		Status: model.ComplaintStatusResolved,
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusResolved, updated.Status)

	// Live push plus a durable notification row, both addressed to the filer.
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, f.actor, notifier.calls[0])

	var notification model.Notification
	require.NoError(t, f.db.First(&notification, "user_id = ?", f.actor).Error)
	assert.Contains(t, notification.Body, model.ComplaintStatusResolved)
}
