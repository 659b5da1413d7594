package repository

import (
	"context"
	"errors"
	"testing"

	"psms/internal/model"
	"psms/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTxCommitsOnNil(t *testing.T) {
	db := testutil.NewTestDB(t)
	tm := NewTransactionManager(db)

	err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		return GetDB(txCtx, db).Create(&model.Household{HouseholdNumber: "HK-001"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Household{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := testutil.NewTestDB(t)
	tm := NewTransactionManager(db)
	boom := errors.New("boom")

	err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		if err := GetDB(txCtx, db).Create(&model.Household{HouseholdNumber: "HK-001"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&model.Household{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetDBOutsideTxReturnsRoot(t *testing.T) {
	db := testutil.NewTestDB(t)

	got := GetDB(context.Background(), db)
	require.NotNil(t, got)

	assert.NoError(t, got.Create(&model.Household{HouseholdNumber: "HK-002"}).Error)
}
