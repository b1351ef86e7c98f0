package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var campaignCols = []string{"id", "code", "account_id", "name", "description", "status", "starting_date", "expiration_date",
	"daily_start_time", "daily_stop_time", "active_days", "frequency", "max_retry", "interval_retry",
	"gateway_id", "text_message", "extra_data", "imported_phonebooks", "total_contact", "created_at", "updated_at",
	"phonebook_ids"}

func campaignRow(rows *pgxmock.Rows, c *domain.Campaign) *pgxmock.Rows {
	return rows.AddRow(c.ID, c.Code, c.AccountID, c.Name, c.Description, c.Status, c.StartingDate, c.ExpirationDate,
		int(c.DailyStartTime), int(c.DailyStopTime), int16(c.ActiveDays), c.Frequency, c.MaxRetry, c.IntervalRetry,
		c.GatewayID, c.TextMessage, c.ExtraData, c.ImportedPhonebooks, c.TotalContact, c.CreatedAt, c.UpdatedAt,
		c.PhonebookIDs)
}

func sampleCampaign() *domain.Campaign {
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	c := domain.NewCampaign(uuid.New(), uuid.New(), uuid.New(), "K7QX2", "promo", now)
	c.Status = domain.CampaignStatusStart
	c.DailyStartTime = domain.NewTimeOfDay(9, 0, 0)
	c.DailyStopTime = domain.NewTimeOfDay(17, 0, 0)
	c.ActiveDays = domain.Weekdays
	c.PhonebookIDs = []uuid.UUID{uuid.New()}
	c.ImportedPhonebooks = []uuid.UUID{}
	return c
}

func TestPgCampaignRepository_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgCampaignRepository(mockPool, testLogger())

		want := sampleCampaign()
		mockPool.ExpectQuery(`FROM sms_campaigns c WHERE c.id = \$1`).
			WithArgs(want.ID).
			WillReturnRows(campaignRow(mockPool.NewRows(campaignCols), want))

		got, err := repo.GetByID(context.Background(), want.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgCampaignRepository(mockPool, testLogger())

		id := uuid.New()
		mockPool.ExpectQuery(`FROM sms_campaigns c WHERE c.id = \$1`).
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgCampaignRepository_Create(t *testing.T) {
	c := sampleCampaign()
	insertArgs := []interface{}{
		c.ID, c.Code, c.AccountID, c.Name, c.Description, c.Status, c.StartingDate, c.ExpirationDate,
		int(c.DailyStartTime), int(c.DailyStopTime), int16(c.ActiveDays), c.Frequency, c.MaxRetry, c.IntervalRetry,
		c.GatewayID, c.TextMessage, c.ExtraData, c.TotalContact, c.CreatedAt, c.UpdatedAt,
	}

	t.Run("WithPhonebooks", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgCampaignRepository(mockPool, testLogger())

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`INSERT INTO sms_campaigns`).
			WithArgs(insertArgs...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(`INSERT INTO sms_campaign_phonebooks`).
			WithArgs(c.ID, c.PhonebookIDs[0]).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		assert.NoError(t, repo.Create(context.Background(), c))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateCode", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgCampaignRepository(mockPool, testLogger())

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`INSERT INTO sms_campaigns`).
			WithArgs(insertArgs...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "sms_campaigns_code_key"})
		mockPool.ExpectRollback()

		assert.ErrorIs(t, repo.Create(context.Background(), c), domain.ErrDuplicateEntry)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgCampaignRepository_UpdateStatus(t *testing.T) {
	id := uuid.New()

	t.Run("Updated", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgCampaignRepository(mockPool, testLogger())

		mockPool.ExpectExec(`UPDATE sms_campaigns SET status = \$1`).
			WithArgs(domain.CampaignStatusEnd, id, domain.CampaignStatusStart).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.UpdateStatus(context.Background(), id, domain.CampaignStatusStart, domain.CampaignStatusEnd))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Conflict", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgCampaignRepository(mockPool, testLogger())

		mockPool.ExpectExec(`UPDATE sms_campaigns SET status = \$1`).
			WithArgs(domain.CampaignStatusEnd, id, domain.CampaignStatusStart).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mockPool.ExpectQuery(`SELECT EXISTS`).
			WithArgs(id).
			WillReturnRows(mockPool.NewRows([]string{"exists"}).AddRow(true))

		err = repo.UpdateStatus(context.Background(), id, domain.CampaignStatusStart, domain.CampaignStatusEnd)
		assert.ErrorIs(t, err, domain.ErrStatusConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgCampaignRepository(mockPool, testLogger())

		mockPool.ExpectExec(`UPDATE sms_campaigns SET status = \$1`).
			WithArgs(domain.CampaignStatusPause, id, domain.CampaignStatusStart).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mockPool.ExpectQuery(`SELECT EXISTS`).
			WithArgs(id).
			WillReturnRows(mockPool.NewRows([]string{"exists"}).AddRow(false))

		err = repo.UpdateStatus(context.Background(), id, domain.CampaignStatusStart, domain.CampaignStatusPause)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgCampaignRepository_ListExpired(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	repo := NewPgCampaignRepository(mockPool, testLogger())

	now := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	expired := sampleCampaign()
	mockPool.ExpectQuery(`WHERE c.expiration_date <= \$1 AND c.status <> \$2`).
		WithArgs(now, domain.CampaignStatusEnd).
		WillReturnRows(campaignRow(mockPool.NewRows(campaignCols), expired))

	got, err := repo.ListExpired(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, expired.ID, got[0].ID)
	assert.Equal(t, domain.Weekdays, got[0].ActiveDays)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgCampaignRepository_AttachPhonebook(t *testing.T) {
	campaignID, phonebookID := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		result  pgconn.CommandTag
		err     error
		wantErr error
	}{
		{name: "Attached", result: pgxmock.NewResult("INSERT", 1)},
		{name: "AlreadyAttached", result: pgxmock.NewResult("INSERT", 0), wantErr: domain.ErrDuplicateEntry},
		{name: "UnknownCampaign", err: &pgconn.PgError{Code: "23503"}, wantErr: domain.ErrNotFound},
		{name: "DBError", err: errors.New("DB error")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mockPool.Close()
			repo := NewPgCampaignRepository(mockPool, testLogger())

			exp := mockPool.ExpectExec(`INSERT INTO sms_campaign_phonebooks`).WithArgs(campaignID, phonebookID)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err = repo.AttachPhonebook(context.Background(), campaignID, phonebookID)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.err != nil:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mockPool.ExpectationsWereMet())
		})
	}
}
