package postgres

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/alumni-connect-server/internal/model"
	"github.com/dtroode/alumni-connect-server/internal/testutil"
)

var accountRowColumns = []string{
	"id", "name", "email", "password_hash", "role", "roll_number", "graduation_year",
	"current_company", "work_email", "evidence_image_ref", "verified", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (*AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewAccountRepository(db), mock
}

func studentRow(id uuid.UUID, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(accountRowColumns).AddRow(
		id.String(), "Rahul Sharma", "rahul@example.com", []byte("hash"), "student",
		"2021CS045", nil, "", "", "evidence/student/a.png", true, now, now,
	)
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1`).
			WithArgs("rahul@example.com").
			WillReturnRows(studentRow(id, now))

		got, err := repo.GetByEmail(ctx, "rahul@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, model.RoleStudent, got.Role)
		require.NotNil(t, got.RollNumber)
		assert.Equal(t, "2021CS045", *got.RollNumber)
		assert.Nil(t, got.GraduationYear)
		assert.True(t, got.Verified)
		assert.Equal(t, now, got.CreatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1`).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByEmail(ctx, "ghost@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1`).
			WillReturnError(errors.New("db down"))

		_, err := repo.GetByEmail(ctx, "rahul@example.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrNotFound)
		assert.ErrorContains(t, err, "failed to get account by email: db down")
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()

	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).AddRow(
			id.String(), "Riya Singh", "riya@example.com", []byte("hash"), "alumni",
			nil, int64(2019), "Infosys", "r.singh@infosys.com", "", true, now, now,
		))
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAlumni, got.Role)
	assert.Nil(t, got.RollNumber)
	require.NotNil(t, got.GraduationYear)
	assert.Equal(t, 2019, *got.GraduationYear)
	assert.Equal(t, "Infosys", got.CurrentCompany)

	_, err = repo.GetByID(ctx, id)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	account := model.Account{
		ID:               uuid.New(),
		Name:             "Rahul Sharma",
		Email:            "rahul@example.com",
		PasswordHash:     []byte("hash"),
		Role:             model.RoleStudent,
		RollNumber:       testutil.Ptr("2021CS045"),
		EvidenceImageRef: "evidence/student/a.png",
		Verified:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`INSERT INTO accounts .+ RETURNING`).
			WithArgs(account.ID, account.Name, account.Email, account.PasswordHash, "student",
				"2021CS045", nil, "", "", "evidence/student/a.png", true, now, now).
			WillReturnRows(studentRow(account.ID, now))

		saved, err := repo.Create(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, account.ID, saved.ID)
		assert.Equal(t, account.Email, saved.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`INSERT INTO accounts .+ RETURNING`).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "accounts_email_key"})

		_, err := repo.Create(ctx, account)
		require.ErrorIs(t, err, model.ErrEmailTaken)
	})

	t.Run("other constraint", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`INSERT INTO accounts .+ RETURNING`).
			WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "accounts_role_fields_check"})

		_, err := repo.Create(ctx, account)
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrEmailTaken)
		assert.ErrorContains(t, err, "failed to create account")
	})

	t.Run("graduation year beyond int4", func(t *testing.T) {
		repo, _ := newRepoWithMock(t)
		alumni := account
		alumni.Role = model.RoleAlumni
		alumni.RollNumber = nil
		alumni.GraduationYear = testutil.Ptr(int(math.MaxInt32) + 2001)

		_, err := repo.Create(ctx, alumni)
		require.Error(t, err)
		assert.ErrorContains(t, err, "does not fit int4")
	})
}

func TestAccountRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	newer, older := uuid.New(), uuid.New()

	t.Run("rows", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		rows := sqlmock.NewRows(accountRowColumns).
			AddRow(newer.String(), "B", "b@example.com", []byte("h"), "alumni", nil, int64(2018), "", "", "", false, now, now).
			AddRow(older.String(), "A", "a@example.com", []byte("h"), "student", "R1", nil, "", "", "k", false, now.Add(-time.Hour), now)
		mock.ExpectQuery(`SELECT .+ FROM accounts ORDER BY created_at DESC`).WillReturnRows(rows)

		got, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newer, got[0].ID)
		assert.Equal(t, older, got[1].ID)
	})

	t.Run("empty", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows(accountRowColumns))

		got, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		rows := sqlmock.NewRows(accountRowColumns).
			AddRow(newer.String(), "B", "b@example.com", []byte("h"), "alumni", nil, int64(2018), "", "", "", false, now, now).
			RowError(0, errors.New("broken"))
		mock.ExpectQuery(`SELECT .+ FROM accounts ORDER BY created_at DESC`).WillReturnRows(rows)

		_, err := repo.List(ctx)
		require.ErrorContains(t, err, "failed to iterate accounts")
	})
}

func TestAccountRepository_SetVerified(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()

	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`UPDATE accounts SET verified = TRUE`).
		WithArgs(id).
		WillReturnRows(studentRow(id, now))
	mock.ExpectQuery(`UPDATE accounts SET verified = TRUE`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	got, err := repo.SetVerified(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Verified)

	_, err = repo.SetVerified(ctx, id)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAccountRepository_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(ctx, id))
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, repo.Delete(ctx, id), model.ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM accounts`).WillReturnError(errors.New("db down"))

		require.ErrorContains(t, repo.Delete(ctx, id), "failed to delete account")
	})
}
