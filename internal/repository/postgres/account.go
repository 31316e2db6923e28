package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

// uniqueViolation is the SQLSTATE raised by a unique index conflict.
const uniqueViolation = "23505"

const accountColumns = `id, name, email, password_hash, role, roll_number, graduation_year,
	current_company, work_email, evidence_image_ref, verified, created_at, updated_at`

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (model.Account, error) {
	var (
		account        model.Account
		role           string
		rollNumber     sql.NullString
		graduationYear sql.NullInt32
	)

	err := row.Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash, &role,
		&rollNumber, &graduationYear, &account.CurrentCompany, &account.WorkEmail,
		&account.EvidenceImageRef, &account.Verified, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return model.Account{}, err
	}

	account.Role = model.Role(role)
	if rollNumber.Valid {
		account.RollNumber = &rollNumber.String
	}
	if graduationYear.Valid {
		year := int(graduationYear.Int32)
		account.GraduationYear = &year
	}

	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// Create inserts account. A concurrent insert of the same email loses on the
// unique index and gets model.ErrEmailTaken.
func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, name, email, password_hash, role, roll_number, graduation_year,
			  current_company, work_email, evidence_image_ref, verified, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING ` + accountColumns

	var rollNumber sql.NullString
	if account.RollNumber != nil {
		rollNumber = sql.NullString{String: *account.RollNumber, Valid: true}
	}
	var graduationYear sql.NullInt32
	if account.GraduationYear != nil {
		year := *account.GraduationYear
		if year < math.MinInt32 || year > math.MaxInt32 {
			return model.Account{}, fmt.Errorf("failed to create account: graduation year %d does not fit int4", year)
		}
		graduationYear = sql.NullInt32{Int32: int32(year), Valid: true}
	}

	saved, err := scanAccount(r.db.QueryRowContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash, string(account.Role),
		rollNumber, graduationYear, account.CurrentCompany, account.WorkEmail,
		account.EvidenceImageRef, account.Verified, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrEmailTaken
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

// List returns every account, newest first.
func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]model.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) SetVerified(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `UPDATE accounts SET verified = TRUE, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to verify account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM accounts WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
