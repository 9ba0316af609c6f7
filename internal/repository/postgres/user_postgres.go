package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"finassist/internal/model"
	"finassist/internal/repository"
)

const uniqueViolation = "23505"

// userColumns is the select list shared by every query returning a user.
const userColumns = `id, username, email, password_hash,
	age, goal, risk_tolerance, work_type, document_key,
	name, pan, address, contact, salary_income, business_turnover, income_mode,
	deduction_80c, deduction_80d, taxable_income, total_tax_payable, tds_deducted, refund_due,
	created_at, updated_at`

// updatedColumns is userColumns qualified by the alias ApplyUpdate gives users.
var updatedColumns = qualify("u", userColumns)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// Create inserts a new user row and returns the stored record.
// The users_email_key unique index turns concurrent duplicate registrations
// into exactly one success.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	q := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING ` + userColumns
	d := &u.Document
	row := r.db.QueryRowContext(ctx, q,
		u.ID, u.Username, u.Email, u.PasswordHash,
		u.Profile.Age, u.Profile.Goal, u.Profile.RiskTolerance, u.Profile.WorkType, u.DocumentKey,
		d.Name, d.PAN, d.Address, d.Contact, d.SalaryIncome, d.BusinessTurnover, d.IncomeMode,
		d.Deduction80C, d.Deduction80D, d.TaxableIncome, d.TotalTaxPayable, d.TDSDeducted, d.RefundDue,
		u.CreatedAt, u.UpdatedAt,
	)
	out, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single user by its ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, q, id)
}

// FindByEmail fetches a single user by email.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.findOne(ctx, q, email)
}

func (r *UserPostgres) findOne(ctx context.Context, q string, arg any) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ApplyUpdate sets only the columns carried by upd, in one UPDATE ... RETURNING
// statement, so concurrent updates to different columns never overwrite each other.
// The prev subquery locks the row first, so the document key it returns is the
// one this statement overwrote even when writers race.
func (r *UserPostgres) ApplyUpdate(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, *string, error) {
	fields := upd.Fields()
	if len(fields) == 0 {
		return nil, nil, errors.New("empty update")
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	args = append(args, id)
	for i, f := range fields {
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column, i+2))
		args = append(args, f.Value)
	}
	sets = append(sets, "updated_at = now()")

	q := `UPDATE users AS u SET ` + strings.Join(sets, ", ") +
		` FROM (SELECT id, document_key FROM users WHERE id = $1 FOR UPDATE) AS prev` +
		` WHERE u.id = prev.id RETURNING ` + updatedColumns + `, prev.document_key`
	var prevKey *string
	u, err := scanUser(r.db.QueryRowContext(ctx, q, args...), &prevKey)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil, repository.ErrNotFound
		case isUniqueViolation(err):
			return nil, nil, repository.ErrDuplicateEmail
		}
		return nil, nil, err
	}
	return u, prevKey, nil
}

// Ping checks database connectivity.
func (r *UserPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// scanUser reads the userColumns list followed by any extra trailing columns.
func scanUser(row *sql.Row, extra ...any) (*model.User, error) {
	var u model.User
	d := &u.Document
	dest := []any{
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Profile.Age, &u.Profile.Goal, &u.Profile.RiskTolerance, &u.Profile.WorkType, &u.DocumentKey,
		&d.Name, &d.PAN, &d.Address, &d.Contact, &d.SalaryIncome, &d.BusinessTurnover, &d.IncomeMode,
		&d.Deduction80C, &d.Deduction80D, &d.TaxableIncome, &d.TotalTaxPayable, &d.TDSDeducted, &d.RefundDue,
		&u.CreatedAt, &u.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &u, nil
}

func qualify(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// isUniqueViolation reports whether the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == uniqueViolation
}
