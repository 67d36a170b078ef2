package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/domain/repository"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ repository.UserRepository = (*UserRepository)(nil)

const userCols = `id, name, email, password_hash, image, phone, address, gender, dob,
	is_verified, verification_token, reset_password_token, reset_password_expires,
	created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var addr []byte
	var resetExp *time.Time
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Image, &u.Phone, &addr,
		&u.Gender, &u.DOB, &u.IsVerified, &u.VerificationToken, &u.ResetPasswordToken, &resetExp,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFoundOr(err)
	}
	if err := unmarshalAddress(addr, &u.Address); err != nil {
		return nil, err
	}
	if resetExp != nil {
		u.ResetPasswordExpires = *resetExp
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	addr, err := json.Marshal(u.Address)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, image, phone, address, gender, dob,
			is_verified, verification_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, u.ID, u.Name, u.Email, u.Password, u.Image, u.Phone, addr, orNotSelected(u.Gender), orNotSelected(u.DOB),
		u.IsVerified, u.VerificationToken, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	addr, err := json.Marshal(u.Address)
	if err != nil {
		return err
	}
	var resetExp *time.Time
	if !u.ResetPasswordExpires.IsZero() {
		resetExp = &u.ResetPasswordExpires
	}
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, image = $4, phone = $5, address = $6,
			gender = $7, dob = $8, is_verified = $9, verification_token = $10,
			reset_password_token = $11, reset_password_expires = $12, updated_at = $13
		WHERE id = $14
	`, u.Name, u.Email, u.Password, u.Image, u.Phone, addr, u.Gender, u.DOB, u.IsVerified,
		u.VerificationToken, u.ResetPasswordToken, resetExp, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func unmarshalAddress(b []byte, dst *entity.Address) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}

func orNotSelected(s string) string {
	if s == "" {
		return "Not Selected"
	}
	return s
}
