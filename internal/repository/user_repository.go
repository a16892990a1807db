package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrEmailExists = errors.New("email already exists")
	ErrPhoneExists = errors.New("phone already exists")
)

const userColumns = "id,email,phone,name,location,password_hash,role,is_active,created_at,updated_at"

// Create hashes password, inserts u and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int) (uint64, error) {
	u.Email = normalizeEmail(u.Email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO users (email, phone, name, location, password_hash, role) VALUES (?,?,?,?,?,?)",
		u.Email, strings.TrimSpace(u.Phone), strings.TrimSpace(u.Name), strings.TrimSpace(u.Location), hash, string(u.Role))
	if err != nil {
		switch {
		case isDuplicate(err, "uq_users_phone"):
			return 0, ErrPhoneExists
		case isDuplicate(err, ""):
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "email=?", normalizeEmail(email))
}

// GetByPhone fetches a user by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.getOne(ctx, "phone=?", strings.TrimSpace(phone))
}

// GetByIdentifier treats anything with an @ as an email and the rest as a
// phone number.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	if strings.Contains(identifier, "@") {
		return r.GetByEmail(ctx, identifier)
	}
	return r.GetByPhone(ctx, identifier)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "id=?", id)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg).
		Scan(&u.ID, &u.Email, &u.Phone, &u.Name, &u.Location, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
