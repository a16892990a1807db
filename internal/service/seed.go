package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/repository"
)

// AdminSeed describes the bootstrap admin account.
type AdminSeed struct {
	Email      string
	Password   string
	Phone      string
	Name       string
	BcryptCost int
}

// placeholderPhone fills the mandatory phone column for the admin when
// none is configured.  It never passes registration phone validation.
const placeholderPhone = "0000000000"

// Seeder creates the accounts a fresh deployment needs.  It runs from
// cmd/seed, never from a request path.
type Seeder struct {
	users UserStore
	o     options
}

func NewSeeder(users UserStore, opts ...Option) *Seeder {
	return &Seeder{users: users, o: buildOptions(opts)}
}

// EnsureAdmin creates the admin account unless it already exists.  It
// reports whether a user was created.  An existing non-admin account with
// the same email is a Conflict.
func (s *Seeder) EnsureAdmin(ctx context.Context, in AdminSeed) (uint64, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return 0, false, invalid("admin email is required")
	}
	if len(in.Password) < 8 {
		return 0, false, invalid("admin password must be at least 8 characters")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			return 0, false, conflict("%s is registered with role %s", email, existing.Role)
		}
		s.o.log.Info("admin already present", "user_id", existing.ID)
		return existing.ID, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return 0, false, fmt.Errorf("lookup admin: %w", err)
	}

	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		phone = placeholderPhone
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Administrator"
	}
	id, err := s.users.Create(ctx, model.User{Email: email, Phone: phone, Name: name, Role: model.RoleAdmin}, in.Password, in.BcryptCost)
	if err != nil {
		return 0, false, fmt.Errorf("create admin: %w", err)
	}
	s.o.log.Info("admin created", "user_id", id, "email", email)
	return id, true, nil
}
