package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/repository"
)

// LibraryInput is the payload for creating a library profile.
type LibraryInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	TotalSeats  int      `json:"total_seats"`
	Facilities  []string `json:"facilities"`
}

// LibraryProfile is a library together with the trial granted on creation.
type LibraryProfile struct {
	Library *model.Library            `json:"library"`
	Trial   *model.SubscriptionPeriod `json:"trial"`
}

// LibraryService manages library profiles.
type LibraryService struct {
	tx     TxRunner
	libs   LibraryStore
	ledger *Ledger
	o      options
}

func NewLibraryService(tx TxRunner, libs LibraryStore, ledger *Ledger, opts ...Option) *LibraryService {
	return &LibraryService{tx: tx, libs: libs, ledger: ledger, o: buildOptions(opts)}
}

// CreateLibrary creates the caller's library and grants its trial.  Both
// happen in one transaction: a retried request either finds the library
// already there (Conflict) or creates both rows.
func (s *LibraryService) CreateLibrary(ctx context.Context, p model.Principal, in LibraryInput) (*LibraryProfile, error) {
	if p.Role != model.RoleLibrary {
		return nil, forbidden("only library accounts can create a library profile")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	switch {
	case in.Name == "":
		return nil, invalid("name is required")
	case in.Location == "":
		return nil, invalid("location is required")
	case in.TotalSeats < 1:
		return nil, invalid("total_seats must be at least 1")
	}

	now := s.o.clock()
	lib := &model.Library{
		OwnerID:     p.UserID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Location:    in.Location,
		TotalSeats:  in.TotalSeats,
		Facilities:  cleanFacilities(in.Facilities),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var trial *model.SubscriptionPeriod
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.libs.Create(ctx, lib); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return conflict("a library profile already exists for this account")
			}
			return fmt.Errorf("create library: %w", err)
		}
		t, err := s.ledger.GrantTrial(ctx, lib.ID)
		if err != nil {
			return err
		}
		trial = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.o.log.Info("library created", "library_id", lib.ID, "owner_id", p.UserID)
	s.ledger.announce(ctx, trial)
	return &LibraryProfile{Library: lib, Trial: trial}, nil
}

// GetMyLibrary returns the library owned by the caller.
func (s *LibraryService) GetMyLibrary(ctx context.Context, p model.Principal) (*model.Library, error) {
	if p.Role != model.RoleLibrary {
		return nil, forbidden("only library accounts own a library")
	}
	lib, err := s.libs.GetByOwner(ctx, p.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("no library profile for this account")
	}
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	return lib, nil
}

// ListLibraries returns libraries whose location contains location.
func (s *LibraryService) ListLibraries(ctx context.Context, location string) ([]model.Library, error) {
	libs, err := s.libs.List(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	return libs, nil
}

func cleanFacilities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		key := strings.ToLower(f)
		if f == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
