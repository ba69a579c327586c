package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	return users
}

func isExcluded(usr user.User, excluded []user.User) bool {
	for _, u := range excluded {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, core.NewConflictError(user.ErrEmailExists, "users_email_key")
		}
	}

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "first_name":
		return strings.Compare(a.FirstName, b.FirstName)
	case "last_name":
		return strings.Compare(a.LastName, b.LastName)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "role":
		return strings.Compare(a.Role, b.Role)
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func sortUsers(users []user.User, ordering []core.DBOrdering) {
	// later orderings break ties of earlier ones, hence the reverse stable passes
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		sort.SliceStable(users, func(a, b int) bool {
			cmp := compareUsers(users[a], users[b], ord.Field)
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		})
	}
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := repo.query()
	if filter == nil {
		sortUsers(users, ordering)
		return users, nil
	}

	var filtered []user.User
	for _, usr := range users {
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(usr.Name()), kw) &&
				!strings.Contains(strings.ToLower(usr.Email), kw) {
				continue
			}
		}
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		filtered = append(filtered, usr)
	}
	sortUsers(filtered, ordering)
	return filtered, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Email != "" && usr.Email != orig.Email {
		for _, u := range repo.db.users {
			if u.Email == usr.Email {
				return user.User{}, core.NewConflictError(user.ErrEmailExists, "users_email_key")
			}
		}
	}

	updated := *orig
	if usr.FirstName != "" {
		updated.FirstName = usr.FirstName
	}
	if usr.LastName != "" {
		updated.LastName = usr.LastName
	}
	if usr.Email != "" {
		updated.Email = usr.Email
	}
	if len(usr.PasswordHash) > 0 {
		updated.PasswordHash = usr.PasswordHash
	}
	if usr.Role != "" {
		updated.Role = usr.Role
	}
	if usr.Phone.Valid {
		updated.Phone = usr.Phone
	}
	if usr.DateOfBirth.Valid {
		updated.DateOfBirth = usr.DateOfBirth
	}
	if usr.Address.Valid {
		updated.Address = usr.Address
	}
	if usr.ProfilePhoto.Valid {
		updated.ProfilePhoto = usr.ProfilePhoto
	}
	if isActive != nil {
		updated.IsActive = *isActive
	}
	if usr.EmailVerificationToken.Valid {
		updated.EmailVerificationToken = usr.EmailVerificationToken
	}
	if usr.PasswordResetToken.Valid {
		updated.PasswordResetToken = usr.PasswordResetToken
	}
	if usr.PasswordResetExpires.Valid {
		updated.PasswordResetExpires = usr.PasswordResetExpires
	}
	if usr.LastLogin.Valid {
		updated.LastLogin = usr.LastLogin
	}
	if !usr.UpdatedAt.IsZero() {
		updated.UpdatedAt = usr.UpdatedAt
	}

	repo.db.users[updated.ID] = &updated
	return updated, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}

	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// full replacement; invalid optionals clear their fields
	if !usr.PasswordResetToken.Valid {
		usr.PasswordResetToken = null.String{}
	}
	if !usr.PasswordResetExpires.Valid {
		usr.PasswordResetExpires = null.Time{}
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

// RunInTx offers no transactional isolation: fn runs against the shared maps.
func (repo *userRepository) RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)
		repo.db.cascadeUserDelete(id)
	}
	return nil
}
