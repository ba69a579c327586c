package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasa/backend/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid password")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool, exec ...core.DBExecutor) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
		RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) error
	}

	// Service owns the credential and account lifecycle for User records.
	// It is stateless and safe to invoke concurrently for different records.
	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) checkEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return err
	}
	return nil
}

// Create persists a new user. The plaintext password is hashed exactly once
// before the record is handed to the repository; it is never stored or logged.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Email:       core.CleanString(nu.Email, true /* lower */),
		Role:        nu.Role,
		Phone:       nu.Phone,
		DateOfBirth: nu.DateOfBirth,
		Address:     nu.Address,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Update persists the non-zero fields of uu. The stored digest is replaced
// only when a new plaintext was supplied; an update that does not touch the
// password leaves the digest untouched.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:          id,
		FirstName:   uu.FirstName,
		LastName:    uu.LastName,
		Email:       uu.Email,
		Role:        uu.Role,
		Phone:       uu.Phone,
		DateOfBirth: uu.DateOfBirth,
		Address:     uu.Address,
		UpdatedAt:   time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin.SetValid(time.Now().UTC())
	return svc.repo.UpdateUser(ctx, User{ID: usr.ID, LastLogin: usr.LastLogin}, nil)
}

// RequestPasswordReset generates an expiring reset token for the account
// registered under email (if any) and mails it. A missing account is not an
// error; the caller cannot probe for registered emails.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil
		}
		return err
	}
	if !usr.IsActive {
		return nil
	}

	token, err := MakeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	usr.PasswordResetToken.SetValid(token)
	usr.PasswordResetExpires.SetValid(time.Now().UTC().Add(svc.conf.Security.PasswordResetTimeout))
	if _, err = svc.repo.UpdateUser(ctx, User{
		ID:                   usr.ID,
		PasswordResetToken:   usr.PasswordResetToken,
		PasswordResetExpires: usr.PasswordResetExpires,
	}, nil); err != nil {
		return err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Password reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name, AppName, FrontendBaseURL, UID, Token string
		}{usr.Name(), svc.conf.AppName, svc.conf.FrontendBaseURL, EncodeUID(usr), token},
	})
	return nil
}

// ResetPassword verifies the reset token for the encoded user id and, when
// valid, replaces the credential with a hash of the new plaintext.
func (svc *Service) ResetPassword(ctx context.Context, uid, token, newPwd string) (User, error) {
	invalidUID := core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: "invalid value"})

	id, err := DecodeUID(uid)
	if err != nil {
		return User{}, invalidUID
	}

	// the token is single-use: its verification and the write clearing it
	// must commit together
	var usr User
	err = svc.repo.RunInTx(ctx, func(tx core.DBExecutor) error {
		usr, err = svc.repo.GetUserByID(ctx, id, tx)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return invalidUID
			}
			return err
		}
		if err = VerifyToken(usr, token); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "token", Error: "invalid value"})
		}

		if err = usr.SetPassword(newPwd); err != nil {
			return err
		}
		usr.PasswordResetToken = null.String{}
		usr.PasswordResetExpires = null.Time{}
		usr, err = svc.repo.UpdateOrCreateUser(ctx, usr, tx)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *Service) sendWelcomeEmail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: struct {
			Name, AppName, FrontendBaseURL string
		}{usr.Name(), svc.conf.AppName, svc.conf.FrontendBaseURL},
	})
}
