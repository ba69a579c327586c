package user_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/user"
	emailsvc "github.com/darasa/backend/services/email"
	dummydb "github.com/darasa/backend/storage/database/dummy"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func TestMain(m *testing.M) {
	core.Conf.Security.BcryptCost = bcrypt.MinCost

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	validate = validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	os.Exit(m.Run())
}

func setup(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	repo := dummydb.NewUserRepository(db)
	svc := user.NewService(repo, emailsvc.NewConsoleServiceMock(), core.Conf)
	return svc, repo
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()

	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("expected a validation error, got %v", err)
	}
	flds := make(map[string]string, len(vErr.Fields))
	for _, fErr := range vErr.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	sentBefore := len(emailsvc.SentMessages)
	usr, err := svc.Create(ctx, user.NewUser{
		FirstName: "Awa",
		LastName:  "Traore",
		Email:     "AWA@Test.CD",
		Password:  "s3cretP@ss",
		Role:      user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	if usr.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if usr.Email != "awa@test.cd" {
		t.Errorf("email = %q, want lowercased %q", usr.Email, "awa@test.cd")
	}
	if !usr.IsActive {
		t.Error("expected the account to be active")
	}
	// hashed exactly once: the stored digest verifies the original plaintext
	if err = usr.CheckPassword("s3cretP@ss"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}
	if len(emailsvc.SentMessages) != sentBefore+1 {
		t.Error("expected a welcome email")
	}
}

func TestService_Create_duplicateEmail(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	nu := user.NewUser{
		FirstName: "Awa",
		LastName:  "Traore",
		Email:     "awa@test.cd",
		Password:  "s3cretP@ss",
		Role:      user.RoleStudent,
	}
	if _, err := svc.Create(ctx, nu); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	_, err := svc.Create(ctx, nu)
	if !core.IsConflict(err) {
		t.Errorf("expected a conflict error, got %v", err)
	}
}

func TestNewUser_Validate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, user.NewUser{
		FirstName: "Taken",
		LastName:  "Email",
		Email:     "taken@test.cd",
		Password:  "s3cretP@ss",
		Role:      user.RoleTeacher,
	}); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	tests := []struct {
		name      string
		data      user.NewUser
		wantFlds  []string
		wantErrs  map[string]string
		wantValid bool
	}{
		{
			name:     "empty payload aggregates all violations",
			data:     user.NewUser{},
			wantFlds: []string{"first_name", "last_name", "email", "password", "role"},
		},
		{
			name: "short password",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
				Password: "short", Role: user.RoleStudent,
			},
			wantErrs: map[string]string{"password": "password must contain at least 8 characters"},
		},
		{
			name: "all numeric password",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
				Password: "12345678", Role: user.RoleStudent,
			},
			wantErrs: map[string]string{"password": "password cannot be entirely numeric"},
		},
		{
			name: "password with whitespace",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
				Password: "s3cret pass", Role: user.RoleStudent,
			},
			wantErrs: map[string]string{"password": "password must not contain whitespace"},
		},
		{
			name: "password similar to email",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
				Password: "awa@test.cd", Role: user.RoleStudent,
			},
			wantErrs: map[string]string{"password": "password cannot be similar to user attributes"},
		},
		{
			name: "overlong phone",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
				Password: "s3cretP@ss", Role: user.RoleStudent,
				Phone: null.StringFrom(strings.Repeat("9", 30)),
			},
			wantErrs: map[string]string{"phone": "phone must be a maximum of 20 characters in length"},
		},
		{
			name: "unknown role",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
				Password: "s3cretP@ss", Role: "principal",
			},
			wantErrs: map[string]string{"role": "role must be one of student, teacher, parent or admin"},
		},
		{
			name: "email already registered",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "taken@test.cd",
				Password: "s3cretP@ss", Role: user.RoleStudent,
			},
			wantErrs: map[string]string{"email": "email already registered"},
		},
		{
			name: "valid payload",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
				Password: "s3cretP@ss", Role: user.RoleStudent,
			},
			wantValid: true,
		},
		{
			name: "valid payload with phone",
			data: user.NewUser{
				FirstName: "Awa", LastName: "Traore", Email: "awa2@test.cd",
				Password: "s3cretP@ss", Role: user.RoleStudent,
				Phone: null.StringFrom("+243999123456"),
			},
			wantValid: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(ctx, validate, translator, svc)
			if tt.wantValid {
				if err != nil {
					t.Fatalf("Validate() failed, %v", err)
				}
				return
			}
			flds := fieldErrors(t, err)
			for _, fld := range tt.wantFlds {
				if _, ok := flds[fld]; !ok {
					t.Errorf("expected a violation on %q, got %v", fld, flds)
				}
			}
			for fld, msg := range tt.wantErrs {
				if got := flds[fld]; got != msg {
					t.Errorf("violation on %q = %q, want %q", fld, got, msg)
				}
			}
		})
	}
}

func TestService_Update_passwordRehashedOnlyWhenProvided(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
		Password: "s3cretP@ss", Role: user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	// no password in the payload: digest untouched
	updated, err := svc.Update(ctx, usr.ID, user.UpdateUser{FirstName: "Awande"})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if string(updated.PasswordHash) != string(usr.PasswordHash) {
		t.Error("digest must not change when no password is provided")
	}
	if updated.FirstName != "Awande" {
		t.Errorf("first name = %q, want %q", updated.FirstName, "Awande")
	}

	// new password: digest replaced
	updated, err = svc.Update(ctx, usr.ID, user.UpdateUser{Password: "newS3cret!"})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if string(updated.PasswordHash) == string(usr.PasswordHash) {
		t.Error("digest must change when a new password is provided")
	}
	if err = updated.CheckPassword("newS3cret!"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}
}

func TestService_PasswordResetFlow(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	// unknown emails are not reported to callers
	if err := svc.RequestPasswordReset(ctx, "nobody@test.cd"); err != nil {
		t.Fatalf("RequestPasswordReset() failed, %v", err)
	}

	usr, err := svc.Create(ctx, user.NewUser{
		FirstName: "Awa", LastName: "Traore", Email: "awa@test.cd",
		Password: "s3cretP@ss", Role: user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	sentBefore := len(emailsvc.SentMessages)
	if err = svc.RequestPasswordReset(ctx, usr.Email); err != nil {
		t.Fatalf("RequestPasswordReset() failed, %v", err)
	}
	if len(emailsvc.SentMessages) != sentBefore+1 {
		t.Fatal("expected a password reset email")
	}

	stored, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed, %v", err)
	}
	if !stored.PasswordResetToken.Valid {
		t.Fatal("expected a reset token to be stored")
	}
	if !stored.PasswordResetExpires.Valid {
		t.Fatal("expected a reset expiry to be stored")
	}

	uid := user.EncodeUID(stored)
	reset, err := svc.ResetPassword(ctx, uid, stored.PasswordResetToken.String, "newS3cret!")
	if err != nil {
		t.Fatalf("ResetPassword() failed, %v", err)
	}
	if err = reset.CheckPassword("newS3cret!"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}
	if reset.PasswordResetToken.Valid || reset.PasswordResetExpires.Valid {
		t.Error("expected reset token fields to be cleared")
	}

	// the token is single-use
	if _, err = svc.ResetPassword(ctx, uid, stored.PasswordResetToken.String, "anotherS3cret!"); err == nil {
		t.Error("expected an error on token reuse")
	}
}
