package user

import (
	"encoding/json"
	"testing"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/darasa/backend/core"
)

func TestUser_SetPassword(t *testing.T) {
	var usr User
	if err := usr.SetPassword("s3cretP@ss", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	if len(usr.PasswordHash) == 0 {
		t.Fatal("expected a digest to be stored")
	}
	if string(usr.PasswordHash) == "s3cretP@ss" {
		t.Fatal("plaintext must never be stored")
	}
	if err := usr.CheckPassword("s3cretP@ss"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}

	// same plaintext, per-credential salt: digests must differ
	var usr2 User
	if err := usr2.SetPassword("s3cretP@ss", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	if string(usr.PasswordHash) == string(usr2.PasswordHash) {
		t.Error("expected distinct digests for the same plaintext")
	}
}

func TestUser_SetPassword_badCost(t *testing.T) {
	var usr User
	err := usr.SetPassword("s3cretP@ss", bcrypt.MaxCost+1)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !core.IsHashingError(err) {
		t.Errorf("expected a hashing error, got %v", err)
	}
	if len(usr.PasswordHash) != 0 {
		t.Error("credential must be untouched on failure")
	}
}

func TestUser_CheckPassword(t *testing.T) {
	var usr User
	if err := usr.SetPassword("s3cretP@ss", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}

	if err := usr.CheckPassword("wrong"); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() error = %v, want %v", err, ErrInvalidPassword)
	}

	usr.PasswordHash = []byte("not-a-bcrypt-digest")
	if err := usr.CheckPassword("s3cretP@ss"); !core.IsHashingError(err) {
		t.Errorf("expected a hashing error, got %v", err)
	}
}

// The JSON form is the only representation allowed out of the system; it must
// never carry credentials or tokens.
func TestUser_JSON(t *testing.T) {
	usr := User{
		ID:                     "c7a4e3f0-0000-0000-0000-000000000001",
		FirstName:              "Awa",
		LastName:               "Traore",
		Email:                  "awa@test.cd",
		Role:                   RoleStudent,
		IsActive:               true,
		EmailVerificationToken: null.StringFrom("evt-secret"),
		PasswordResetToken:     null.StringFrom("prt-secret"),
	}
	if err := usr.SetPassword("s3cretP@ss", bcrypt.MinCost); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}

	data, err := json.Marshal(usr)
	if err != nil {
		t.Fatalf("json.Marshal() failed, %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	for _, key := range []string{"password", "password_hash", "PasswordHash", "password_reset_token", "email_verification_token"} {
		if _, ok := out[key]; ok {
			t.Errorf("serialized user must not contain %q", key)
		}
	}
	if out["email"] != "awa@test.cd" {
		t.Errorf("email = %v, want awa@test.cd", out["email"])
	}
}

func TestUser_Name(t *testing.T) {
	usr := User{FirstName: "Awa", LastName: "Traore"}
	if got := usr.Name(); got != "Awa Traore" {
		t.Errorf("Name() = %q, want %q", got, "Awa Traore")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range AllRoles {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false, want true", role)
		}
	}
	if IsValidRole("principal") {
		t.Error(`IsValidRole("principal") = true, want false`)
	}
}
