package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/user"
	emailsvc "github.com/darasa/backend/services/email"
)

func Test_home(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Darasa API!", rec.Body.String())
}

func Test_userApi_login(t *testing.T) {
	db.Reset()

	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "LolC@t123", user.RoleStudent, true)
	naughty := createTestUser(t, "N", "Dog", "ndog@test.cd", "LolC@t123", user.RoleStudent, false)

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: []byte("{}"),
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Email: "lol", Password: "LolC@t123"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Email: "lol@test.cd", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Email: student.Email, Password: "nope"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, LoginRequest{Email: naughty.Email, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login ok", wantCode: http.StatusOK,
			body: marchallObj(t, LoginRequest{Email: student.Email, Password: "LolC@t123"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantCode, rec.Code)
				var respData LoginResponse
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respData))
				assert.NotEmpty(t, respData.Token)

				// a successful login stamps LastLogin
				refreshed, err := usrRepo.GetUserByID(context.Background(), student.ID)
				assert.NoError(t, err)
				assert.True(t, refreshed.LastLogin.Valid)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_create(t *testing.T) {
	db.Reset()

	admin := createTestUser(t, "Big", "Boss", "admin@test.cd", "", user.RoleAdmin, true)
	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "", user.RoleStudent, true)

	payload := marchallObj(t, user.NewUser{
		FirstName: "Awa",
		LastName:  "Traore",
		Email:     "awa@test.cd",
		Password:  "LolC@t123",
		Role:      user.RoleTeacher,
	})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, body: payload, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student), wantCode: http.StatusForbidden,
			body: payload, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "duplicate email", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Copy", LastName: "Cat", Email: student.Email,
				Password: "LolC@t123", Role: user.RoleStudent,
			}),
			wantData: marchallObj(t, map[string]string{"email": "email already registered"}),
		},
		{name: "created", token: getToken(t, admin), wantCode: http.StatusCreated, body: payload},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				assert.Equal(t, tt.wantCode, rec.Code)

				// credential material never leaks into responses
				var body map[string]interface{}
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "awa@test.cd", body["email"])
				for _, key := range []string{"password", "password_hash", "PasswordHash", "password_reset_token"} {
					assert.NotContains(t, body, key)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	db.Reset()

	admin := createTestUser(t, "Big", "Boss", "admin@test.cd", "", user.RoleAdmin, true)
	teacher := createTestUser(t, "Tea", "Cher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "", user.RoleStudent, true)
	naughty := createTestUser(t, "N", "Dog", "ndog@test.cd", "", user.RoleStudent, false)

	adminToken := getToken(t, admin)

	path := func(search, role string, isActive string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if role != "" {
			v.Add("role", role)
		}
		if isActive != "" {
			v.Add("is_active", isActive)
		}
		return "/v1/users?" + v.Encode()
	}

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		want     []user.User
	}{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized},
		{name: "Admin required", path: "/v1/users", token: getToken(t, student), wantCode: http.StatusForbidden},
		{name: "Get all", path: "/v1/users", token: adminToken, want: []user.User{admin, teacher, student, naughty}},
		{name: "search (unknown)", path: path("lol", "", ""), token: adminToken, want: []user.User{}},
		{name: "search=hero", path: path("hero", "", ""), token: adminToken, want: []user.User{student}},
		{name: "role=student", path: path("", user.RoleStudent, ""), token: adminToken, want: []user.User{student, naughty}},
		{name: "is_active=false", path: path("", "", "false"), token: adminToken, want: []user.User{naughty}},
		{name: "role+is_active", path: path("", user.RoleStudent, "true"), token: adminToken, want: []user.User{student}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, rec.Code)
				return
			}
			assert.Equal(t, http.StatusOK, rec.Code)

			var got, want []interface{}
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.NoError(t, json.Unmarshal(marchallObj(t, tt.want), &want))
			assert.ElementsMatch(t, want, got)
		})
	}

	queryNames := func(t *testing.T, path string) []string {
		t.Helper()

		req, rec := newAuthRequest(http.MethodGet, path, adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var users []user.User
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		names := make([]string, 0, len(users))
		for _, usr := range users {
			names = append(names, usr.FirstName)
		}
		return names
	}

	t.Run("ordering", func(t *testing.T) {
		names := queryNames(t, "/v1/users?ordering=first_name")
		assert.Equal(t, []string{"Big", "Hero", "N", "Tea"}, names)
	})

	t.Run("ordering descending", func(t *testing.T) {
		names := queryNames(t, "/v1/users?ordering=-first_name")
		assert.Equal(t, []string{"Tea", "N", "Hero", "Big"}, names)
	})

	t.Run("ordering with tie-break", func(t *testing.T) {
		names := queryNames(t, "/v1/users?ordering=role,-first_name")
		// roles sort admin < student < teacher; students tie-break on name
		assert.Equal(t, []string{"Big", "N", "Hero", "Tea"}, names)
	})
}

func Test_userApi_retrieve(t *testing.T) {
	db.Reset()

	admin := createTestUser(t, "Big", "Boss", "admin@test.cd", "", user.RoleAdmin, true)
	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "", user.RoleStudent, true)
	other := createTestUser(t, "O", "Ther", "other@test.cd", "", user.RoleStudent, true)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "own account", path: "/v1/users/" + student.ID, token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
		{
			name: "someone else's account is hidden", path: "/v1/users/" + other.ID, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{name: "admin can get any", path: "/v1/users/" + other.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, other)},
		{
			name: "admin, unknown id", path: "/v1/users/lol", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_update(t *testing.T) {
	db.Reset()

	admin := createTestUser(t, "Big", "Boss", "admin@test.cd", "", user.RoleAdmin, true)
	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "", user.RoleStudent, true)

	bPtr := func(b bool) *bool { return &b }

	tests := []httpTest{
		{
			name: "non-admin cannot change email", path: "/v1/users/" + student.ID, token: getToken(t, student),
			body:     marchallObj(t, user.UpdateUser{Email: "new@test.cd"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "non-admin cannot change role", path: "/v1/users/" + student.ID, token: getToken(t, student),
			body:     marchallObj(t, user.UpdateUser{Role: user.RoleAdmin}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "non-admin cannot change is_active", path: "/v1/users/" + student.ID, token: getToken(t, student),
			body:     marchallObj(t, user.UpdateUser{IsActive: bPtr(false)}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "own name change", path: "/v1/users/" + student.ID, token: getToken(t, student),
			body: marchallObj(t, user.UpdateUser{FirstName: "Shero"}), wantCode: http.StatusOK,
		},
		{
			name: "admin deactivates account", path: "/v1/users/" + student.ID, token: getToken(t, admin),
			body: marchallObj(t, user.UpdateUser{IsActive: bPtr(false)}), wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	refreshed, err := usrRepo.GetUserByID(context.Background(), student.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Shero", refreshed.FirstName)
	assert.False(t, refreshed.IsActive)
}

func Test_userApi_destroy(t *testing.T) {
	db.Reset()

	admin := createTestUser(t, "Big", "Boss", "admin@test.cd", "", user.RoleAdmin, true)
	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "", user.RoleStudent, true)

	t.Run("non-admin cannot delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+student.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin cannot delete themselves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin deletes another account", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+student.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := usrRepo.GetUserByID(context.Background(), student.ID)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func Test_userApi_destroyMultiple(t *testing.T) {
	db.Reset()

	admin := createTestUser(t, "Big", "Boss", "admin@test.cd", "", user.RoleAdmin, true)
	usr1 := createTestUser(t, "U", "One", "u1@test.cd", "", user.RoleStudent, true)
	usr2 := createTestUser(t, "U", "Two", "u2@test.cd", "", user.RoleStudent, true)

	adminToken := getToken(t, admin)

	t.Run("no suicide", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users?id="+usr1.ID+"&id="+admin.ID, adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("batch delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users?id="+usr1.ID+"&id="+usr2.ID, adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		users, err := usrSvc.Query(context.Background(), nil, nil)
		assert.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

func Test_userApi_queryRoles(t *testing.T) {
	db.Reset()

	admin := createTestUser(t, "Big", "Boss", "admin@test.cd", "", user.RoleAdmin, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", getToken(t, admin))
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var roles []user.Role
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	assert.ElementsMatch(t, user.Roles, roles)
}

func Test_userApi_refreshToken(t *testing.T) {
	db.Reset()

	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "", user.RoleStudent, true)
	naughty := createTestUser(t, "N", "Dog", "ndog@test.cd", "", user.RoleStudent, false)

	now := time.Now()
	unrefreshableClaims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   student.ID,
			Audience:  "Darasa",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Email:        student.Email,
		Role:         student.Role,
		IsStudent:    student.IsStudent(),
	}
	unrefreshableToken, err := GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess the new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantCode, rec.Code)
				var respData LoginResponse
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respData))
				assert.NotEmpty(t, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_resetPassword(t *testing.T) {
	db.Reset()

	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "", user.RoleStudent, true)
	successData := marchallObj(t, SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: []byte("{}"),
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.Name(), Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					assert.Equal(t, extra.to, msg.To[0])
					assert.True(t, strings.Contains(msg.TextContent, extra.to.Name))
				} else {
					assert.Empty(t, emailsvc.SentMessages)
				}
			}
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	db.Reset()

	student := createTestUser(t, "Hero", "Mwamba", "user3@test.cd", "lol", user.RoleStudent, true)
	validUID := user.EncodeUID(student)
	validToken, err := user.MakeToken(student)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	// generate an expired token
	dayLate := core.Conf.Security.PasswordResetTimeout + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := user.MakeToken(student)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}
	user.NowFunc = time.Now // reset

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: []byte("{}"),
			wantData: marchallObj(t, map[string]string{"uid": reqMsg, "token": reqMsg, "password": reqMsg}),
		},
		{
			name: "password too short", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, PasswordResetConfirmRequest{UID: "lol", Token: "lol", Password: "lol"}),
			wantData: marchallObj(t, map[string]string{"password": "password must be at least 8 characters in length"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, PasswordResetConfirmRequest{UID: "???", Token: "lol", Password: "LolC@t123"}),
			wantData: marchallObj(t, map[string]string{"uid": "invalid value"}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, PasswordResetConfirmRequest{UID: "OTk5", Token: "lol", Password: "LolC@t123"}),
			wantData: marchallObj(t, map[string]string{"uid": "invalid value"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, PasswordResetConfirmRequest{UID: validUID, Token: "HE4TS-sigsig-sig", Password: "LolC@t123"}),
			wantData: marchallObj(t, map[string]string{"token": "invalid value"}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, PasswordResetConfirmRequest{UID: validUID, Token: expiredToken, Password: "LolC@t123"}),
			wantData: marchallObj(t, map[string]string{"token": "invalid value"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, PasswordResetConfirmRequest{UID: validUID, Token: validToken, Password: "LolC@t123"}),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUserByID(context.Background(), student.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, student.PasswordHash) {
					t.Fatal("failed to update new password")
				}
			}
		})
	}
}
