package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/user"
	"github.com/darasa/backend/storage/database"
)

const userColumns = `id, first_name, last_name, email, password, role, phone, date_of_birth, address,
profile_photo, is_active, is_email_verified, email_verification_token, password_reset_token,
password_reset_expires, last_login, created_at, updated_at`

// userRow mirrors the users table; the password column holds the bcrypt
// digest, never a plaintext.
type userRow struct {
	ID                     string      `db:"id"`
	FirstName              string      `db:"first_name"`
	LastName               string      `db:"last_name"`
	Email                  string      `db:"email"`
	Password               []byte      `db:"password"`
	Role                   string      `db:"role"`
	Phone                  null.String `db:"phone"`
	DateOfBirth            null.Time   `db:"date_of_birth"`
	Address                null.String `db:"address"`
	ProfilePhoto           null.String `db:"profile_photo"`
	IsActive               bool        `db:"is_active"`
	IsEmailVerified        bool        `db:"is_email_verified"`
	EmailVerificationToken null.String `db:"email_verification_token"`
	PasswordResetToken     null.String `db:"password_reset_token"`
	PasswordResetExpires   null.Time   `db:"password_reset_expires"`
	LastLogin              null.Time   `db:"last_login"`
	CreatedAt              time.Time   `db:"created_at"`
	UpdatedAt              time.Time   `db:"updated_at"`
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

// RunInTx hands fn a transaction-scoped executor; writes fn performs through
// it commit or roll back as one.
func (repo userRepository) RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	return database.RunInTx(ctx, repo.db, func(tx core.DBTransactor) error {
		return fn(tx)
	})
}

func (repo userRepository) bind(usr user.User) userRow {
	return userRow{
		ID:                     usr.ID,
		FirstName:              usr.FirstName,
		LastName:               usr.LastName,
		Email:                  usr.Email,
		Password:               usr.PasswordHash,
		Role:                   usr.Role,
		Phone:                  usr.Phone,
		DateOfBirth:            usr.DateOfBirth,
		Address:                usr.Address,
		ProfilePhoto:           usr.ProfilePhoto,
		IsActive:               usr.IsActive,
		IsEmailVerified:        usr.IsEmailVerified,
		EmailVerificationToken: usr.EmailVerificationToken,
		PasswordResetToken:     usr.PasswordResetToken,
		PasswordResetExpires:   usr.PasswordResetExpires,
		LastLogin:              usr.LastLogin,
		CreatedAt:              usr.CreatedAt.UTC(),
		UpdatedAt:              usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) unbind(row userRow) user.User {
	return user.User{
		ID:                     row.ID,
		FirstName:              row.FirstName,
		LastName:               row.LastName,
		Email:                  row.Email,
		PasswordHash:           row.Password,
		Role:                   row.Role,
		Phone:                  row.Phone,
		DateOfBirth:            row.DateOfBirth,
		Address:                row.Address,
		ProfilePhoto:           row.ProfilePhoto,
		IsActive:               row.IsActive,
		IsEmailVerified:        row.IsEmailVerified,
		EmailVerificationToken: row.EmailVerificationToken,
		PasswordResetToken:     row.PasswordResetToken,
		PasswordResetExpires:   row.PasswordResetExpires,
		LastLogin:              row.LastLogin,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return database.TrapError(err, msg)
}

func (repo userRepository) queryRows(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]userRow, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []userRow
	if err = sqlx.StructScan(rows, &res); err != nil {
		return nil, err
	}
	return res, rows.Err()
}

func (repo userRepository) getRow(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (userRow, error) {
	res, err := repo.queryRows(ctx, exec, query, args...)
	if err != nil {
		return userRow{}, err
	}
	if len(res) == 0 {
		return userRow{}, sql.ErrNoRows
	}
	return res[0], nil
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	query := "SELECT EXISTS (SELECT 1 FROM users WHERE email = $1"
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += " AND id <> ALL($2)"
		args = append(args, pq.Array(ids))
	}
	query += ")"

	var exists bool
	if err := repo.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.bind(usr)

	query := fmt.Sprintf(`INSERT INTO users (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING %s`, userColumns, userColumns)
	res, err := repo.getRow(ctx, repo.getExec(exec), query,
		row.ID, row.FirstName, row.LastName, row.Email, row.Password, row.Role, row.Phone,
		row.DateOfBirth, row.Address, row.ProfilePhoto, row.IsActive, row.IsEmailVerified,
		row.EmailVerificationToken, row.PasswordResetToken, row.PasswordResetExpires,
		row.LastLogin, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return user.User{}, database.TrapError(err, "inserting user")
	}
	return repo.unbind(res), nil
}

// userOrderColumns are the columns callers may order by; anything else in the
// ordering is dropped, never interpolated.
var userOrderColumns = map[string]bool{
	"first_name": true,
	"last_name":  true,
	"email":      true,
	"role":       true,
	"is_active":  true,
	"last_login": true,
	"created_at": true,
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			p := arg(val)
			conds = append(conds, fmt.Sprintf(
				"(first_name ILIKE %s OR last_name ILIKE %s OR email ILIKE %s)", p, p, p))
		}
		if filter.Role != "" {
			conds = append(conds, "role = "+arg(filter.Role))
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}

	query := "SELECT " + userColumns + " FROM users"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if userOrderColumns[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "created_at DESC")
	}
	query += " ORDER BY " + strings.Join(orderList, ", ")

	res, err := repo.queryRows(ctx, repo.getExec(exec), query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(res))
	for _, row := range res {
		users = append(users, repo.unbind(row))
	}
	return users, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	row, err := repo.getRow(ctx, repo.getExec(exec), query, id)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by id")
	}
	return repo.unbind(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = $1"
	row, err := repo.getRow(ctx, repo.getExec(exec), query, email)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by email")
	}
	return repo.unbind(row), nil
}

// UpdateUser updates the non-zero fields of usr; credential columns are only
// touched when a new digest or token is present.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if usr.FirstName != "" {
		set("first_name", usr.FirstName)
	}
	if usr.LastName != "" {
		set("last_name", usr.LastName)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if len(usr.PasswordHash) > 0 {
		set("password", usr.PasswordHash)
	}
	if usr.Role != "" {
		set("role", usr.Role)
	}
	if usr.Phone.Valid {
		set("phone", usr.Phone)
	}
	if usr.DateOfBirth.Valid {
		set("date_of_birth", usr.DateOfBirth)
	}
	if usr.Address.Valid {
		set("address", usr.Address)
	}
	if usr.ProfilePhoto.Valid {
		set("profile_photo", usr.ProfilePhoto)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if usr.EmailVerificationToken.Valid {
		set("email_verification_token", usr.EmailVerificationToken)
	}
	if usr.PasswordResetToken.Valid {
		set("password_reset_token", usr.PasswordResetToken)
	}
	if usr.PasswordResetExpires.Valid {
		set("password_reset_expires", usr.PasswordResetExpires)
	}
	if usr.LastLogin.Valid {
		set("last_login", usr.LastLogin)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, usr.ID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns)
	row, err := repo.getRow(ctx, repo.getExec(exec), query, args...)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return repo.unbind(row), nil
}

// UpdateOrCreateUser writes usr as-is: every column takes the given value,
// nulls included. Used when invalid optionals must actually clear columns.
func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	usr.UpdatedAt = time.Now().UTC()
	row := repo.bind(usr)

	query := fmt.Sprintf(`INSERT INTO users (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (id) DO UPDATE SET
first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, email = EXCLUDED.email,
password = EXCLUDED.password, role = EXCLUDED.role, phone = EXCLUDED.phone,
date_of_birth = EXCLUDED.date_of_birth, address = EXCLUDED.address,
profile_photo = EXCLUDED.profile_photo, is_active = EXCLUDED.is_active,
is_email_verified = EXCLUDED.is_email_verified,
email_verification_token = EXCLUDED.email_verification_token,
password_reset_token = EXCLUDED.password_reset_token,
password_reset_expires = EXCLUDED.password_reset_expires, last_login = EXCLUDED.last_login,
updated_at = EXCLUDED.updated_at
RETURNING %s`, userColumns, userColumns)
	res, err := repo.getRow(ctx, repo.getExec(exec), query,
		row.ID, row.FirstName, row.LastName, row.Email, row.Password, row.Role, row.Phone,
		row.DateOfBirth, row.Address, row.ProfilePhoto, row.IsActive, row.IsEmailVerified,
		row.EmailVerificationToken, row.PasswordResetToken, row.PasswordResetExpires,
		row.LastLogin, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return user.User{}, database.TrapError(err, "upserting user")
	}
	return repo.unbind(res), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM users WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
