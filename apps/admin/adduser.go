package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(fname, lname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	// lookup and upsert commit as one
	return cli.usrRepo.RunInTx(ctx, func(tx core.DBExecutor) error {
		usr, err := cli.usrRepo.GetUserByEmail(ctx, email, tx)
		if err != nil {
			if errors.Cause(err) != user.ErrNotFound {
				return err
			}
			now := time.Now().UTC()
			usr = user.User{
				FirstName: core.CleanString(fname),
				LastName:  core.CleanString(lname),
				Email:     email,
				Role:      user.RoleStudent,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}
		if isAdmin {
			usr.Role = user.RoleAdmin
		}
		usr.IsActive = true
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr, tx)
		return err
	})
}
