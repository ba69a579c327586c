package main

import (
	"context"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	return cli.usrRepo.RunInTx(ctx, func(tx core.DBExecutor) error {
		usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */), tx)
		if err != nil {
			return err
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.UpdateUser(ctx, user.User{ID: usr.ID, PasswordHash: usr.PasswordHash}, nil, tx)
		return err
	})
}
