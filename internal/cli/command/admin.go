package command

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/server/config"
	"github.com/foxhorn/foxyserver/internal/storage"
)

// UserCommand manages users in the persistent store. The server must not
// be running against the same data directory.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage users in the badger store",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List users",
				Action: withStore(userList),
			},
			{
				Name:      "add",
				Usage:     "Create a user",
				ArgsUsage: "<logon-name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "password", Usage: "Plain text password"},
					&cli.StringFlag{Name: "password-hash", Usage: "Encoded argon2id hash"},
					&cli.Int64SliceFlag{Name: "role", Usage: "Role id (repeatable)"},
					&cli.BoolFlag{Name: "inactive", Usage: "Create the account inactive"},
				},
				Action: withStore(userAdd),
			},
			{
				Name:      "remove",
				Usage:     "Remove a user",
				ArgsUsage: "<id>",
				Action:    withStore(userRemove),
			},
			{
				Name:      "lock",
				Usage:     "Lock an account",
				ArgsUsage: "<id>",
				Action:    withStore(userSetLocked(true)),
			},
			{
				Name:      "unlock",
				Usage:     "Unlock an account",
				ArgsUsage: "<id>",
				Action:    withStore(userSetLocked(false)),
			},
			{
				Name:      "passwd",
				Usage:     "Set a user's password",
				ArgsUsage: "<id> <password>",
				Action:    withStore(userPasswd),
			},
		},
	}
}

// RoleCommand manages roles in the persistent store.
func RoleCommand() *cli.Command {
	return &cli.Command{
		Name:  "role",
		Usage: "Manage roles in the badger store",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List roles",
				Action: withStore(roleList),
			},
			{
				Name:      "add",
				Usage:     "Create a role",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.IntSliceFlag{Name: "perm", Usage: "Permission id (repeatable)"},
				},
				Action: withStore(roleAdd),
			},
			{
				Name:      "remove",
				Usage:     "Remove a role and revoke it from every user",
				ArgsUsage: "<id>",
				Action:    withStore(roleRemove),
			},
			{
				Name:      "assign",
				Usage:     "Grant a role to a user",
				ArgsUsage: "<user-id> <role-id>",
				Action:    withStore(roleAssign),
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a role from a user",
				ArgsUsage: "<user-id> <role-id>",
				Action:    withStore(roleRevoke),
			},
		},
	}
}

type storeAction func(c *cli.Context, store *storage.BadgerCredentialStore) error

// withStore opens the configured badger store around action.
func withStore(action storeAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, _, err := loadConfig(c, nil)
		if err != nil {
			return err
		}
		if cfg.Storage.Backend != config.BackendBadger {
			return fmt.Errorf("storage.backend is %q; administration needs %q",
				cfg.Storage.Backend, config.BackendBadger)
		}

		bcfg := storage.DefaultBadgerConfig(cfg.Storage.DataDir)
		bcfg.GCInterval = 0
		store, err := storage.OpenBadger(bcfg, slog.New(slog.DiscardHandler))
		if err != nil {
			return err
		}
		defer store.Close()
		return action(c, store)
	}
}

func commandContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

func idArg(c *cli.Context, n int, name string) (int64, error) {
	raw := c.Args().Get(n)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func userList(c *cli.Context, store *storage.BadgerCredentialStore) error {
	users, err := store.ListUsers(commandContext(c))
	if err != nil {
		return err
	}
	rows := make([]*domain.Credentials, 0, len(users))
	for _, u := range users {
		rows = append(rows, u.Public())
	}
	return printResult(c, rows)
}

func userAdd(c *cli.Context, store *storage.BadgerCredentialStore) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("logon name is required")
	}

	hash := c.String("password-hash")
	if password := c.String("password"); password != "" {
		if hash != "" {
			return fmt.Errorf("--password and --password-hash are mutually exclusive")
		}
		var err error
		if hash, err = domain.HashPassword(password); err != nil {
			return err
		}
	}
	if hash == "" {
		return fmt.Errorf("--password or --password-hash is required")
	}

	created, err := store.SaveUser(commandContext(c), &domain.Credentials{
		LogonName:    name,
		PasswordHash: hash,
		Active:       !c.Bool("inactive"),
		RoleIDs:      c.Int64Slice("role"),
	})
	if err != nil {
		return err
	}
	return printResult(c, created.Public())
}

func userRemove(c *cli.Context, store *storage.BadgerCredentialStore) error {
	id, err := idArg(c, 0, "user id")
	if err != nil {
		return err
	}
	if err := store.RemoveUser(commandContext(c), id); err != nil {
		return err
	}
	fmt.Fprintf(writer(c), "user %d removed\n", id)
	return nil
}

func userSetLocked(locked bool) storeAction {
	return func(c *cli.Context, store *storage.BadgerCredentialStore) error {
		id, err := idArg(c, 0, "user id")
		if err != nil {
			return err
		}

		var creds *domain.Credentials
		if locked {
			creds, err = store.LockCredentials(commandContext(c), id)
		} else {
			creds, err = store.UnlockCredentials(commandContext(c), id)
		}
		if err != nil {
			return err
		}
		if creds == nil {
			return domain.ErrUserNotFound
		}
		return printResult(c, creds.Public())
	}
}

func userPasswd(c *cli.Context, store *storage.BadgerCredentialStore) error {
	id, err := idArg(c, 0, "user id")
	if err != nil {
		return err
	}
	password := c.Args().Get(1)
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if err := store.ChangePassword(commandContext(c), id, password); err != nil {
		return err
	}
	fmt.Fprintf(writer(c), "password of user %d changed\n", id)
	return nil
}

func roleList(c *cli.Context, store *storage.BadgerCredentialStore) error {
	roles, err := store.ListRoles(commandContext(c))
	if err != nil {
		return err
	}
	return printResult(c, roles)
}

func roleAdd(c *cli.Context, store *storage.BadgerCredentialStore) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("role name is required")
	}
	role, err := store.SaveRole(commandContext(c), &domain.Role{
		Name:        name,
		Permissions: toPermissions(c.IntSlice("perm")),
	})
	if err != nil {
		return err
	}
	return printResult(c, role)
}

func roleRemove(c *cli.Context, store *storage.BadgerCredentialStore) error {
	id, err := idArg(c, 0, "role id")
	if err != nil {
		return err
	}
	if err := store.RemoveRole(commandContext(c), id); err != nil {
		return err
	}
	fmt.Fprintf(writer(c), "role %d removed\n", id)
	return nil
}

func roleAssign(c *cli.Context, store *storage.BadgerCredentialStore) error {
	return changeMembership(c, store, true)
}

func roleRevoke(c *cli.Context, store *storage.BadgerCredentialStore) error {
	return changeMembership(c, store, false)
}

func changeMembership(c *cli.Context, store *storage.BadgerCredentialStore, grant bool) error {
	userID, err := idArg(c, 0, "user id")
	if err != nil {
		return err
	}
	roleID, err := idArg(c, 1, "role id")
	if err != nil {
		return err
	}

	ctx := commandContext(c)
	if grant {
		err = store.AssignRole(ctx, userID, roleID)
	} else {
		err = store.RevokeRole(ctx, userID, roleID)
	}
	if err != nil {
		return err
	}
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	return printResult(c, user.Public())
}
