package command

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gatekeeper/internal/repository/sqlstore"
	"gatekeeper/internal/sec"
	"gatekeeper/internal/service"
)

func userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User commands",
	}
	cmd.AddCommand(
		userCreateCommand(),
		userListCommand(),
	)
	return cmd
}

func userCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create user",
		Long: "Creates a user entry for the provided username. The password is read\n" +
			"from stdin or through the interactive prompt.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			db, dialect, err := openDB(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			hasher, err := sec.NewBcryptHasher(e.cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}
			users := service.NewUserService(sqlstore.NewUserRepository(db, dialect), hasher)

			name := args[0]
			password, err := prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), "password: ", true)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			user, err := users.Register(cmd.Context(), name, password)
			if err != nil {
				return err
			}

			e.logger.WithField("id", user.ID).WithField("name", user.Username).Info("created user")
			return nil
		},
	}
}

func userListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			db, dialect, err := openDB(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			users, err := sqlstore.NewUserRepository(db, dialect).List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
