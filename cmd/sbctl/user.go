package main

import (
	"context"
	"fmt"

	"soulbalance/internal/data"
	"soulbalance/internal/service"

	"github.com/spf13/cobra"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userSetRoleCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var username, email, password, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long: `Create a user account with the given role.

Examples:
  # Create the first administrator
  sbctl user create --username mira --email mira@example.com --password namaste123 --role admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			users := service.NewUserService(data.NewUserRepository(db))
			u, err := users.CreateUser(context.Background(), username, email, password, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (letters, numbers and underscores)")
	cmd.Flags().StringVar(&email, "email", "", "E-mail address used to log in")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 8 characters")
	cmd.Flags().StringVar(&role, "role", data.RoleUser, "Role: user or admin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change the role of an existing user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			users := service.NewUserService(data.NewUserRepository(db))
			if err := users.SetRole(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], args[1])
			return nil
		},
	}
}
