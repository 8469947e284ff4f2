package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

type credentialFlags struct {
	email    string
	password string
}

func (c *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.email, "email", "", "account email")
	cmd.Flags().StringVar(&c.password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

func (a *app) newSignUpCmd() *cobra.Command {
	var (
		creds    credentialFlags
		fullName string
		role     string
		data     string
	)
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account without signing in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			meta := types.UserMetadata{}
			if data != "" {
				rec, err := parseRecord(data)
				if err != nil {
					return err
				}
				for k, v := range rec {
					meta[k] = v
				}
			}
			if fullName != "" {
				meta[types.MetaFullName] = fullName
			}
			if role != "" {
				meta[types.MetaRole] = role
			}
			return a.withClient(cmd, func(client types.Client) error {
				user, err := client.Auth().SignUp(cmd.Context(), types.SignUpParams{
					Email:    creds.email,
					Password: creds.password,
					Data:     meta,
				})
				if err != nil {
					return err
				}
				return a.printUser(cmd, user)
			})
		},
	}
	creds.register(cmd)
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&role, "role", "", "staff role (default: Sales Agent)")
	cmd.Flags().StringVar(&data, "data", "", "extra user metadata as a JSON object")
	return cmd
}

func (a *app) newSignInCmd() *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(client types.Client) error {
				sess, err := client.Auth().SignInWithPassword(cmd.Context(), types.Credentials{
					Email:    creds.email,
					Password: creds.password,
				})
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd, sess)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.User.Email)
				return nil
			})
		},
	}
	creds.register(cmd)
	return cmd
}

func (a *app) newSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(client types.Client) error {
				if err := client.Auth().SignOut(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func (a *app) newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(client types.Client) error {
				return a.printUser(cmd, client.Auth().GetUser())
			})
		},
	}
}

func (a *app) newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Privileged account management",
	}
	admin.AddCommand(a.newAdminUpdateUserCmd())
	return admin
}

func (a *app) newAdminUpdateUserCmd() *cobra.Command {
	var (
		email    string
		password string
		metadata string
	)
	cmd := &cobra.Command{
		Use:     "update-user <id>",
		Short:   "Update a user's email, password, or metadata",
		Example: `  nexus admin update-user user_admin_001 --metadata '{"mobile":"+65 8123 4567"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := types.AdminUserAttributes{Email: email, Password: password}
			if metadata != "" {
				rec, err := parseRecord(metadata)
				if err != nil {
					return err
				}
				attrs.UserMetadata = types.UserMetadata(rec)
			}
			if attrs.Email == "" && attrs.Password == "" && attrs.UserMetadata == nil {
				return usagef("nothing to update: pass --email, --password, or --metadata")
			}
			return a.withClient(cmd, func(client types.Client) error {
				user, err := client.Auth().Admin().UpdateUserByID(cmd.Context(), args[0], attrs)
				if err != nil {
					return err
				}
				return a.printUser(cmd, user)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().StringVar(&metadata, "metadata", "", "metadata to merge, as a JSON object")
	return cmd
}
