package cli

import (
	"github.com/spf13/cobra"

	"github.com/iudanet/labdesk/internal/client/auth"
)

type passwordFlags struct {
	password string
	file     string
}

func (p *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.password, "password", "", "password (prefer "+PasswordEnv+" or --password-file)")
	cmd.Flags().StringVar(&p.file, "password-file", "", "read the password from a file")
}

func (c *Cli) signInCommand() *cobra.Command {
	var (
		username string
		pw       passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := c.promptIfEmpty(username, "Username: ")
			if err != nil {
				return err
			}
			password, err := c.readPassword(pw.password, pw.file, "Password: ")
			if err != nil {
				return err
			}

			claims, err := c.auth.SignIn(cmd.Context(), name, password)
			if err != nil {
				return err
			}

			c.success("Signed in as %s", claims.Subject)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	pw.register(cmd)

	return cmd
}

func (c *Cli) signUpCommand() *cobra.Command {
	var (
		in auth.SignUpInput
		pw passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.Username, err = c.promptIfEmpty(in.Username, "Username: "); err != nil {
				return err
			}
			if in.FullName, err = c.promptIfEmpty(in.FullName, "Full name: "); err != nil {
				return err
			}
			if in.Email, err = c.promptIfEmpty(in.Email, "Email: "); err != nil {
				return err
			}
			if in.Role, err = c.promptIfEmpty(in.Role, "Role (ADMIN, PROJECT_MANAGER, RESEARCHER): "); err != nil {
				return err
			}
			if in.Password, err = c.readPassword(pw.password, pw.file, "Password: "); err != nil {
				return err
			}

			claims, err := c.auth.SignUp(cmd.Context(), in)
			if err != nil {
				return err
			}

			c.success("Registered and signed in as %s", claims.Subject)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "username")
	cmd.Flags().StringVar(&in.FullName, "full-name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Role, "role", "", "role code or display name")
	pw.register(cmd)

	return cmd
}

func (c *Cli) signOutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.auth.SignOut(cmd.Context()); err != nil {
				return err
			}
			c.success("Signed out")
			return nil
		},
	}
}

func (c *Cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			claims, ok := c.session.Identity(ctx)
			if !ok {
				return auth.ErrNotAuthenticated
			}

			// Просроченный токен не удаляется: решение остается за сервером
			if claims.Expired(c.now()) {
				c.warning("Token has expired, sign in again")
			}

			user, err := c.auth.CurrentUser(ctx)
			if err != nil {
				return err
			}

			out, err := renderWhoami(user, claims.ExpiresAt)
			if err != nil {
				return err
			}
			c.title("Signed in")
			c.io.Printf("%s", out)
			return nil
		},
	}
}
