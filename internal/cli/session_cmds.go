package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"carservice/internal/auth"
	apperrors "carservice/internal/errors"
	"carservice/internal/service"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password is required")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			sess, err := app.auth.Login(cmd.Context(), username, password)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrInvalidCredentials):
				return errors.New("invalid credentials")
			case errors.Is(err, apperrors.ErrInvalidRole):
				return errors.New("invalid role")
			case apperrors.KindOf(err) != apperrors.KindUnknown:
				return errors.New(apperrors.UserMessage(err))
			default:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", sess.Username, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, prompted when empty")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := app.session(ctx)
			if errors.Is(err, ErrNotLoggedIn) || errors.Is(err, ErrSessionExpired) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}
			if err := app.auth.Logout(ctx, sess.ID.String()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", sess.Username, sess.Role)
			if info, err := auth.Inspect(sess.Token); err == nil && !info.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "token expires %s\n", info.ExpiresAt.Local().Format(time.RFC1123))
			}
			fmt.Fprintf(out, "session file %s\n", app.store.Path())
			return nil
		},
	}
}
