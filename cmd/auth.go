package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"spark-client/pkg/auth"
	"spark-client/pkg/models/user"
	"spark-client/pkg/screens"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in and store the session token",
	Long: `Sign in with a username and password. The password is read from
--password or, when that is empty, from the first line of stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: withRuntime(runLogin),
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  withRuntime(runRegister),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: withRuntime(func(cmd *cobra.Command, rt *runtime, _ []string) error {
		if err := screens.NewSettings(rt.session, rt.app).Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  withRuntime(runWhoami),
}

func readSecret(cmd *cobra.Command, flag string) (string, error) {
	secret, _ := cmd.Flags().GetString(flag)
	if secret != "" {
		return secret, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", flag, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, rt *runtime, args []string) error {
	password, err := readSecret(cmd, "password")
	if err != nil {
		return err
	}

	login := screens.NewLogin(cmd.Context(), rt.api, rt.session, rt.push, rt.channel, rt.log)
	defer login.Close()
	if err := login.Login(args[0], password); err != nil {
		return stateErr(login.State(), err)
	}
	rt.app.LoggedIn()

	name := args[0]
	if u := rt.session.User(); u != nil {
		name = u.DisplayName()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
	return nil
}

func runRegister(cmd *cobra.Command, rt *runtime, args []string) error {
	password, err := readSecret(cmd, "password")
	if err != nil {
		return err
	}
	req := user.RegisterRequest{Username: args[0], Password: password}
	req.Email, _ = cmd.Flags().GetString("email")
	req.FirstName, _ = cmd.Flags().GetString("first-name")
	req.LastName, _ = cmd.Flags().GetString("last-name")

	reg := screens.NewRegister(cmd.Context(), rt.api, rt.log)
	defer reg.Close()
	if err := reg.Register(req); err != nil {
		return stateErr(reg.State(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, you can now run 'spark login %s'\n", reg.State().Data.Username, args[0])
	return nil
}

func runWhoami(cmd *cobra.Command, rt *runtime, _ []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if u := rt.session.User(); u != nil {
		fmt.Fprintf(out, "%s (@%s) id=%s\n", u.DisplayName(), u.Username, u.ID)
		fmt.Fprintf(out, "%d posts, %d followers\n", u.PostCount, u.FollowerCount)
	} else {
		fmt.Fprintln(out, "Logged in, profile not cached yet")
	}

	token, _ := rt.session.Token()
	if claims, err := auth.Inspect(token); err == nil && claims.ExpiresAt != nil {
		fmt.Fprintf(out, "Session expires %s\n", claims.ExpiresAt.Time.Format(time.RFC1123))
	}
	fmt.Fprintf(out, "Theme: %s\n", rt.app.Theme())
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringP("password", "p", "", "password (read from stdin when empty)")

	registerCmd.Flags().StringP("password", "p", "", "password (read from stdin when empty)")
	registerCmd.Flags().String("email", "", "email address")
	registerCmd.Flags().String("first-name", "", "first name")
	registerCmd.Flags().String("last-name", "", "last name")
	registerCmd.MarkFlagRequired("email")
}
