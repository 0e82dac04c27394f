package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"spark-client/pkg/push"
	"spark-client/pkg/screens"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notifs"},
	Short:   "List notifications, or follow new ones with --listen",
	RunE:    withRuntime(runNotifications),
}

var pushTokenCmd = &cobra.Command{
	Use:   "push-token <token>",
	Short: "Register a device push token",
	Long: `Store a device push token. When signed in it is sent to the server
now; otherwise it is sent after the next login.`,
	Args: cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, rt *runtime, args []string) error {
		if err := rt.push.OnNewToken(cmd.Context(), args[0]); err != nil {
			return err
		}
		if rt.session.LoggedIn() {
			fmt.Fprintln(cmd.OutOrStdout(), "Push token registered")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Push token stored, it will be sent after login")
		}
		return nil
	}),
}

func runNotifications(cmd *cobra.Command, rt *runtime, _ []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetBool("listen"); listen {
		return listenNotifications(cmd, rt)
	}

	n := screens.NewNotifications(cmd.Context(), rt.api, rt.log)
	defer n.Close()
	if err := n.Load(); err != nil {
		return stateErr(n.State(), err)
	}

	out := cmd.OutOrStdout()
	tw := newTable(out)
	fmt.Fprintln(tw, "\tWHEN\tFROM\tACTION\tCONTENT")
	for _, it := range n.State().Data {
		from := ""
		if it.Sender != nil {
			from = "@" + it.Sender.Username
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark(!it.IsRead, "*"), ago(it.CreatedAt), from, it.Action, clip(it.Content, contentWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d unread\n", n.Unread())
	return nil
}

// listenNotifications prints pushed notifications until interrupted.
func listenNotifications(cmd *cobra.Command, rt *runtime) error {
	if rt.cfg.NATSURL == "" {
		return errors.New("nats_url is not configured")
	}
	userID := rt.session.UserID()
	if userID == "" {
		return errors.New("no cached profile, run 'spark whoami' after logging in again")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := push.Connect(rt.cfg.NATSURL, rt.log)
	if err != nil {
		return err
	}
	defer nc.Close()

	out := cmd.OutOrStdout()
	svc := push.NewService(rt.session, rt.api, push.NotifierFunc(func(_ context.Context, msg push.Message) error {
		_, err := fmt.Fprintf(out, "%s: %s\n", msg.Title, msg.Body)
		return err
	}), rt.log)

	l, err := push.Listen(ctx, nc, userID, svc, rt.log)
	if err != nil {
		return err
	}
	defer l.Close()

	fmt.Fprintln(out, "Waiting for notifications, Ctrl-C to stop")
	<-ctx.Done()
	return nil
}

func init() {
	rootCmd.AddCommand(notificationsCmd, pushTokenCmd)
	notificationsCmd.Flags().Bool("listen", false, "follow notifications pushed over NATS")
}
