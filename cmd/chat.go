package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"spark-client/pkg/chat"
	"spark-client/pkg/screens"
	"spark-client/pkg/sockets/websocket"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Private chat",
}

var chatRoomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List your chat rooms",
	RunE:  withRuntime(runChatRooms),
}

var chatOpenCmd = &cobra.Command{
	Use:   "open <roomID>",
	Short: "Open a room and chat from stdin",
	Long: `Open a room, print its history and follow new messages. Each line
typed on stdin is sent. Ctrl-D or Ctrl-C leaves the room.`,
	Args: cobra.ExactArgs(1),
	RunE: withRuntime(runChatOpen),
}

func runChatRooms(cmd *cobra.Command, rt *runtime, _ []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	l := screens.NewChatList(cmd.Context(), rt.api, rt.log)
	defer l.Close()
	if err := l.Load(); err != nil {
		return stateErr(l.State(), err)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ROOM\tWITH\tONLINE\tLAST")
	for _, r := range l.State().Data {
		m := r.Counterpart()
		last := ""
		if r.LastMessage != nil {
			last = clip(r.LastMessage.Content, contentWidth)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, m.DisplayName(), mark(m.Online, "yes"), last)
	}
	return tw.Flush()
}

// transcript prints each message of a room once.
type transcript struct {
	mu      sync.Mutex
	out     io.Writer
	printed map[string]bool
}

func (t *transcript) show(st chat.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range st.Messages {
		key := m.ID
		if m.ClientID != "" {
			key = m.ClientID
		}
		if t.printed[key] {
			continue
		}
		t.printed[key] = true
		who := m.Sender.Name
		if m.Mine {
			who = "me"
		}
		fmt.Fprintf(t.out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content)
	}
}

func runChatOpen(cmd *cobra.Command, rt *runtime, args []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if rt.app.Start(ctx) != screens.RouteMain || rt.channel.State() != websocket.Connected {
		rt.log.Warn("chat channel is offline, messages will not be delivered", zap.String("url", rt.cfg.SocketURL))
	}

	room := screens.NewChatRoom(ctx, args[0], rt.channel, rt.api, rt.session, rt.log)
	defer room.Close()

	t := &transcript{out: cmd.OutOrStdout(), printed: make(map[string]bool)}
	cancel := room.Subscribe(t.show)
	defer cancel()

	if err := room.Open(); err != nil {
		return fmt.Errorf("failed to open room: %w", err)
	}
	st := room.State()
	if st.Room != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Chatting with %s\n", st.Room.Counterpart().DisplayName())
	}
	t.show(st)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	receiver, _ := cmd.Flags().GetString("to")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := room.Send(receiver, line); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "not sent: %v\n", err)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatRoomsCmd, chatOpenCmd)

	chatOpenCmd.Flags().String("to", "", "receiver id when the room details cannot be loaded")
}

