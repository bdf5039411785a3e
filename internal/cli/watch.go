package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"homebroker/pkg/notifyclient"

	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Token string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a user's notifications live",
		Long: `Fetch a user's notifications and follow the live stream, printing the
list summary after every change. Stops on Ctrl-C.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Token, "token", "", "session access token of the user to watch")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	feed := notifyclient.NewFeed(notifyclient.New(cfg.Notifications.BaseURL, opts.Token))
	feed.OnChange(func(items []notifyclient.Notification) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, summarize(items))
	})

	if err := feed.Mount(ctx); err != nil {
		stop()
		feed.Wait()
		return fmt.Errorf("load notifications: %w", err)
	}
	return feed.Wait()
}

func summarize(items []notifyclient.Notification) string {
	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}
	if len(items) == 0 {
		return "0 notifications"
	}
	latest := items[0]
	return fmt.Sprintf("%d notifications, %d unread; latest #%d [%s] %s",
		len(items), unread, latest.ID, latest.Type, latest.Message())
}
