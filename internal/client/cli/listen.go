package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/labdesk/internal/client/notify"
	"github.com/iudanet/labdesk/pkg/api"
)

func (c *Cli) listenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Show platform notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listener := notify.NewListener(c.cfg.PushURL, c.session, c.logger)

			c.io.Println(mutedStyle.Render("Listening for notifications, press Ctrl-C to stop"))

			var mu sync.Mutex
			return listener.Listen(ctx, func(_ context.Context, n api.Notification) {
				mu.Lock()
				defer mu.Unlock()
				c.notification(n)
			})
		},
	}
}

// notification печатает push уведомление как toast
func (c *Cli) notification(n api.Notification) {
	style := infoStyle
	switch {
	case strings.HasSuffix(n.Type, "_DELETED"):
		style = warningStyle
	case strings.HasSuffix(n.Type, "_FAILED"):
		style = failureStyle
	case strings.HasPrefix(n.Type, "BACKUP_"):
		style = successStyle
	}
	c.io.Println(style.Render("● "+n.Type) + " " + n.Message)
}
