package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
)

// Notifications lists unread notifications, or with "read <id>" marks one
// as read.
func (a *App) Notifications(ctx context.Context, args []string) error {
	if len(args) == 2 && args[0] == "read" {
		if err := a.notifications.MarkRead(ctx, args[1]); err != nil {
			return a.report(err)
		}
		printlnFn("Marked as read.")
		return nil
	}

	list, err := a.notifications.List(ctx, a.currentSession().UserID, true)
	if err != nil {
		return a.report(err)
	}
	if len(list) == 0 {
		printlnFn("No unread notifications.")
		return nil
	}
	for _, n := range list {
		printlnFn(formatNotification(n))
	}
	return nil
}

func formatNotification(n models.Notification) string {
	ts := ""
	if !n.CreatedAt.IsZero() {
		ts = n.CreatedAt.Local().Format("2006-01-02 15:04") + "  "
	}
	return fmt.Sprintf("%s  %s%s", n.ID, ts, n.Message)
}

// Watch prints new notifications as they arrive until logout or exit.
func (a *App) Watch(ctx context.Context) error {
	a.mu.Lock()
	running := a.stopWatch != nil
	a.mu.Unlock()
	if running {
		printlnFn("Already watching notifications.")
		return nil
	}

	stop, err := a.notifications.Watch(ctx, a.currentSession().UserID, func(n models.Notification) {
		printlnFn("\nNew notification:", formatNotification(n))
	})
	if err != nil {
		return a.report(err)
	}

	a.mu.Lock()
	a.stopWatch = stop
	a.mu.Unlock()
	printlnFn("Watching notifications.")
	return nil
}

func (a *App) stopWatching() {
	a.mu.Lock()
	stop := a.stopWatch
	a.stopWatch = nil
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}
