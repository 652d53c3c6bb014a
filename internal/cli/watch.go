package cli

import (
	"context"
	"fmt"
	"time"
)

// Watch polls the market snapshot on the configured interval and redraws
// the quote table until the context is cancelled.
func (a *App) Watch(ctx context.Context, withCandidates bool) error {
	refresh := func() {
		snap, err := a.market.Refresh(ctx)
		if err != nil {
			fmt.Println(failStyle.Render("refresh failed: " + err.Error()))
			return
		}

		fmt.Print("\033[H\033[2J")
		DisplaySnapshot(snap)

		if withCandidates {
			fmt.Println()
			selections, err := a.client.GetSelections(ctx, "")
			if err == nil {
				DisplaySelections(selections)
			}
		}
		fmt.Println()
		fmt.Println(dimStyle.Render(fmt.Sprintf("refreshing every %s, Ctrl-C to stop", a.cfg.WatchInterval)))
	}

	refresh()
	ticker := time.NewTicker(a.cfg.WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			refresh()
		}
	}
}
