package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/leeduo/marketdeck/internal/analysis"
)

// sessionView displays one controller's session as it streams: progress
// labels as transient lines, token text progressively, and the full render
// once the session settles or fails.
type sessionView struct {
	mu        sync.Mutex
	done      chan analysis.Session
	lastLen   int
	lastLabel string
}

func newSessionView() *sessionView {
	return &sessionView{done: make(chan analysis.Session, 1)}
}

// reset prepares the view for a fresh session.
func (v *sessionView) reset() {
	v.mu.Lock()
	v.done = make(chan analysis.Session, 1)
	v.lastLen = 0
	v.lastLabel = ""
	v.mu.Unlock()
}

// onChange is the controller callback.
func (v *sessionView) onChange(s analysis.Session) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case s.Status == analysis.StatusStreaming:
		if len(s.Accumulated) > v.lastLen {
			fmt.Print(s.Accumulated[v.lastLen:])
			v.lastLen = len(s.Accumulated)
		} else if s.ProgressLabel != v.lastLabel {
			if v.lastLen == 0 {
				DisplayProgress(s.Progress, s.ProgressLabel)
			}
			v.lastLabel = s.ProgressLabel
		}

	case s.Status == analysis.StatusReconciling:
		if v.lastLen == 0 {
			DisplayProgress(100, "Fetching persisted report...")
		}

	case s.Status.Terminal():
		select {
		case v.done <- s:
		default:
		}
	}
}

// wait blocks until the session reaches a terminal state and prints the
// final render.
func (v *sessionView) wait(ctx context.Context) error {
	select {
	case s := <-v.done:
		ClearProgress()
		fmt.Println()
		fmt.Println(s.Rendered)
		if s.Status == analysis.StatusFailed {
			fmt.Println(failStyle.Render("✗ analysis failed"))
		} else {
			fmt.Println(successStyle.Render("✓ analysis settled"))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunAnalysis runs one streaming analysis to completion and displays it.
func (a *App) RunAnalysis(ctx context.Context, sel analysis.Selection) error {
	view := newSessionView()
	ctrl := a.NewController(view.onChange)

	fmt.Printf("%s %s (%s)\n", headerStyle.Render("Analyzing"), sel.Symbol, sel.Mode.DisplayName())
	ctrl.Begin(ctx, sel)
	return view.wait(ctx)
}

// RunInteractive drives the survey-based dashboard loop. One controller
// lives for the whole loop so mode/date switches supersede the running
// session the same way tab switches do in a browser dashboard.
func (a *App) RunInteractive(ctx context.Context) error {
	DisplayBanner()

	view := newSessionView()
	ctrl := a.NewController(view.onChange)

	for {
		action, err := PromptForAction()
		if err != nil {
			return err
		}

		switch action {
		case "Analyze a symbol":
			holdings, err := a.client.ListHoldings(ctx)
			if err != nil {
				holdings = nil
			}
			symbol, err := PromptForSymbol(holdings)
			if err != nil {
				return err
			}
			mode, err := PromptForMode(analysis.Mode(a.cfg.DefaultMode))
			if err != nil {
				return err
			}
			date, err := PromptForDate()
			if err != nil {
				return err
			}
			view.reset()
			ctrl.Begin(ctx, analysis.Selection{Symbol: symbol, Mode: mode, Date: date})
			if err := view.wait(ctx); err != nil {
				return err
			}

		case "Switch analysis mode":
			mode, err := PromptForMode(analysis.Mode(a.cfg.DefaultMode))
			if err != nil {
				return err
			}
			if ctrl.Snapshot().Selection.Symbol == "" {
				fmt.Println(dimStyle.Render("no active session, analyze a symbol first"))
				continue
			}
			view.reset()
			ctrl.SwitchMode(ctx, mode)
			if err := view.wait(ctx); err != nil {
				return err
			}

		case "Switch analysis date":
			date, err := PromptForDate()
			if err != nil {
				return err
			}
			if ctrl.Snapshot().Selection.Symbol == "" {
				fmt.Println(dimStyle.Render("no active session, analyze a symbol first"))
				continue
			}
			view.reset()
			ctrl.SwitchDate(ctx, date)
			if err := view.wait(ctx); err != nil {
				return err
			}

		case "Market watchlist":
			snap, err := a.market.Refresh(ctx)
			if err != nil {
				fmt.Println(failStyle.Render("refresh failed: " + err.Error()))
				continue
			}
			DisplaySnapshot(snap)

		case "Screener candidates":
			selections, err := a.client.GetSelections(ctx, "")
			if err != nil {
				fmt.Println(failStyle.Render("fetch failed: " + err.Error()))
				continue
			}
			DisplaySelections(selections)
			symbol, err := PromptForCandidate(selections)
			if err != nil {
				return err
			}
			if symbol != "" {
				if err := a.RunCandidateJob(ctx, symbol); err != nil {
					fmt.Println(failStyle.Render(err.Error()))
				}
			}

		case "Daily report":
			if err := a.ShowLatestReport(ctx); err != nil {
				fmt.Println(failStyle.Render(err.Error()))
			}

		case "Quit":
			return nil
		}
	}
}
