package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/leeduo/marketdeck/internal/analysis"
	"github.com/leeduo/marketdeck/internal/api"
	"github.com/leeduo/marketdeck/internal/config"
)

const version = "0.3.0"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "marketdeck",
		Short: "MarketDeck - terminal dashboard for the stock monitor backend",
		Long: `MarketDeck is a terminal client for the A-share monitor backend.
It watches quotes, streams AI analysis for a symbol, browses screener
candidates and edits strategy templates, all over the backend's REST/SSE API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunInteractive(signalContext())
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newWatchCmd(cfg))
	rootCmd.AddCommand(newKlineCmd(cfg))
	rootCmd.AddCommand(newReportCmd(cfg))
	rootCmd.AddCommand(newStrategiesCmd(cfg))
	rootCmd.AddCommand(newHoldingsCmd(cfg))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "Backend base URL")
	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug mode")

	return rootCmd
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var mode string
	var date string
	var job bool
	var realtime bool
	var candidate bool

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Stream an AI analysis for a symbol",
		Long: `Run an AI analysis for a symbol. By default the analysis is streamed
live; --job uses the backend's background-job path with status polling,
--realtime runs an intraday diagnosis and --candidate a buy-opportunity
analysis for a screener candidate.
Example: marketdeck analyze 600519 --mode multi_agent --date 2025-08-15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := signalContext()
			switch {
			case realtime:
				return app.RunRealtimeJob(ctx, args[0])
			case candidate:
				return app.RunCandidateJob(ctx, args[0])
			case job:
				return app.RunAnalysisJob(ctx, args[0])
			}
			return app.RunAnalysis(ctx, analysis.Selection{
				Symbol: args[0],
				Mode:   analysis.Mode(mode),
				Date:   date,
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", cfg.DefaultMode, "Analysis mode (multi_agent|single_expert)")
	cmd.Flags().StringVar(&date, "date", "", "Analysis date (YYYY-MM-DD), empty for latest")
	cmd.Flags().BoolVar(&job, "job", false, "Use the background-job path instead of streaming")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "Run an intraday diagnosis job")
	cmd.Flags().BoolVar(&candidate, "candidate", false, "Run a buy-opportunity analysis for a screener candidate")
	cmd.MarkFlagsMutuallyExclusive("job", "realtime", "candidate")
	return cmd
}

func newWatchCmd(cfg *config.Config) *cobra.Command {
	var candidates bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the market snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			err = app.Watch(signalContext(), candidates)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&candidates, "candidates", false, "Also show screener candidates")
	return cmd
}

func newKlineCmd(cfg *config.Config) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "kline SYMBOL",
		Short: "Show recent candles for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			k, err := app.client.GetKline(signalContext(), args[0])
			if err != nil {
				return err
			}
			if k.Status != api.StatusSuccess {
				return fmt.Errorf("kline: %s", k.Message)
			}
			DisplayKline(k, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 20, "Number of sessions to show")
	return cmd
}

func newReportCmd(cfg *config.Config) *cobra.Command {
	var section string
	var show bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate or show the daily strategy report",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := signalContext()
			if show {
				return app.ShowLatestReport(ctx)
			}
			return app.GenerateReport(ctx, section)
		},
	}

	cmd.Flags().StringVar(&section, "section", "all", "Report section (all|market|holdings|candidates)")
	cmd.Flags().BoolVar(&show, "show", false, "Show the latest report without regenerating")
	return cmd
}

func newStrategiesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "Browse and edit screener strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			strategies, err := app.strategies.Refresh(signalContext())
			if err != nil {
				return err
			}
			fmt.Printf("%-4s %-20s %-24s %s\n", "ID", "SLUG", "NAME", "CATEGORY")
			for _, s := range strategies {
				fmt.Printf("%-4d %-20s %-24s %s\n", s.ID, s.Slug, truncate(s.Name, 24), s.Category)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show SLUG",
		Short: "Show a strategy's template and params",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			strategy, err := app.strategies.Get(signalContext(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(headerStyle.Render(fmt.Sprintf("%s (#%d, %s)", strategy.Name, strategy.ID, strategy.Category)))
			if len(strategy.Params) > 0 {
				keys := make([]string, 0, len(strategy.Params))
				for k := range strategy.Params {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("  %s = %s\n", k, strategy.Params[k])
				}
			}
			fmt.Println()
			fmt.Println(strategy.Template)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-template ID FILE",
		Short: "Replace a strategy's prompt template from a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid strategy id: %s", args[0])
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if err := app.strategies.UpdateTemplate(signalContext(), id, string(data)); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ template updated"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-param ID KEY VALUE",
		Short: "Set a strategy parameter",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid strategy id: %s", args[0])
			}
			if err := app.strategies.UpdateParam(signalContext(), id, args[1], args[2]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ param updated"))
			return nil
		},
	})

	return cmd
}

func newHoldingsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "Manage the watched holdings",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			holdings, err := app.client.ListHoldings(signalContext())
			if err != nil {
				return err
			}
			fmt.Printf("%-10s %-14s %-8s %10s %10s\n", "SYMBOL", "NAME", "TYPE", "COST", "POSITION")
			for _, h := range holdings {
				fmt.Printf("%-10s %-14s %-8s %10s %10d\n",
					h.Symbol, truncate(h.Name, 14), h.AssetType, h.CostPrice.StringFixed(2), h.PositionSize)
			}
			return nil
		},
	}

	var name, assetType string
	var cost float64
	var position int
	addCmd := &cobra.Command{
		Use:   "add SYMBOL",
		Short: "Add a holding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := signalContext()
			symbol := args[0]
			if name == "" {
				if result, err := app.client.SearchStock(ctx, symbol); err == nil &&
					result.Status == api.StatusSuccess && result.Data != nil {
					name = result.Data.Name
				}
			}
			h := api.Holding{
				Symbol:       symbol,
				Name:         name,
				AssetType:    assetType,
				CostPrice:    decimal.NewFromFloat(cost),
				PositionSize: position,
			}
			ack, err := app.client.AddHolding(ctx, h)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ " + ack.Message))
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "Display name (resolved via search when empty)")
	addCmd.Flags().StringVar(&assetType, "type", "stock", "Asset type (stock|etf|crypto|future)")
	addCmd.Flags().Float64Var(&cost, "cost", 0, "Cost price")
	addCmd.Flags().IntVar(&position, "position", 0, "Position size")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm SYMBOL",
		Short: "Remove a holding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ack, err := app.client.DeleteHolding(signalContext(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ " + ack.Message))
			return nil
		},
	})

	var setCost float64
	var setPosition int
	setCmd := &cobra.Command{
		Use:   "set SYMBOL",
		Short: "Update a holding's cost price or position size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			upd := api.HoldingUpdate{}
			if cmd.Flags().Changed("cost") {
				upd.CostPrice = &setCost
			}
			if cmd.Flags().Changed("position") {
				upd.PositionSize = &setPosition
			}
			ack, err := app.client.UpdateHolding(signalContext(), args[0], upd)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ " + ack.Message))
			return nil
		},
	}
	setCmd.Flags().Float64Var(&setCost, "cost", 0, "New cost price")
	setCmd.Flags().IntVar(&setPosition, "position", 0, "New position size")
	cmd.AddCommand(setCmd)

	return cmd
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "Show locally recorded analysis sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.history == nil {
				return fmt.Errorf("local history is disabled")
			}
			items, err := app.history.ListSessions(signalContext(), args[0], limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println(dimStyle.Render("no recorded sessions for " + args[0]))
				return nil
			}
			for _, item := range items {
				date := item.Date
				if date == "" {
					date = "latest"
				}
				fmt.Println(headerStyle.Render(fmt.Sprintf("%s  %s  %s  (%s)",
					item.Symbol, item.Mode, date, item.CreatedAt)))
				fmt.Println(app.renderer.Markdown(item.Markdown))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Max sessions to show")
	return cmd
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("marketdeck %s\n", version)
		},
	}
}
