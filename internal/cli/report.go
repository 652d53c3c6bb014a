package cli

import (
	"context"
	"fmt"

	"github.com/leeduo/marketdeck/internal/api"
)

// GenerateReport triggers daily report generation and polls the generator
// on the configured fixed delay until it reaches a terminal status.
func (a *App) GenerateReport(ctx context.Context, section string) error {
	ack, err := a.client.GenerateReport(ctx, section)
	if err != nil {
		return err
	}
	fmt.Println(headerStyle.Render(ack.Message))

	fetch := func(ctx context.Context) (string, string, error) {
		status, err := a.client.GetReportStatus(ctx)
		if err != nil {
			return "", "", err
		}
		return status.Status, status.Message, nil
	}

	result, err := api.Poll(ctx, a.cfg.PollInterval, fetch, func(status, message string) {
		if status == api.StatusRunning {
			DisplayProgress(0, message)
		}
	})
	ClearProgress()
	if err != nil {
		return err
	}

	if result.Status == api.StatusError {
		fmt.Println(failStyle.Render("✗ " + result.Message))
		if logs, lerr := a.client.GetReportLogs(ctx); lerr == nil {
			tail := logs.Logs
			if len(tail) > 20 {
				tail = tail[len(tail)-20:]
			}
			for _, line := range tail {
				fmt.Println(dimStyle.Render(line))
			}
		}
		return fmt.Errorf("report generation failed")
	}

	fmt.Println(successStyle.Render("✓ " + result.Message))
	return a.ShowLatestReport(ctx)
}

// ShowLatestReport fetches and displays the latest generated report.
func (a *App) ShowLatestReport(ctx context.Context) error {
	report, err := a.client.GetLatestReport(ctx)
	if err != nil {
		return err
	}

	if report.Filename != "" {
		fmt.Println(headerStyle.Render(report.Filename))
	}

	if len(report.Sections) > 0 {
		for _, key := range []string{"market", "holdings", "candidates"} {
			section := report.Sections[key]
			if section == "" {
				continue
			}
			fmt.Println(a.renderer.HTML(section))
		}
		return nil
	}

	if report.Content != "" {
		fmt.Println(a.renderer.HTML(report.Content))
	}
	return nil
}

// runJob is the shared non-streaming analysis path: trigger a backend job
// and poll its status every poll interval until terminal, then render the
// job's result.
func (a *App) runJob(
	ctx context.Context,
	start func(context.Context) (*api.Ack, error),
	status func(context.Context) (*api.JobStatus, error),
) error {
	ack, err := start(ctx)
	if err != nil {
		return err
	}
	fmt.Println(headerStyle.Render(ack.Message))

	var final *api.JobStatus
	fetch := func(ctx context.Context) (string, string, error) {
		js, err := status(ctx)
		if err != nil {
			return "", "", err
		}
		final = js
		return js.Status, js.Message, nil
	}

	result, err := api.Poll(ctx, a.cfg.PollInterval, fetch, func(status, message string) {
		if status == api.StatusRunning {
			DisplayProgress(0, message)
		}
	})
	ClearProgress()
	if err != nil {
		return err
	}

	if result.Status != api.StatusSuccess {
		fmt.Println(failStyle.Render("✗ " + result.Message))
		return fmt.Errorf("analysis job failed")
	}

	if final != nil && final.Raw != "" {
		fmt.Println(a.renderer.Markdown(final.Raw))
	} else if final != nil {
		fmt.Println(a.renderer.HTML(final.Result))
	}
	fmt.Println(successStyle.Render("✓ " + result.Message))
	return nil
}

// RunAnalysisJob runs the full holding analysis report as a background job.
func (a *App) RunAnalysisJob(ctx context.Context, symbol string) error {
	return a.runJob(ctx,
		func(ctx context.Context) (*api.Ack, error) { return a.client.StartAnalysisJob(ctx, symbol) },
		func(ctx context.Context) (*api.JobStatus, error) { return a.client.GetAnalysisJobStatus(ctx, symbol) },
	)
}

// RunRealtimeJob runs the intraday diagnosis job for a symbol.
func (a *App) RunRealtimeJob(ctx context.Context, symbol string) error {
	return a.runJob(ctx,
		func(ctx context.Context) (*api.Ack, error) { return a.client.StartRealtimeJob(ctx, symbol) },
		func(ctx context.Context) (*api.JobStatus, error) { return a.client.GetRealtimeJobStatus(ctx, symbol) },
	)
}

// RunCandidateJob runs the buy-opportunity analysis for a screener candidate.
func (a *App) RunCandidateJob(ctx context.Context, symbol string) error {
	return a.runJob(ctx,
		func(ctx context.Context) (*api.Ack, error) { return a.client.StartCandidateJob(ctx, symbol) },
		func(ctx context.Context) (*api.JobStatus, error) { return a.client.GetCandidateJobStatus(ctx, symbol) },
	)
}
