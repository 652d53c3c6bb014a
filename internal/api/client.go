package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a typed wrapper over the monitor backend's REST surface.
type Client struct {
	client *resty.Client
	retry  *RetryConfig
}

// NewClient creates a backend API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)

	return &Client{
		client: client,
		retry:  DefaultRetryConfig(),
	}
}

// Resty exposes the underlying resty client so the stream consumer can
// reuse the same base URL and transport settings.
func (c *Client) Resty() *resty.Client {
	return c.client
}

// getJSON fetches path with query params and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, out interface{}) error {
	return WithRetry(c.retry, func() error {
		req := c.client.R().SetContext(ctx)
		if len(params) > 0 {
			req.SetQueryParams(params)
		}
		resp, err := req.Get(path)
		if err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode(), resp.String())
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("GET %s: decode: %w", path, err)
		}
		return nil
	})
}

// do issues a mutating request exactly once and decodes the body into out.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode(), resp.String())
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return nil
}

// --- Market state ---

// GetStatus returns the cached market snapshot the backend poller maintains.
func (c *Client) GetStatus(ctx context.Context) (*MarketSnapshot, error) {
	var snap MarketSnapshot
	if err := c.getJSON(ctx, "/api/status", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// RefreshRealtime forces one realtime quote refresh on the backend.
func (c *Client) RefreshRealtime(ctx context.Context) (*MarketSnapshot, error) {
	var snap MarketSnapshot
	if err := c.do(ctx, resty.MethodPost, "/api/realtime/refresh", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ToggleMonitor flips the backend's monitoring loop on or off.
func (c *Client) ToggleMonitor(ctx context.Context) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, resty.MethodPost, "/api/monitor/toggle", nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// GetKline returns candle data for charting.
func (c *Client) GetKline(ctx context.Context, symbol string) (*Kline, error) {
	var k Kline
	if err := c.getJSON(ctx, "/api/kline/"+symbol, nil, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// --- Holdings ---

// ListHoldings returns all watched holdings.
func (c *Client) ListHoldings(ctx context.Context) ([]Holding, error) {
	var holdings []Holding
	if err := c.getJSON(ctx, "/api/holdings", nil, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

// AddHolding registers a new holding on the backend.
func (c *Client) AddHolding(ctx context.Context, h Holding) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, resty.MethodPost, "/api/holdings", h, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// UpdateHolding patches an existing holding.
func (c *Client) UpdateHolding(ctx context.Context, symbol string, upd HoldingUpdate) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, resty.MethodPut, "/api/holdings/"+symbol, upd, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// DeleteHolding removes a holding from the watch list.
func (c *Client) DeleteHolding(ctx context.Context, symbol string) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, resty.MethodDelete, "/api/holdings/"+symbol, nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// SearchStock looks up basic info for a symbol.
func (c *Client) SearchStock(ctx context.Context, symbol string) (*SearchResult, error) {
	var result SearchResult
	if err := c.getJSON(ctx, "/api/stock/search/"+symbol, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Screener selections ---

// GetSelections returns the screener's daily candidates. An empty date means
// the latest selection day.
func (c *Client) GetSelections(ctx context.Context, date string) ([]Selection, error) {
	params := map[string]string{}
	if date != "" {
		params["date"] = date
	}
	var selections []Selection
	if err := c.getJSON(ctx, "/api/selections", params, &selections); err != nil {
		return nil, err
	}
	return selections, nil
}

// --- Analysis reconciliation ---

// GetLatestAnalysis fetches the most recent persisted analysis for a symbol.
func (c *Client) GetLatestAnalysis(ctx context.Context, symbol string) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := c.getJSON(ctx, "/api/analyze/"+symbol+"/latest", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAnalysisHistory fetches the persisted analysis for a symbol on a given date.
func (c *Client) GetAnalysisHistory(ctx context.Context, symbol, date string) (*AnalysisResult, error) {
	var result AnalysisResult
	params := map[string]string{"date": date}
	if err := c.getJSON(ctx, "/api/analyze/"+symbol+"/history", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Background analysis jobs ---

// StartAnalysisJob triggers a full holding analysis report for a symbol.
func (c *Client) StartAnalysisJob(ctx context.Context, symbol string) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, resty.MethodPost, "/api/analyze/"+symbol+"/report", nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// GetAnalysisJobStatus reports the state of a symbol's analysis job.
func (c *Client) GetAnalysisJobStatus(ctx context.Context, symbol string) (*JobStatus, error) {
	var status JobStatus
	if err := c.getJSON(ctx, "/api/analyze/"+symbol+"/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartRealtimeJob triggers an intraday diagnosis for a symbol.
func (c *Client) StartRealtimeJob(ctx context.Context, symbol string) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, resty.MethodPost, "/api/analyze/"+symbol+"/realtime", nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// GetRealtimeJobStatus reports the state of a symbol's intraday diagnosis.
func (c *Client) GetRealtimeJobStatus(ctx context.Context, symbol string) (*JobStatus, error) {
	var status JobStatus
	if err := c.getJSON(ctx, "/api/analyze/"+symbol+"/realtime/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartCandidateJob triggers a buy-opportunity analysis for a screener candidate.
func (c *Client) StartCandidateJob(ctx context.Context, symbol string) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, resty.MethodPost, "/api/analyze/candidate/"+symbol, nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// GetCandidateJobStatus reports the state of a candidate analysis job.
func (c *Client) GetCandidateJobStatus(ctx context.Context, symbol string) (*JobStatus, error) {
	var status JobStatus
	if err := c.getJSON(ctx, "/api/analyze/candidate/"+symbol+"/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// --- Daily report ---

// GenerateReport starts daily report generation for a section ("all" by default).
func (c *Client) GenerateReport(ctx context.Context, section string) (*Ack, error) {
	if section == "" {
		section = "all"
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("section", section).
		Post("/api/report/generate")
	if err != nil {
		return nil, fmt.Errorf("POST /api/report/generate: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("POST /api/report/generate: status %d: %s", resp.StatusCode(), resp.String())
	}
	var ack Ack
	if err := json.Unmarshal(resp.Body(), &ack); err != nil {
		return nil, fmt.Errorf("POST /api/report/generate: decode: %w", err)
	}
	return &ack, nil
}

// GetReportStatus reports the generator's current state.
func (c *Client) GetReportStatus(ctx context.Context) (*ReportStatus, error) {
	var status ReportStatus
	if err := c.getJSON(ctx, "/api/report/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetReportLogs returns the generator's recent log lines.
func (c *Client) GetReportLogs(ctx context.Context) (*ReportLogs, error) {
	var logs ReportLogs
	if err := c.getJSON(ctx, "/api/report/logs", nil, &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// GetLatestReport returns the most recent generated strategy report.
func (c *Client) GetLatestReport(ctx context.Context) (*DailyReport, error) {
	var report DailyReport
	if err := c.getJSON(ctx, "/api/report/latest", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// --- Strategies ---

// ListStrategies returns all screener strategies.
func (c *Client) ListStrategies(ctx context.Context) ([]Strategy, error) {
	var strategies []Strategy
	if err := c.getJSON(ctx, "/api/strategies", nil, &strategies); err != nil {
		return nil, err
	}
	return strategies, nil
}

// GetStrategy returns one strategy with its params by slug.
func (c *Client) GetStrategy(ctx context.Context, slug string) (*Strategy, error) {
	var strategy Strategy
	if err := c.getJSON(ctx, "/api/strategies/"+slug, nil, &strategy); err != nil {
		return nil, err
	}
	return &strategy, nil
}

// UpdateStrategyTemplate replaces a strategy's prompt template.
func (c *Client) UpdateStrategyTemplate(ctx context.Context, id int, template string) (*Ack, error) {
	body := map[string]string{"template": template}
	var ack Ack
	err := c.do(ctx, resty.MethodPost, fmt.Sprintf("/api/strategies/%d/template", id), body, &ack)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// UpdateStrategyParam sets one strategy parameter.
func (c *Client) UpdateStrategyParam(ctx context.Context, id int, key, value string) (*Ack, error) {
	body := map[string]string{"key": key, "value": value}
	var ack Ack
	err := c.do(ctx, resty.MethodPost, fmt.Sprintf("/api/strategies/%d/params", id), body, &ack)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
