package api

import "github.com/shopspring/decimal"

// Response status discriminators used across the backend API.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
	StatusNoData   = "no_data"
	StatusStarted  = "started"
	StatusRunning  = "running"
	StatusIdle     = "idle"
)

// Quote is one watched instrument from the market snapshot.
type Quote struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	AssetType      string          `json:"asset_type"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	PositionSize   int             `json:"position_size"`
	Price          decimal.Decimal `json:"price"`
	ChangePct      decimal.Decimal `json:"change_pct"`
	VolumeRatio    decimal.Decimal `json:"volume_ratio"`
	Status         string          `json:"status"`
	Alerts         []string        `json:"alerts"`
	Timestamp      string          `json:"timestamp"`
	CompositeScore decimal.Decimal `json:"composite_score"`
}

// MarketIndex is the benchmark index shown in the dashboard header.
type MarketIndex struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change_pct"`
}

// SnapshotConfig carries backend-reported monitor settings.
type SnapshotConfig struct {
	UpdateInterval int `json:"update_interval"`
}

// MarketSnapshot is the wholesale market state returned by /api/status.
type MarketSnapshot struct {
	Stocks       []Quote        `json:"stocks"`
	Index        MarketIndex    `json:"index"`
	LastUpdate   string         `json:"last_update"`
	IsMonitoring bool           `json:"is_monitoring"`
	Config       SnapshotConfig `json:"config"`
}

// Holding is one position in the watch list.
type Holding struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	AssetType    string          `json:"asset_type"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	PositionSize int             `json:"position_size"`
}

// HoldingUpdate patches cost price and/or position size.
type HoldingUpdate struct {
	CostPrice    *float64 `json:"cost_price,omitempty"`
	PositionSize *int     `json:"position_size,omitempty"`
}

// StockInfo is the result of a symbol search.
type StockInfo struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	AssetType string `json:"asset_type"`
}

// SearchResult wraps a stock search response.
type SearchResult struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Data    *StockInfo `json:"data"`
}

// Kline holds candle data formatted for charting.
// Values rows are [open, close, low, high].
type Kline struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Symbol  string              `json:"symbol"`
	Name    string              `json:"name"`
	Dates   []string            `json:"dates"`
	Values  [][]decimal.Decimal `json:"values"`
	Volumes []decimal.Decimal   `json:"volumes"`
}

// Selection is one screener candidate from the daily selections.
type Selection struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	ClosePrice     decimal.Decimal `json:"close_price"`
	VolumeRatio    decimal.Decimal `json:"volume_ratio"`
	CompositeScore decimal.Decimal `json:"composite_score"`
	AIAnalysis     string          `json:"ai_analysis"`
	SelectionDate  string          `json:"selection_date"`
}

// AnalysisPayload is the durably persisted analysis for a symbol.
type AnalysisPayload struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	AnalysisDate   string          `json:"analysis_date"`
	Price          decimal.Decimal `json:"price"`
	MA20           decimal.Decimal `json:"ma20"`
	TrendSignal    string          `json:"trend_signal"`
	CompositeScore decimal.Decimal `json:"composite_score"`
	AIAnalysis     string          `json:"ai_analysis"`
	HTML           string          `json:"html"`
}

// AnalysisResult wraps a reconciliation fetch response.
type AnalysisResult struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Data    *AnalysisPayload `json:"data"`
}

// JobStatus is one background analysis job's state.
type JobStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Result    string `json:"result"`
	Raw       string `json:"raw"`
	Timestamp string `json:"timestamp"`
}

// ReportStatus is the daily report generator's state.
type ReportStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ReportLogs is the generator's recent log tail.
type ReportLogs struct {
	Logs []string `json:"logs"`
}

// DailyReport is the latest generated strategy report, split into sections
// (market, holdings, candidates) when the backend has them.
type DailyReport struct {
	Sections map[string]string `json:"sections"`
	Content  string            `json:"content"`
	Filename string            `json:"filename"`
	Mode     string            `json:"mode"`
}

// Strategy is a screener strategy record with its prompt template and params.
type Strategy struct {
	ID       int               `json:"id"`
	Slug     string            `json:"slug"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Template string            `json:"prompt_template"`
	Params   map[string]string `json:"params"`
}

// Ack is the generic status+message acknowledgement for mutating calls.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
