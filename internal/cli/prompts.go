package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/leeduo/marketdeck/internal/analysis"
	"github.com/leeduo/marketdeck/internal/api"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+$`)

// PromptForSymbol asks for a symbol, offering the watched holdings as
// choices when available.
func PromptForSymbol(holdings []api.Holding) (string, error) {
	if len(holdings) > 0 {
		options := make([]string, 0, len(holdings)+1)
		for _, h := range holdings {
			options = append(options, fmt.Sprintf("%s  %s", h.Symbol, h.Name))
		}
		options = append(options, "Other symbol...")

		var choice string
		prompt := &survey.Select{
			Message:  "Select a symbol:",
			Options:  options,
			PageSize: 12,
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return "", err
		}
		if choice != "Other symbol..." {
			return strings.Fields(choice)[0], nil
		}
	}

	var symbol string
	prompt := &survey.Input{
		Message: "Enter the stock symbol (e.g., 600519, 300750):",
		Help:    "Any symbol the backend can resolve, including ETFs",
	}
	err := survey.AskOne(prompt, &symbol, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return fmt.Errorf("symbol cannot be empty")
		}
		if !symbolPattern.MatchString(str) {
			return fmt.Errorf("invalid symbol format")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(symbol), nil
}

// PromptForMode asks which analysis strategy to run.
func PromptForMode(defaultMode analysis.Mode) (analysis.Mode, error) {
	modes := []analysis.Mode{analysis.ModeMultiAgent, analysis.ModeSingleExpert}

	options := make([]string, len(modes))
	defaultOption := ""
	for i, m := range modes {
		options[i] = m.DisplayName()
		if m == defaultMode {
			defaultOption = options[i]
		}
	}

	var choice string
	prompt := &survey.Select{
		Message: "Select the analysis mode:",
		Options: options,
		Default: defaultOption,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}

	for i, m := range modes {
		if options[i] == choice {
			return m, nil
		}
	}
	return defaultMode, nil
}

// PromptForDate asks for an analysis date. Empty means the latest.
func PromptForDate() (string, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "Analysis date (YYYY-MM-DD), empty for latest:",
		Help:    "A past date replays the persisted analysis for that day",
	}
	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil
		}
		parsed, err := time.Parse("2006-01-02", str)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		if parsed.After(time.Now()) {
			return fmt.Errorf("analysis date cannot be in the future")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(dateStr), nil
}

// PromptForCandidate offers a buy-opportunity analysis for one of the
// screener's candidates. Empty means skip.
func PromptForCandidate(selections []api.Selection) (string, error) {
	if len(selections) == 0 {
		return "", nil
	}

	const skip = "Back"
	options := make([]string, 0, len(selections)+1)
	for _, sel := range selections {
		options = append(options, fmt.Sprintf("%s  %s", sel.Symbol, sel.Name))
	}
	options = append(options, skip)

	var choice string
	prompt := &survey.Select{
		Message:  "Analyze a candidate's buy opportunity?",
		Options:  options,
		Default:  skip,
		PageSize: 12,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}
	if choice == skip {
		return "", nil
	}
	return strings.Fields(choice)[0], nil
}

// PromptForAction asks what to do next in the interactive dashboard.
func PromptForAction() (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: "What next?",
		Options: []string{
			"Analyze a symbol",
			"Switch analysis mode",
			"Switch analysis date",
			"Market watchlist",
			"Screener candidates",
			"Daily report",
			"Quit",
		},
	}
	err := survey.AskOne(prompt, &choice)
	return choice, err
}
