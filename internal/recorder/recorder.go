package recorder

import (
	"time"

	"LeverageLens/internal/model"
)

// Trigger names what started a run.
type Trigger string

const (
	TriggerCLI      Trigger = "CLI"
	TriggerSchedule Trigger = "SCHEDULE"
	TriggerCommand  Trigger = "COMMAND"
	TriggerHTTP     Trigger = "HTTP"
)

// RunRecord is one completed analysis run.
type RunRecord struct {
	Trigger Trigger
	Result  *model.Result
}

// RunSummary is a stored run as listed by RecentRuns.
type RunSummary struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Trigger     Trigger   `json:"trigger"`
	SymbolA     string    `json:"symbol_a"`
	SymbolB     string    `json:"symbol_b"`
	Variant     string    `json:"variant"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	TradingDays int       `json:"trading_days"`
	UpMatched   int       `json:"up_matched"`
	DownMatched int       `json:"down_matched"`
	Correlation *float64  `json:"correlation"`
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(run *RunRecord) (string, error)
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
