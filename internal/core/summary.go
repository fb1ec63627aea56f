package core

// FinancialStats is the balance/income/expense triple for a window.
type FinancialStats struct {
	Balance       Money
	TotalIncome   Money
	TotalExpenses Money
}

// CategoryPercentage is one row of the category breakdown the backend
// aggregates for the dashboard chart.
type CategoryPercentage struct {
	Category   string  `json:"category"`
	Amount     Money   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// EventStatusCounts are the completed/pending counts for a window.
type EventStatusCounts struct {
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// BulkDeleteResult separates per-event successes from failures rather
// than reporting an all-or-nothing outcome.
type BulkDeleteResult struct {
	SuccessList []string `json:"successList"`
	FailureList []string `json:"failureList"`
}
