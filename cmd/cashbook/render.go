package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

func renderTransactions(txs []core.Transaction, zone *time.Location) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Time", "Category", "With", "Reason", "Amount"})

	for _, tx := range txs {
		date, timeOfDay := "?", "?"
		if ms, ok := tx.Timestamp(); ok {
			date = timeutil.FormatDate(ms, zone)
			timeOfDay = timeutil.FormatTime(ms, zone)
		}
		amount := core.FormatAmount(tx.Amount.Cents)
		if tx.AmountIn {
			amount = "+" + amount
		} else {
			amount = "-" + amount
		}
		table.Append([]string{date, timeOfDay, tx.Category, tx.Counterparty(), tx.Reason, amount})
	}
	table.Render()
}

func renderEvents(events []core.CalendarEvent, zone *time.Location) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Time", "Event", "Status", "ID"})

	for _, ev := range events {
		ms, _ := ev.ResolvedTime()
		date := timeutil.FormatDate(ms, zone)
		timeOfDay := timeutil.FormatTime(ms, zone)
		status := "pending"
		if ev.EventCompleted {
			status = "done"
		}
		table.Append([]string{date, timeOfDay, ev.EventName, status, ev.EventID})
	}
	table.Render()
}

func renderStats(stats core.FinancialStats, breakdown []core.CategoryPercentage, counts core.EventStatusCounts) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Balance", "Income", "Expenses"})
	table.Append([]string{
		core.FormatAmount(stats.Balance.Cents),
		core.FormatAmount(stats.TotalIncome.Cents),
		core.FormatAmount(stats.TotalExpenses.Cents),
	})
	table.Render()

	if len(breakdown) > 0 {
		fmt.Println()
		table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Category", "Spent", "Share"})
		for _, row := range breakdown {
			table.Append([]string{
				row.Category,
				core.FormatAmount(row.Amount.Cents),
				fmt.Sprintf("%.1f%%", row.Percentage),
			})
		}
		table.Render()
	}

	fmt.Println()
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Events Done", "Events Pending"})
	table.Append([]string{strconv.Itoa(counts.Completed), strconv.Itoa(counts.Pending)})
	table.Render()
}
