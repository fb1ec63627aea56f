// Command cashbook is the terminal front end: it lists and records
// transactions, manages calendar events and renders dashboard
// summaries, talking either to the live backend or to the offline
// snapshot mirror.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cashbook/internal/api"
	"cashbook/internal/cli"
	"cashbook/internal/config"
	"cashbook/internal/controller"
	"cashbook/internal/core"
	expsheets "cashbook/internal/export/sheets"
	"cashbook/internal/log"
	"cashbook/internal/source"
	"cashbook/internal/timeutil"
)

const dateFlagLayout = "02-01-2006"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "help", "-h", "--help":
		usage()
		return
	}

	cfg := cli.LoadAndValidateConfig(logger)

	zone, err := timeutil.LoadZone(cfg.DisplayTimezone)
	if err != nil {
		logger.Error("Failed to load display timezone", "error", err)
		os.Exit(1)
	}

	app, err := newApp(logger, cfg, zone)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.close()

	ctx := log.WithLogger(context.Background(), logger)

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: cashbook <command> [flags]

commands:
  list        list transactions in a date range
  add         record a new transaction
  category    list transactions of one category
  stats       show balance, cash flow and category breakdown
  events      list calendar events for a month
  event-add   create a calendar event
  event-done  mark an event completed (or pending with -undo)
  event-rm    delete events by id
  export      export transactions to Google Sheets`)
}

type app struct {
	cfg     *config.Config
	logger  *log.Logger
	zone    *time.Location
	reader  source.Reader
	client  *api.Client
	cleanup func() error
}

func newApp(logger *log.Logger, cfg *config.Config, zone *time.Location) (*app, error) {
	result := cli.InitSource(logger, cfg)

	a := &app{
		cfg:    cfg,
		logger: logger,
		zone:   zone,
		reader: result.Reader,
	}
	if result.Cleanup != nil {
		a.cleanup = result.Cleanup
	}

	// Mutations always target the live backend, regardless of the
	// configured read source.
	client, err := api.New(api.Config{
		BaseURL:   cfg.APIBaseURL,
		AuthToken: cfg.APIAuthToken,
		OrgID:     cfg.OrgID,
		UserID:    cfg.UserID,
		Timezone:  zone,
	})
	if err != nil {
		return nil, err
	}
	a.client = client
	return a, nil
}

func (a *app) close() {
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			a.logger.Warn("Cleanup failed", "error", err)
		}
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "list":
		return a.cmdList(ctx, args)
	case "add":
		return a.cmdAdd(ctx, args)
	case "category":
		return a.cmdCategory(ctx, args)
	case "stats":
		return a.cmdStats(ctx, args)
	case "events":
		return a.cmdEvents(ctx, args)
	case "event-add":
		return a.cmdEventAdd(ctx, args)
	case "event-done":
		return a.cmdEventDone(ctx, args)
	case "event-rm":
		return a.cmdEventRm(ctx, args)
	case "export":
		return a.cmdExport(ctx, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	today := timeutil.StartOfDay(time.Now().In(a.zone), a.zone)
	from, to := today, today
	var err error
	if fromStr != "" {
		from, err = time.ParseInLocation(dateFlagLayout, fromStr, a.zone)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -from %q (want DD-MM-YYYY): %w", fromStr, err)
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation(dateFlagLayout, toStr, a.zone)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -to %q (want DD-MM-YYYY): %w", toStr, err)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("-to %s is before -from %s", toStr, fromStr)
	}
	return from, to, nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fromStr := fs.String("from", "", "start date, DD-MM-YYYY (default today)")
	toStr := fs.String("to", "", "end date, DD-MM-YYYY (default today)")
	fs.Parse(args)

	from, to, err := a.parseRange(*fromStr, *toStr)
	if err != nil {
		return err
	}

	cb := controller.NewCashBook(a.reader, a.client, a.zone)
	if err := cb.SetRange(ctx, from, to); err != nil {
		return err
	}

	txs := cb.Transactions()
	if len(txs) == 0 {
		fmt.Printf("no transactions between %s\n", timeutil.FormatRange(from, to))
		return nil
	}
	renderTransactions(txs, a.zone)
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	category := fs.String("category", "", "transaction category")
	amountStr := fs.String("amount", "", "amount, e.g. 250.50")
	counterparty := fs.String("with", "", "receiver (cash out) or sender (cash in)")
	reason := fs.String("reason", "", "free-form note")
	in := fs.Bool("in", false, "record as cash in")
	dateStr := fs.String("date", "", "transaction date, DD-MM-YYYY (default today)")
	fs.Parse(args)

	cents, err := core.ParseDecimalToCents(*amountStr)
	if err != nil {
		return fmt.Errorf("parse -amount %q: %w", *amountStr, err)
	}

	date := time.Now().In(a.zone)
	if *dateStr != "" {
		date, err = time.ParseInLocation(dateFlagLayout, *dateStr, a.zone)
		if err != nil {
			return fmt.Errorf("parse -date %q (want DD-MM-YYYY): %w", *dateStr, err)
		}
	}

	cb := controller.NewCashBook(a.reader, a.client, a.zone)
	created, err := cb.Add(ctx, core.TransactionDraft{
		Category:     *category,
		Amount:       core.Money{Cents: cents},
		AmountIn:     *in,
		Counterparty: *counterparty,
		Reason:       *reason,
		Date:         date,
	})
	if err != nil {
		return err
	}

	fmt.Printf("recorded %s %s (%s)\n", created.Category, core.FormatAmount(created.Amount.Cents), created.TransactionID)
	return nil
}

func (a *app) cmdCategory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("category", flag.ExitOnError)
	name := fs.String("name", controller.AllCategories, "category name (default all)")
	fs.Parse(args)

	cat := controller.NewCategory(a.reader)
	options := cat.Options(ctx)
	known := false
	for _, opt := range options {
		if strings.EqualFold(opt, *name) {
			*name = opt
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown category %q (choose from %s)", *name, strings.Join(options, ", "))
	}

	if err := cat.Select(ctx, *name); err != nil {
		return err
	}

	txs := cat.Transactions()
	if len(txs) == 0 {
		fmt.Printf("no transactions for %s\n", *name)
		return nil
	}
	renderTransactions(txs, a.zone)
	fmt.Printf("net total: %s\n", core.FormatAmount(cat.Total().Cents))
	return nil
}

func (a *app) cmdStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	viewStr := fs.String("view", string(timeutil.ViewMonthly), "window: Daily, Weekly, Monthly or Yearly")
	fs.Parse(args)

	view := timeutil.View(*viewStr)
	switch view {
	case timeutil.ViewDaily, timeutil.ViewWeekly, timeutil.ViewMonthly, timeutil.ViewYearly:
	default:
		return fmt.Errorf("unknown view %q", *viewStr)
	}

	dash := controller.NewDashboard(a.reader, a.zone)
	if err := dash.SetView(ctx, view); err != nil {
		return err
	}

	start, end := dash.Window()
	fmt.Printf("%s (%s)\n", view, timeutil.FormatRange(start, end))
	renderStats(dash.Stats(), dash.Breakdown(), dash.EventCounts())
	return nil
}

func (a *app) cmdEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	monthStr := fs.String("month", "", "month to list, MM-YYYY (default current)")
	fs.Parse(args)

	now := time.Now().In(a.zone)
	year, month := now.Year(), now.Month()
	if *monthStr != "" {
		parsed, err := time.ParseInLocation("01-2006", *monthStr, a.zone)
		if err != nil {
			return fmt.Errorf("parse -month %q (want MM-YYYY): %w", *monthStr, err)
		}
		year, month = parsed.Year(), parsed.Month()
	}

	cal := controller.NewCalendar(a.client, a.zone)
	cal.LoadMonth(ctx, year, month)
	if cal.Phase() == controller.PhaseError {
		return fmt.Errorf("load events for %s %d failed", month, year)
	}

	events := cal.Events()
	if len(events) == 0 {
		fmt.Printf("no events in %s %d\n", month, year)
		return nil
	}
	renderEvents(events, a.zone)
	return nil
}

func (a *app) cmdEventAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("event-add", flag.ExitOnError)
	name := fs.String("name", "", "event name")
	dateStr := fs.String("date", "", "event date, DD-MM-YYYY")
	timeStr := fs.String("time", "", "event time, HH:MM (24h)")
	notify := fs.Bool("notify", true, "allow reminder notifications")
	shared := fs.Bool("shared", false, "visible to other members")
	fs.Parse(args)

	date, err := time.ParseInLocation(dateFlagLayout, *dateStr, a.zone)
	if err != nil {
		return fmt.Errorf("parse -date %q (want DD-MM-YYYY): %w", *dateStr, err)
	}
	tod, err := time.ParseInLocation("15:04", *timeStr, a.zone)
	if err != nil {
		return fmt.Errorf("parse -time %q (want HH:MM): %w", *timeStr, err)
	}

	cal := controller.NewCalendar(a.client, a.zone)
	created, err := cal.AddEvent(ctx, core.EventDraft{
		Name:                *name,
		Date:                date,
		Time:                tod,
		AllowNotification:   *notify,
		AllowToSeeThisEvent: *shared,
	})
	if err != nil {
		return err
	}

	ms, _ := created.ResolvedTime()
	fmt.Printf("created %q at %s %s (%s)\n", created.EventName,
		timeutil.FormatDate(ms, a.zone), timeutil.FormatTime(ms, a.zone), created.EventID)
	return nil
}

func (a *app) cmdEventDone(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("event-done", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	undo := fs.Bool("undo", false, "mark pending instead of completed")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("missing -id")
	}
	target := !*undo

	// Fetch current state so an already-settled event is a no-op.
	now := time.Now().In(a.zone)
	startMs := timeutil.EpochMs(timeutil.StartOfDay(now.AddDate(-1, 0, 0), a.zone))
	endMs := timeutil.EpochMs(timeutil.EndOfDay(now.AddDate(1, 0, 0), a.zone))
	events, err := a.client.EventsByDateRange(ctx, startMs, endMs)
	if err != nil {
		return err
	}
	var found *core.CalendarEvent
	for i := range events {
		if events[i].EventID == *id {
			found = &events[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("event %s not found", *id)
	}

	toggler := controller.NewStatusToggler(a.client, nil)
	sent, err := toggler.Toggle(ctx, *found, target)
	if err != nil {
		return err
	}
	if !sent {
		fmt.Printf("event %q already in the requested state\n", found.EventName)
		return nil
	}
	fmt.Printf("event %q updated\n", found.EventName)
	return nil
}

func (a *app) cmdEventRm(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("event-rm", flag.ExitOnError)
	ids := fs.String("ids", "", "comma-separated event ids")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.Parse(args)

	var eventIDs []string
	for _, id := range strings.Split(*ids, ",") {
		if id = strings.TrimSpace(id); id != "" {
			eventIDs = append(eventIDs, id)
		}
	}
	if len(eventIDs) == 0 {
		return fmt.Errorf("missing -ids")
	}

	if !*yes {
		fmt.Printf("delete %d events? [y/N] ", len(eventIDs))
		var answer string
		fmt.Scanln(&answer)
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println("aborted")
			return nil
		}
	}

	cal := controller.NewCalendar(a.client, a.zone)
	result, err := cal.DeleteEvents(ctx, eventIDs)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d events\n", len(result.SuccessList))
	if w := cal.Warning(); w != "" {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fromStr := fs.String("from", "", "start date, DD-MM-YYYY (default today)")
	toStr := fs.String("to", "", "end date, DD-MM-YYYY (default today)")
	fs.Parse(args)

	from, to, err := a.parseRange(*fromStr, *toStr)
	if err != nil {
		return err
	}

	exporter, err := expsheets.NewFromConfig(ctx, a.cfg)
	if err != nil {
		return err
	}

	startMs := timeutil.EpochMs(timeutil.StartOfDay(from, a.zone))
	endMs := timeutil.EpochMs(timeutil.EndOfDay(to, a.zone))
	txs, err := a.reader.FetchTransactions(ctx, startMs, endMs)
	if err != nil {
		return err
	}

	n, err := exporter.Export(ctx, txs)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d transactions\n", n)
	return nil
}
