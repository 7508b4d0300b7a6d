package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/app"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/gcsuploader"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/period"
	"github.com/dvloznov/finance-insights/internal/pipeline"
	"github.com/dvloznov/finance-insights/internal/report"
	"github.com/dvloznov/finance-insights/internal/stats"
	"github.com/dvloznov/finance-insights/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "stats":
		runStats(log)
	case "evaluate":
		runEvaluate(log)
	case "notifications":
		runNotifications(log)
	case "read":
		runRead(log)
	case "dismiss":
		runDismiss(log)
	case "seed":
		runSeed(log)
	case "init-config":
		runInitConfig(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Insights CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  stats          Show the period summary for a user")
	fmt.Println("  evaluate       Run the notification rules for a user")
	fmt.Println("  notifications  List a user's notifications")
	fmt.Println("  read           Mark one or all notifications as read")
	fmt.Println("  dismiss        Dismiss a notification")
	fmt.Println("  seed           Load a JSON snapshot into the configured store")
	fmt.Println("  init-config    Write the default configuration to a file")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// session is the state shared by commands that need the store.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	app    *app.App
}

func (s *session) Close() {
	s.app.Close()
	s.cancel()
}

func open(log zerolog.Logger, configPath string) *session {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	ctx = logger.WithContext(ctx, log)

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	return &session{ctx: ctx, cancel: cancel, app: a}
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", os.Getenv("FINANCE_CONFIG"), "Path to YAML config file")
}

func requireUser(log zerolog.Logger, userID string) {
	if userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func runStats(log zerolog.Logger) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := configFlag(fs)
	userID := fs.String("user", "", "User ID")
	periodName := fs.String("period", "month", "week, month, semester or year")
	from := fs.String("from", "", "Custom range start (YYYY-MM-DD)")
	to := fs.String("to", "", "Custom range end (YYYY-MM-DD)")
	asJSON := fs.Bool("json", false, "Print JSON instead of tables")
	fs.Parse(os.Args[2:])

	requireUser(log, *userID)

	sel, err := selection(*periodName, *from, *to, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid range")
	}

	s := open(log, *configPath)
	defer s.Close()

	sum, err := s.app.Stats.Summarize(s.ctx, *userID, sel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute stats")
	}

	if *asJSON {
		printJSON(sum)
		return
	}
	report.WriteSummary(os.Stdout, sum, report.Options{Currency: s.app.Currency})
}

func runEvaluate(log zerolog.Logger) {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	configPath := configFlag(fs)
	userID := fs.String("user", "", "User ID (omit with -all)")
	all := fs.Bool("all", false, "Evaluate every known user")
	fs.Parse(os.Args[2:])

	if !*all {
		requireUser(log, *userID)
	}

	s := open(log, *configPath)
	defer s.Close()

	users := []string{*userID}
	if *all {
		var err error
		users, err = s.app.Users().ListUserIDs(s.ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list users")
		}
	}

	for _, u := range users {
		res, err := s.app.Notify.Run(s.ctx, u)
		if err != nil {
			log.Error().Err(err).Str("user_id", u).Msg("Evaluation failed")
			continue
		}
		fmt.Printf("%s: %d candidates, %d new, %d duplicates, %d failed\n",
			u, res.Candidates, res.Inserted, res.Duplicates, res.Failed)
		for _, fe := range res.FetchErrors {
			fmt.Printf("  warning: %s\n", fe)
		}
	}
}

func runNotifications(log zerolog.Logger) {
	fs := flag.NewFlagSet("notifications", flag.ExitOnError)
	configPath := configFlag(fs)
	userID := fs.String("user", "", "User ID")
	unread := fs.Bool("unread", false, "Only unread notifications")
	dismissed := fs.Bool("include-dismissed", false, "Include dismissed notifications")
	limit := fs.Int("limit", 50, "Maximum number of notifications")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	fs.Parse(os.Args[2:])

	requireUser(log, *userID)

	s := open(log, *configPath)
	defer s.Close()

	list, err := s.app.Repo.ListNotifications(s.ctx, *userID, store.NotificationFilter{
		UnreadOnly:       *unread,
		IncludeDismissed: *dismissed,
		Limit:            *limit,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list notifications")
	}

	if *asJSON {
		printJSON(list)
		return
	}
	report.WriteNotifications(os.Stdout, list, report.Options{Currency: s.app.Currency})
}

func runRead(log zerolog.Logger) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	configPath := configFlag(fs)
	userID := fs.String("user", "", "User ID")
	id := fs.String("id", "", "Notification ID")
	all := fs.Bool("all", false, "Mark every notification as read")
	fs.Parse(os.Args[2:])

	requireUser(log, *userID)
	if *id == "" && !*all {
		log.Fatal().Msg("Error: --id or --all is required")
	}

	s := open(log, *configPath)
	defer s.Close()

	if *all {
		n, err := s.app.Repo.MarkAllRead(s.ctx, *userID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to mark notifications read")
		}
		fmt.Printf("Marked %d notifications as read.\n", n)
		return
	}

	if err := s.app.Repo.MarkRead(s.ctx, *userID, *id); err != nil {
		log.Fatal().Err(err).Str("notification_id", *id).Msg("Failed to mark notification read")
	}
	fmt.Println("Marked as read.")
}

func runDismiss(log zerolog.Logger) {
	fs := flag.NewFlagSet("dismiss", flag.ExitOnError)
	configPath := configFlag(fs)
	userID := fs.String("user", "", "User ID")
	id := fs.String("id", "", "Notification ID")
	fs.Parse(os.Args[2:])

	requireUser(log, *userID)
	if *id == "" {
		log.Fatal().Msg("Error: --id is required")
	}

	s := open(log, *configPath)
	defer s.Close()

	if err := s.app.Repo.Dismiss(s.ctx, *userID, *id); err != nil {
		log.Fatal().Err(err).Str("notification_id", *id).Msg("Failed to dismiss notification")
	}
	fmt.Println("Dismissed.")
}

func runSeed(log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := configFlag(fs)
	source := fs.String("file", "", "Local path or gs:// URI of a JSON snapshot")
	strict := fs.Bool("strict", false, "Abort if any record is invalid")
	fs.Parse(os.Args[2:])

	if *source == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	s := open(log, *configPath)
	defer s.Close()

	state, err := pipeline.ImportSnapshot(s.ctx, *source, gcsuploader.NewGCSStorageService(), s.app.Repo, *strict)
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
	if n := len(state.Snapshot.Notifications); n > 0 {
		log.Warn().Int("count", n).Msg("Snapshot notifications are not seeded; run evaluate instead")
	}

	w := state.Written
	fmt.Printf("Seeded %d transactions, %d budgets, %d goals, %d contributions, %d subscriptions (%d rejected).\n",
		w.Transactions, w.Budgets, w.Goals, w.Contributions, w.Subscriptions, len(state.Rejected))
}

func runInitConfig(log zerolog.Logger) {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	path := fs.String("out", "finance.yaml", "Where to write the configuration")
	fs.Parse(os.Args[2:])

	if _, err := os.Stat(*path); err == nil {
		log.Fatal().Str("path", *path).Msg("Refusing to overwrite existing file")
	}
	if err := config.Default().Save(*path); err != nil {
		log.Fatal().Err(err).Msg("Failed to write config")
	}
	fmt.Printf("Wrote %s\n", *path)
}

func selection(periodName, from, to string, now time.Time) (stats.Selection, error) {
	sel := stats.Selection{Period: period.Parse(periodName), AsOf: now}
	if from == "" && to == "" {
		return sel, nil
	}
	if from == "" || to == "" {
		return sel, fmt.Errorf("both -from and -to are required for a custom range")
	}

	f, err := civil.ParseDate(from)
	if err != nil {
		return sel, fmt.Errorf("invalid -from: %w", err)
	}
	t, err := civil.ParseDate(to)
	if err != nil {
		return sel, fmt.Errorf("invalid -to: %w", err)
	}

	r := period.Custom(f.In(now.Location()), t.In(now.Location()))
	sel.Custom = &r
	return sel, nil
}
