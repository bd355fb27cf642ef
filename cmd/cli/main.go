package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smsledger/internal/app"
	"github.com/dvloznov/smsledger/internal/config"
	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/gcs"
	infraBQ "github.com/dvloznov/smsledger/internal/infra/bigquery"
	"github.com/dvloznov/smsledger/internal/logger"
	"github.com/dvloznov/smsledger/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log := logger.New(zerolog.InfoLevel)
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	switch cmd {
	case "parse":
		runParse(cfg)
	case "detect":
		runDetect(cfg)
	case "scan":
		runScan(cfg)
	case "transactions":
		runTransactions(cfg)
	case "add-account":
		runAddAccount(cfg)
	case "upload":
		runUpload(cfg)
	case "migrate":
		runMigrate(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("smsledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse         Parse an SMS export and print the transactions")
	fmt.Println("  detect        Print the accounts detected in an SMS export")
	fmt.Println("  scan          Fetch, parse and store one window of messages")
	fmt.Println("  transactions  List stored transactions")
	fmt.Println("  add-account   Add or update a known account")
	fmt.Println("  upload        Upload an SMS export to GCS")
	fmt.Println("  migrate       Create or migrate the configured store")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nConfiguration is read from $SMSLEDGER_CONFIG or ~/.config/smsledger/config.toml.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// windowFlags are the window options shared by parse, detect and scan.
type windowFlags struct {
	from, to *string
	days     *int
}

func addWindowFlags(fs *flag.FlagSet) windowFlags {
	return windowFlags{
		from: fs.String("from", "", "Window start date (YYYY-MM-DD)"),
		to:   fs.String("to", "", "Window end date, inclusive (YYYY-MM-DD)"),
		days: fs.Int("days", 0, "Window length in days ending now (default scan.window_days)"),
	}
}

func (w windowFlags) window(a *app.App, now time.Time) (pipeline.Window, error) {
	return resolveWindow(*w.from, *w.to, *w.days, a.Config.Scan.WindowDays, now, a.Location)
}

// resolveWindow turns the -from/-to/-days flags into a window in loc.
// Dates win over days; a missing -to means now.
func resolveWindow(from, to string, days, defaultDays int, now time.Time, loc *time.Location) (pipeline.Window, error) {
	if from == "" && to == "" {
		if days <= 0 {
			days = defaultDays
		}
		return pipeline.LastDays(now.In(loc), days), nil
	}
	if from == "" {
		return pipeline.Window{}, errors.New("-from is required when -to is set")
	}

	start, err := time.ParseInLocation("2006-01-02", from, loc)
	if err != nil {
		return pipeline.Window{}, fmt.Errorf("invalid -from: %w", err)
	}
	end := now.In(loc)
	if to != "" {
		d, err := time.ParseInLocation("2006-01-02", to, loc)
		if err != nil {
			return pipeline.Window{}, fmt.Errorf("invalid -to: %w", err)
		}
		end = d.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	w := pipeline.Window{Start: start, End: end}
	return w, w.Validate()
}

// newApp applies the per-command source override and builds the app.
func newApp(cfg config.Config, file string) (*app.App, context.Context) {
	if file != "" {
		cfg.Source = config.SourceConfig{Kind: config.SourceFile, Path: file}
	}
	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log := logger.New(zerolog.InfoLevel)
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	return a, a.Context(ctx)
}

func loadAccounts(path string) ([]domain.Account, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	var accounts []domain.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts %s: %w", path, err)
	}
	return accounts, nil
}

func runParse(cfg config.Config) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	file := fs.String("file", "", "Path to a JSON SMS export (overrides source config)")
	accountsFile := fs.String("accounts", "", "JSON file with known accounts used for linking")
	fromStore := fs.Bool("store-accounts", false, "Link against the accounts in the configured store")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	wf := addWindowFlags(fs)
	fs.Parse(os.Args[2:])

	a, ctx := newApp(cfg, *file)
	defer a.Close()
	log := a.Log

	window, err := wf.window(a, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid window")
	}

	accounts, err := loadAccounts(*accountsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load accounts")
	}
	if *fromStore {
		store, err := a.OpenStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open store")
		}
		known, err := store.ListAccounts(ctx)
		store.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list accounts")
		}
		accounts = append(accounts, known...)
	}

	txs, err := a.Pipeline.ParseTransactions(ctx, window, accounts)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	if *asJSON {
		printJSON(txs)
		return
	}
	printParsed(os.Stdout, txs, a.Location)
}

func runDetect(cfg config.Config) {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	file := fs.String("file", "", "Path to a JSON SMS export (overrides source config)")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	wf := addWindowFlags(fs)
	fs.Parse(os.Args[2:])

	a, ctx := newApp(cfg, *file)
	defer a.Close()
	log := a.Log

	window, err := wf.window(a, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid window")
	}

	accounts, err := a.Pipeline.DetectAccounts(ctx, window)
	if err != nil {
		log.Fatal().Err(err).Msg("Detection failed")
	}

	if *asJSON {
		printJSON(accounts)
		return
	}
	printDetected(os.Stdout, accounts, a.Location)
}

func runScan(cfg config.Config) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	file := fs.String("file", "", "Path to a JSON SMS export (overrides source config)")
	wf := addWindowFlags(fs)
	fs.Parse(os.Args[2:])

	a, ctx := newApp(cfg, *file)
	defer a.Close()
	log := a.Log

	window, err := wf.window(a, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid window")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	store, err := a.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	log.Info().
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Str("store", cfg.Store.Kind).
		Msg("Starting scan")

	res, err := a.Pipeline.Scan(ctx, window, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}

	fmt.Printf("Scan %s completed: %d messages, %d new transactions, %d accounts, %d skipped.\n",
		res.RunID, res.Messages, res.Transactions, res.Accounts, res.Skipped)
}

func runTransactions(cfg config.Config) {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	wf := addWindowFlags(fs)
	fs.Parse(os.Args[2:])

	a, ctx := newApp(cfg, "")
	defer a.Close()
	log := a.Log

	window, err := wf.window(a, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid window")
	}

	store, err := a.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	txs, err := store.ListTransactions(ctx, window.Start, window.End)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	if *asJSON {
		printJSON(txs)
		return
	}
	printStored(os.Stdout, txs, a.Location)
}

func runAddAccount(cfg config.Config) {
	fs := flag.NewFlagSet("add-account", flag.ExitOnError)
	id := fs.String("id", "", "Account id (required)")
	name := fs.String("name", "", "Display name (required)")
	institution := fs.String("institution", "", "Institution name, e.g. \"HDFC Bank\"")
	typ := fs.String("type", string(domain.AccountTypeBank), "Account type: bank, card or wallet")
	subtype := fs.String("subtype", "", "Wallet brand, e.g. paytm")
	number := fs.String("number", "", "Account or card number, may be masked")
	fs.Parse(os.Args[2:])

	a, ctx := newApp(cfg, "")
	defer a.Close()
	log := a.Log

	if *id == "" || *name == "" {
		log.Fatal().Msg("Usage: cli add-account -id ID -name NAME [-institution NAME] [-type bank|card|wallet] [-number N]")
	}
	accountType := domain.AccountType(*typ)
	switch accountType {
	case domain.AccountTypeBank, domain.AccountTypeCard, domain.AccountTypeWallet:
	default:
		log.Fatal().Str("type", *typ).Msg("Unknown account type")
	}

	store, err := a.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	err = store.UpsertAccount(ctx, domain.Account{
		ID:          *id,
		Name:        *name,
		Institution: *institution,
		Type:        accountType,
		Subtype:     *subtype,
		Number:      *number,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to save account")
	}
	fmt.Printf("Saved account %s.\n", *id)
}

func runUpload(cfg config.Config) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a local JSON SMS export")
	uri := fs.String("uri", cfg.Source.GCSURI, "Destination gs:// URI (default source.gcs_uri)")
	fs.Parse(os.Args[2:])

	a, ctx := newApp(cfg, "")
	defer a.Close()
	log := a.Log

	if *filePath == "" || *uri == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH [-uri gs://BUCKET/OBJECT]")
	}
	if _, _, err := gcs.ParseURI(*uri); err != nil {
		log.Fatal().Err(err).Msg("Invalid destination")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	client, err := a.GCS(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}

	log.Info().Str("file", *filePath).Str("uri", *uri).Msg("Uploading export to GCS")
	if err := client.Upload(ctx, *uri, f); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}
	fmt.Printf("Uploaded %s to %s\n", *filePath, *uri)
}

func runMigrate(cfg config.Config) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	a, ctx := newApp(cfg, "")
	defer a.Close()
	log := a.Log

	if cfg.Store.Kind == config.StoreBigQuery {
		repo, err := infraBQ.NewRepository(ctx, infraBQ.Config{
			ProjectID:       cfg.Store.ProjectID,
			Dataset:         cfg.Store.Dataset,
			CredentialsFile: cfg.Store.CredentialsFile,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery client")
		}
		err = repo.EnsureTables(ctx)
		repo.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
	}

	// applies sqlite migrations and seeds the category registry
	store, err := a.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	store.Close()

	fmt.Printf("Store %s is up to date.\n", cfg.Store.Kind)
}
