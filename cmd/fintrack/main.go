package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/ingest"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

const usage = `Usage: fintrack <command> [flags]

Commands:
  add      record a single transaction
  import   ingest a CSV file of transactions
  scan     ingest the text extracted from a receipt
  list     list transactions for an owner
  report   aggregate transactions into a report
  update   edit an existing transaction
  delete   remove a transaction
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentCLI)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	store := cli.InitStore(logger, cfg)

	// Event publishing only makes sense with durable storage behind it.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" && cfg.DataBackend == "sqlite" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync events disabled", "error", err)
			amqpClient = nil
		}
	}

	svc := services.NewTransactionService(store, amqpClient)
	defer svc.Close()

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "add":
		err = runAdd(ctx, svc, cfg, os.Args[2:])
	case "import":
		err = runImport(ctx, svc, cfg, os.Args[2:])
	case "scan":
		err = runScan(ctx, svc, cfg, os.Args[2:])
	case "list":
		err = runList(ctx, svc, cfg, os.Args[2:])
	case "report":
		err = runReport(ctx, svc, cfg, os.Args[2:])
	case "update":
		err = runUpdate(ctx, svc, os.Args[2:])
	case "delete":
		err = runDelete(ctx, svc, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runAdd(ctx context.Context, svc *services.TransactionService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	owner := fs.String("owner", cfg.DefaultOwner, "owner of the transaction")
	txType := fs.String("type", "", "income or expense")
	category := fs.String("category", "", "transaction category")
	amount := fs.String("amount", "", "transaction amount")
	date := fs.String("date", "", "transaction date (YYYY-MM-DD)")
	fs.Parse(args)

	tx, err := svc.Create(ctx, *owner, ingest.ManualEntry{
		Type:     *txType,
		Category: *category,
		Amount:   *amount,
		Date:     *date,
	})
	if err != nil {
		return err
	}

	fmt.Printf("recorded %s  %s  %s  %s\n", tx.ID, tx.OccurredOn, tx.Category, tx.Amount)
	return nil
}

func runImport(ctx context.Context, svc *services.TransactionService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	owner := fs.String("owner", cfg.DefaultOwner, "owner of the transactions")
	file := fs.String("file", "", "CSV file to import")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("missing -file")
	}
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := svc.ImportCSV(ctx, *owner, f)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d, rejected %d, skipped %d\n",
		len(res.Accepted), len(res.Rejected), res.Skipped)
	for _, rej := range res.Rejected {
		fmt.Printf("  rejected %s\n", rej.Reason())
	}
	return nil
}

func runScan(ctx context.Context, svc *services.TransactionService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	owner := fs.String("owner", cfg.DefaultOwner, "owner of the transaction")
	file := fs.String("file", "", "file holding the extracted receipt text")
	category := fs.String("category", "", "category to assign (defaults to Uncategorized)")
	date := fs.String("date", "", "transaction date (defaults to today)")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("missing -file")
	}
	text, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	extract := ingest.OcrExtract{
		Text:            string(text),
		DefaultCategory: *category,
	}
	if *date != "" {
		d, err := core.ParseDate(*date)
		if err != nil {
			return err
		}
		extract.DefaultDate = d
	}

	tx, err := svc.ScanReceipt(ctx, *owner, extract)
	if err != nil {
		return err
	}

	fmt.Printf("recorded %s  %s  %s  %s\n", tx.ID, tx.OccurredOn, tx.Category, tx.Amount)
	return nil
}

func runList(ctx context.Context, svc *services.TransactionService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	owner := fs.String("owner", cfg.DefaultOwner, "owner to list")
	fs.Parse(args)

	txs, err := svc.List(ctx, *owner)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tAMOUNT\tTYPE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.OccurredOn, tx.Category, tx.Amount, tx.Type())
	}
	return w.Flush()
}

func runReport(ctx context.Context, svc *services.TransactionService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	owner := fs.String("owner", cfg.DefaultOwner, "owner to report on")
	granularity := fs.String("granularity", "month", "week, month, year or all")
	filter := fs.String("type", "both", "income, expense or both")
	fs.Parse(args)

	g, err := report.ParseGranularity(*granularity)
	if err != nil {
		return err
	}
	f, err := report.ParseTypeFilter(*filter)
	if err != nil {
		return err
	}

	rep, err := svc.Report(ctx, *owner, report.Query{Granularity: g, Filter: f})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tINCOME\tEXPENSE")
	for _, b := range rep.PeriodSeries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.Period, b.Income, b.Expense)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(rep.CategoryDistribution) > 0 {
		fmt.Println("\nexpenses by category:")
		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, ca := range rep.CategoryDistribution {
			fmt.Fprintf(w, "  %s\t%s\n", ca.Category, ca.Amount)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(rep.CategoryTrend) > 0 {
		fmt.Println("\nspending trend:")
		for _, point := range rep.CategoryTrend {
			fmt.Printf("  %s:", point.Period)
			for cat, amount := range point.ByCategory {
				fmt.Printf(" %s=%s", cat, amount)
			}
			fmt.Println()
		}
	}
	return nil
}

func runUpdate(ctx context.Context, svc *services.TransactionService, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "transaction ID")
	txType := fs.String("type", "", "income or expense (used to re-sign a new amount)")
	category := fs.String("category", "", "new category")
	amount := fs.String("amount", "", "new amount")
	date := fs.String("date", "", "new date (YYYY-MM-DD)")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("missing -id")
	}

	tx, err := svc.Update(ctx, *id, services.UpdateRequest{
		Type:     *txType,
		Category: *category,
		Amount:   *amount,
		Date:     *date,
	})
	if err != nil {
		return err
	}

	fmt.Printf("updated %s  %s  %s  %s\n", tx.ID, tx.OccurredOn, tx.Category, tx.Amount)
	return nil
}

func runDelete(ctx context.Context, svc *services.TransactionService, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "transaction ID")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("missing -id")
	}
	if err := svc.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", *id)
	return nil
}
