// Command caixa-cli runs the full closing analysis over one workbook in
// a single pass, prompting on the terminal for each duplicate conflict.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"caixa/internal/cli"
	"caixa/internal/core"
	"caixa/internal/ingest"
	gsource "caixa/internal/ingest/google"
	"caixa/internal/ingest/xlsx"
	"caixa/internal/reconcile"
	"caixa/internal/report"
	"caixa/internal/services"
)

func main() {
	workbook := flag.String("workbook", "", "path to the monthly closing xlsx (overrides WORKBOOK_PATH)")
	batch := flag.Bool("batch", false, "non-interactive: keep all records of every conflict group")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger("caixa-cli")
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	var src ingest.Source
	switch cfg.WorkbookSource {
	case "google":
		gs, err := gsource.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets source", "error", err)
			os.Exit(1)
		}
		src = gs
	default:
		path := cfg.WorkbookPath
		if *workbook != "" {
			path = *workbook
		}
		if path == "" {
			logger.Error("No workbook given (use -workbook or WORKBOOK_PATH)")
			os.Exit(1)
		}
		src = xlsx.NewFromFile(path)
	}

	store := cli.InitSessionStore(logger, cfg)
	svc := services.NewAnalysisService(store, nil)

	sess, pending, err := svc.CreateSession(ctx, src)
	if err != nil {
		logger.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Registros normalizados: %d | Conflitos pendentes: %d\n", len(sess.Records), len(pending))

	var decisions reconcile.DecisionSource = reconcile.KeepAll{}
	if !*batch {
		// One scanner for the whole run so answers queued on stdin are
		// not lost between prompts.
		scanner := bufio.NewScanner(os.Stdin)
		decisions = reconcile.DecisionFunc(func(_ context.Context, group core.ConflictGroup) (core.Decision, error) {
			return promptDecision(scanner, group)
		})
	}
	if err := svc.RunReconciliation(ctx, sess.ID, decisions); err != nil {
		logger.Error("Reconciliation failed", "error", err)
		os.Exit(1)
	}

	reports, err := svc.BuildReports(ctx, sess.ID)
	if err != nil {
		logger.Error("Report generation failed", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Print(report.RenderCashflow(reports.Cashflow))
	fmt.Println()
	fmt.Print(report.RenderABC(reports.ABC))
}

// promptDecision shows one conflict group and blocks for a yes/no
// answer: yes excludes one duplicate, anything else keeps all.
func promptDecision(scanner *bufio.Scanner, group core.ConflictGroup) (core.Decision, error) {
	fmt.Printf("\nCONFLITO EM %s | VALOR: R$ %s\n", group.Key.Date, group.Key.Amount)
	for _, rec := range group.Members {
		fmt.Printf("  [%d] %s (%s)\n", rec.ID, rec.Title, rec.PaymentMethod)
	}
	fmt.Print("Excluir UMA das entradas duplicadas e manter a outra? (s/n): ")

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read decision: %w", err)
		}
		// Input closed: fall back to the non-interactive default.
		return core.DecisionKeepAll, nil
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if answer == "s" || answer == "sim" || answer == "y" || answer == "yes" {
		return core.DecisionExcludeOne, nil
	}
	return core.DecisionKeepAll, nil
}
