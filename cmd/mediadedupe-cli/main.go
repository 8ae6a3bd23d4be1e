package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/catalog"
	"github.com/darianrosebrook/deduper/internal/config"
	"github.com/darianrosebrook/deduper/internal/hash"
	"github.com/darianrosebrook/deduper/internal/report"
	"github.com/darianrosebrook/deduper/pkg/dedupe"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "mediadedupe",
		Version: "0.1.0",
		Usage:   "Find and merge duplicate photos and videos",
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "Scan one or more directories and report duplicate groups",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "path", Aliases: []string{"p"}, Usage: "Directory to scan", Required: true},
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file path"},
					&cli.StringFlag{Name: "report", Aliases: []string{"o"}, Usage: "Write a JSON report to this path"},
				},
				Action: scanCommand,
			},
			{
				Name:  "merge",
				Usage: "Merge one duplicate group by id, using the most recent scan report",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "report", Usage: "Scan report JSON path", Required: true},
					&cli.StringFlag{Name: "group", Usage: "Group id to merge", Required: true},
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
					&cli.StringFlag{Name: "keeper", Usage: "Override the suggested keeper file id"},
				},
				Action: mergeCommand,
			},
			{
				Name:  "undo",
				Usage: "Undo the most recent merge, or a specific transaction id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
					&cli.StringFlag{Name: "transaction", Usage: "Transaction id to undo (defaults to the most recent)"},
				},
				Action: undoCommand,
			},
			{
				Name:  "recover",
				Usage: "Detect and resolve incomplete merge transactions left by a crash",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
				},
				Action: recoverCommand,
			},
			{
				Name:  "stats",
				Usage: "Show the transaction log path, trash location and undo retention",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
				},
				Action: statsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) config.Config {
	path := c.String("config")
	if path == "" {
		return config.Default()
	}
	cfg, err := config.NewManager(path).Load()
	if err != nil {
		logrus.WithError(err).Warn("failed to load config, using defaults")
		return config.Default()
	}
	return cfg
}

func scanCommand(c *cli.Context) error {
	logger := logrus.New()
	cfg := loadConfig(c)

	eng, err := dedupe.NewEngine(dedupe.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupInterruptHandler(cancel)

	scanner := catalog.NewFilesystemScanner(logger)
	assetCh, errCh := scanner.Scan(ctx, c.StringSlice("path"))

	var assets []api.Asset
	for a := range assetCh {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			logger.WithError(err).WithField("path", a.Path).Warn("failed to read file, skipping")
			continue
		}
		if sum, err := hash.ChecksumReader(bytes.NewReader(data)); err == nil {
			a.Checksum = sum
		}
		if a, err = eng.Fingerprint(a, data); err != nil {
			logger.WithError(err).WithField("path", a.Path).Debug("fingerprinting failed, continuing without hash signal")
		}
		assets = append(assets, a)
		fmt.Printf("\rScanned %d files", len(assets))
	}
	fmt.Println()
	if err := <-errCh; err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	eng.LoadAssets(assets)
	buckets := eng.BuildCandidates()
	groups, metrics := eng.BuildGroups(ctx, buckets)

	fmt.Printf("\n%d groups found (%d assets, %d buckets, %.1f%% comparison reduction)\n",
		len(groups), metrics.TotalAssets, metrics.BucketsCreated, metrics.ReductionPercentage)
	for _, g := range groups {
		fmt.Printf("  %s: %d members, confidence %.2f, keeper %s\n",
			g.GroupID, len(g.Members), g.Confidence, g.KeeperSuggestion)
	}

	if out := c.String("report"); out != "" {
		gen := report.NewGenerator(logger)
		r := report.ScoringReport{Metrics: metrics, Groups: groups, Assets: assets}
		if err := gen.JSONReport(r, out); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", out)
	}

	return nil
}

func mergeCommand(c *cli.Context) error {
	logger := logrus.New()
	cfg := loadConfig(c)

	eng, err := dedupe.NewEngine(dedupe.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close()

	var scoringReport report.ScoringReport
	if err := loadJSON(c.String("report"), &scoringReport); err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	eng.LoadAssets(scoringReport.Assets)

	groupID := c.String("group")
	var group *api.DuplicateGroup
	for i := range scoringReport.Groups {
		if scoringReport.Groups[i].GroupID == groupID {
			group = &scoringReport.Groups[i]
			break
		}
	}
	if group == nil {
		return fmt.Errorf("group %s not found in report", groupID)
	}

	keeperID := c.String("keeper")
	if keeperID == "" {
		keeperID = group.KeeperSuggestion
	}

	mergePlan, err := eng.PlanMerge(*group, keeperID)
	if err != nil {
		return fmt.Errorf("plan merge: %w", err)
	}
	fmt.Printf("keeper %s, removing %d file(s), estimated space freed %s\n",
		mergePlan.KeeperID, len(mergePlan.TrashList), formatBytes(mergePlan.EstimatedSpaceFreed))

	result, err := eng.Merge(mergePlan)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	fmt.Println(report.MergeResultText(result))
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func undoCommand(c *cli.Context) error {
	logger := logrus.New()
	cfg := loadConfig(c)

	eng, err := dedupe.NewEngine(dedupe.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close()

	var result api.UndoResult
	if id := c.String("transaction"); id != "" {
		result, err = eng.Undo(id)
	} else {
		result, err = eng.UndoLast()
	}
	if err != nil {
		return fmt.Errorf("undo failed: %w", err)
	}

	fmt.Println(report.UndoResultText(result))
	return nil
}

func recoverCommand(c *cli.Context) error {
	logger := logrus.New()
	cfg := loadConfig(c)

	eng, err := dedupe.NewEngine(dedupe.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close()

	results, err := eng.DetectIncompleteTransactions()
	if err != nil {
		return fmt.Errorf("detect incomplete transactions: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("no incomplete transactions found")
		return nil
	}

	fmt.Printf("%d incomplete transaction(s) found:\n", len(results))
	for _, r := range results {
		fmt.Printf("  %s: %s (%s)\n", r.TransactionID, r.State, r.Reason)
	}

	if err := eng.RecoverIncompleteTransactions(); err != nil {
		return fmt.Errorf("recover: %w", err)
	}
	fmt.Println("recovery complete")
	return nil
}

func statsCommand(c *cli.Context) error {
	logger := logrus.New()
	cfg := loadConfig(c)

	eng, err := dedupe.NewEngine(dedupe.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close()

	fmt.Printf("transaction log: %s\n", cfg.TransactionLogPath)
	fmt.Printf("trash location: %s\n", cfg.TrashDataHome)
	fmt.Printf("retention: %s\n", cfg.RetentionDuration())
	return nil
}

func setupInterruptHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nreceived interrupt, stopping...")
		cancel()
	}()
}

func formatBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}
