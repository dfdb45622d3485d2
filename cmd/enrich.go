package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadops/enrich-cli/internal/model"
	"github.com/leadops/enrich-cli/internal/sheet"
)

var (
	enrichOutput     string
	enrichSheetName  string
	enrichSkipColumn string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <leads.xlsx|leads.csv>",
	Short: "Enrich a lead workbook",
	Long:  "Reads leads from a workbook or CSV export, validates tax IDs and phones, classifies priority, scores data quality, and writes the enriched workbook.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		inputPath := args[0]
		leads, columns, err := sheet.ReadLeadsFile(inputPath, e.Rules.Aliases, sheet.ReadOptions{
			SheetName:  enrichSheetName,
			SkipColumn: enrichSkipColumn,
		})
		if err != nil {
			return err
		}
		zap.L().Info("workbook loaded",
			zap.String("file", inputPath),
			zap.Int("leads", len(leads)),
		)

		run, err := e.Store.CreateRun(ctx, filepath.Base(inputPath))
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		if err := e.Store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
			zap.L().Warn("failed to mark run running", zap.Error(err))
		}

		enriched, results, runResult := e.Pipeline.Run(ctx, run.ID, leads)

		outputPath := enrichOutput
		if outputPath == "" {
			outputPath = defaultOutputPath(inputPath)
		}
		if err := sheet.WriteLeads(outputPath, enriched, columns); err != nil {
			runResult.Error = err.Error()
			if updErr := e.Store.UpdateRunResult(ctx, run.ID, runResult); updErr != nil {
				zap.L().Warn("failed to record run failure", zap.Error(updErr))
			}
			return err
		}
		runResult.OutputFile = outputPath

		if err := e.Store.SaveLeadResults(ctx, results); err != nil {
			return eris.Wrap(err, "save lead results")
		}
		if err := e.Store.UpdateRunResult(ctx, run.ID, runResult); err != nil {
			return eris.Wrap(err, "update run result")
		}

		fmt.Printf("Run %s: %d leads enriched, %d skipped → %s\n",
			truncateID(run.ID), runResult.Leads, runResult.Skipped, outputPath)
		for tier := 4; tier >= 1; tier-- {
			if n := runResult.PriorityCounts[tier]; n > 0 {
				fmt.Printf("  priority %d: %d\n", tier, n)
			}
		}
		return nil
	},
}

// defaultOutputPath derives "leads_enriched.xlsx" from "leads.xlsx". Output
// is always a workbook, even for CSV input.
func defaultOutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_enriched.xlsx"
}

func init() {
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "output workbook path (default <input>_enriched.xlsx)")
	enrichCmd.Flags().StringVar(&enrichSheetName, "sheet", "", "sheet name to read (default first sheet)")
	enrichCmd.Flags().StringVar(&enrichSkipColumn, "skip-column", "", "skip rows with a truthy value in this column")
	rootCmd.AddCommand(enrichCmd)
}
