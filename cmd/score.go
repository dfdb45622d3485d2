package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/leadops/enrich-cli/internal/model"
	"github.com/leadops/enrich-cli/internal/priority"
	"github.com/leadops/enrich-cli/internal/scoring"
)

var scoreInput string

// scoreOutput pairs the scoring result with the priority tier.
type scoreOutput struct {
	scoring.Result
	Priority int `json:"priority"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single lead given as JSON",
	Long:  "Reads one lead as a JSON object of field name to value (from --input or stdin) and prints its scores and priority tier.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := initRules()
		if err != nil {
			return err
		}

		var in io.Reader = os.Stdin
		if scoreInput != "" {
			f, err := os.Open(scoreInput)
			if err != nil {
				return eris.Wrap(err, "open input")
			}
			defer f.Close() //nolint:errcheck
			in = f
		}

		var lead model.Lead
		if err := json.NewDecoder(in).Decode(&lead); err != nil {
			return eris.Wrap(err, "decode lead")
		}

		engine := scoring.New(rules.Scoring)
		classifier := priority.New(rules.Priority)

		return printJSON(scoreOutput{
			Result:   engine.Score(lead),
			Priority: classifier.Classify(lead),
		})
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreInput, "input", "i", "", "path to a JSON lead file (default stdin)")
	rootCmd.AddCommand(scoreCmd)
}
