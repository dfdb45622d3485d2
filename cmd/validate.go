package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadops/enrich-cli/internal/phone"
	"github.com/leadops/enrich-cli/internal/taxid"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a single value against the configured rules",
}

var validateTaxIDCmd = &cobra.Command{
	Use:   "tax-id <value>",
	Short: "Validate a Spanish CIF/NIF/NIE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := initRules()
		if err != nil {
			return err
		}
		v, err := taxid.New(rules.TaxID)
		if err != nil {
			return err
		}
		return printJSON(v.Validate(args[0]))
	},
}

var validatePhoneCmd = &cobra.Command{
	Use:   "phone <value>",
	Short: "Validate a Spanish phone number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := initRules()
		if err != nil {
			return err
		}
		v := phone.New(rules.Phone)
		return printJSON(v.Validate(args[0]))
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	validateCmd.AddCommand(validateTaxIDCmd)
	validateCmd.AddCommand(validatePhoneCmd)
	rootCmd.AddCommand(validateCmd)
}
