package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <utterance>",
	Short: "Handle a single utterance and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := loadSettings()
		a, err := newAssistant(cmd.Context(), s, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.engine.Handle(cmd.Context(), strings.Join(args, " "))
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
