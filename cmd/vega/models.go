package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setText   string
	setVision string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show or change the text and vision models",
	Long: `Without flags, prints the configured models. With --text or --vision,
updates the settings file; a running server picks the change up.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := loadSettings()
		if setText != "" || setVision != "" {
			if setText != "" {
				s.TextModel = setText
			}
			if setVision != "" {
				s.VisionModel = setVision
			}
			if err := s.Save(settingsPath); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "text:   %s\nvision: %s\n", s.TextModel, s.VisionModel)
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&setText, "text", "", "Text model identity")
	modelsCmd.Flags().StringVar(&setVision, "vision", "", "Vision model identity")
	rootCmd.AddCommand(modelsCmd)
}
