package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johncui/vega/pkg/store"
)

var (
	recallK   int
	listLimit int
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Inspect and edit long-term memory",
}

var rememberCmd = &cobra.Command{
	Use:   "remember <text>",
	Short: "Store a fact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(fs *store.FactStore) error {
			f, err := fs.Remember(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", f.ID[:12], f.Text)
			return nil
		})
	},
}

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Show the facts most similar to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(fs *store.FactStore) error {
			for _, f := range fs.Recall(cmd.Context(), strings.Join(args, " "), recallK) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", f.ID[:12], f.Text)
			}
			return nil
		})
	},
}

var listFactsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent facts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(fs *store.FactStore) error {
			facts, err := fs.List(cmd.Context(), listLimit)
			if err != nil {
				return err
			}
			for _, f := range facts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", f.ID[:12], f.CreatedAt.Format("2006-01-02 15:04"), f.Text)
			}
			return nil
		})
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Delete a fact by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(fs *store.FactStore) error {
			ok, err := fs.Forget(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no fact with id %s", args[0])
			}
			return nil
		})
	},
}

func withStore(cmd *cobra.Command, fn func(*store.FactStore) error) error {
	fs, err := openStore(cmd.Context(), loadSettings())
	if err != nil {
		return err
	}
	defer fs.Close()
	return fn(fs)
}

func init() {
	recallCmd.Flags().IntVarP(&recallK, "top", "k", store.DefaultRecallK, "Number of facts to return")
	listFactsCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of facts")
	factsCmd.AddCommand(rememberCmd, recallCmd, listFactsCmd, forgetCmd)
	rootCmd.AddCommand(factsCmd)
}
