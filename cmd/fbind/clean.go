package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fbind/internal/gencache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the generation cache",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	cache, err := gencache.Open("fbind")
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	if !quiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
	}
	return nil
}
