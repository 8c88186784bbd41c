// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scout/internal/venues"
)

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "List and validate the venue definitions table",
	RunE:  runVenues,
}

func init() {
	venuesCmd.Flags().String("file", "venues.yaml", "venue definitions file")
	venuesCmd.Flags().Bool("validate", false, "report shadowed patterns")

	rootCmd.AddCommand(venuesCmd)
}

func runVenues(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	validate, _ := cmd.Flags().GetBool("validate")

	defs, err := venues.Load(path)
	if err != nil {
		return err
	}

	for _, name := range defs.Names() {
		def, _ := defs.Lookup(name)
		fmt.Printf("%-20s %-25s %v\n", name, def.Category, def.Patterns)
	}

	if validate {
		warnings := defs.Validate()
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
		}
		if len(warnings) > 0 {
			return fmt.Errorf("%d pattern conflict(s) found", len(warnings))
		}
		fmt.Println("no pattern conflicts")
	}
	return nil
}
