package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the registered checking agents",
	RunE:  runAgents,
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	reg, _, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	for _, md := range reg.Discover() {
		fmt.Printf("%-12s %s\n", md.Name, md.Description)
		fmt.Printf("%-12s extensions: %s\n", "", strings.Join(md.SupportedExtensions, ", "))
	}
	return nil
}
