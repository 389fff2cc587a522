package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vieagent/vieagent/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "vieagent",
		Short: "knowledge pipeline service",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(
		service.NewAnalyzeCommand(),
		service.NewIngestCommand(),
		service.NewSearchCommand(),
		service.NewProcessCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
