package main

import (
	"fmt"
	"os"

	"github.com/Harshitk-cp/concierge/internal/buildconfig"
	"github.com/Harshitk-cp/concierge/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "conciergectl",
		Short:        "Concierge operator tools",
		Long:         "conciergectl validates amenity knowledge files and runs the booking conversation locally.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load()
		},
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newKBCmd())
	cmd.AddCommand(newChatCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildconfig.String("conciergectl"))
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
