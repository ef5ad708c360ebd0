package main

import (
	"fmt"
	"strings"

	"github.com/Harshitk-cp/concierge/internal/knowledge"
	"github.com/spf13/cobra"
)

func newKBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Knowledge base tools",
	}
	cmd.AddCommand(newKBCheckCmd())
	return cmd
}

func newKBCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Load a knowledge file and report its contents and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := knowledge.LoadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			communities := kb.Communities()
			fmt.Fprintf(out, "%d communities, %d synonym groups\n", len(communities), len(kb.Synonyms()))
			for _, c := range communities {
				fmt.Fprintf(out, "\n%s\n", c.Name)
				for _, a := range c.Amenities {
					slots := kb.Slots(c.Name, a)
					if len(slots) == 0 {
						fmt.Fprintf(out, "  %s: no slots\n", a)
						continue
					}
					fmt.Fprintf(out, "  %s: %s\n", a, strings.Join(slots, ", "))
				}
			}

			warnings := kb.Check()
			if len(warnings) > 0 {
				fmt.Fprintf(out, "\n%d warnings:\n", len(warnings))
				for _, w := range warnings {
					fmt.Fprintf(out, "  - %s\n", w)
				}
			}
			return nil
		},
	}
}
