package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/grant-review/internal/perspective"
)

var perspectivesCmd = &cobra.Command{
	Use:   "perspectives",
	Short: "List the predefined reviewer perspectives",
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		w := cmd.OutOrStdout()
		for _, name := range perspective.Names() {
			if !verbose {
				fmt.Fprintln(w, name)
				continue
			}
			prompt, _ := perspective.Lookup(name)
			fmt.Fprintf(w, "%s\n  %s\n\n", name, prompt)
		}
		return nil
	},
}

func init() {
	perspectivesCmd.Flags().BoolP("verbose", "v", false, "print each perspective's prompt")
	rootCmd.AddCommand(perspectivesCmd)
}
