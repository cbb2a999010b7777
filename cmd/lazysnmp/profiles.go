package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List saved connection profiles (non-interactive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := configDir()
		if err != nil {
			return err
		}
		store, err := openProfiles(dir)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTARGET\tVERSION\tLAST USED\tUSES")
		for _, e := range store.GetRecent(0) {
			last := "-"
			if !e.LastUsed.IsZero() {
				last = e.LastUsed.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s:%d\t%s\t%s\t%d\n", e.Name, e.Target, e.Port, e.Version, last, e.UsageCount)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
