package main

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazysnmp/internal/mib"
)

var dumpDir string

var mibsCmd = &cobra.Command{
	Use:   "mibs [path...]",
	Short: "Load MIB modules and report what parsed",
	Long:  "Load MIB modules from the configured paths (or the given ones) and list them. With --dump, write one JSON file per module.",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			paths = loadConfig().Schema.MIBPaths
		}

		loader := mib.NewLoader(paths)
		modules, err := loader.Modules(context.Background())
		if err != nil {
			return err
		}
		for _, f := range loader.Failed() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", f)
		}

		if dumpDir != "" {
			written, err := mib.Dump(dumpDir, modules)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d modules to %s\n", len(written), dumpDir)
			return nil
		}

		for _, name := range sortedKeys(modules) {
			m := modules[name]
			fmt.Fprintf(cmd.OutOrStdout(), "%-40s %5d nodes %4d types\n", name, len(m.Nodes), len(m.Types))
		}
		return nil
	},
}

func init() {
	mibsCmd.Flags().StringVar(&dumpDir, "dump", "", "write one JSON file per module into this directory")
	rootCmd.AddCommand(mibsCmd)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
