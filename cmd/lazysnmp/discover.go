package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazysnmp/internal/discovery"
)

var (
	discoverCommunity string
	discoverPorts     []int
	discoverTimeout   time.Duration
	discoverWorkers   int
)

var discoverCmd = &cobra.Command{
	Use:   "discover HOST|CIDR...",
	Short: "Probe hosts for SNMP agents",
	Long:  "Ask every host (or every address of a CIDR block) for sysDescr.0 over SNMP v2c and list the agents that answer.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, err := discovery.ExpandHosts(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		scanner := discovery.NewScanner(discoverCommunity)
		scanner.Timeout = discoverTimeout
		scanner.Workers = discoverWorkers
		agents := scanner.Scan(ctx, hosts, discoverPorts)

		if len(agents) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "no agents answered")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ADDRESS\tRTT\tDESCRIPTION")
		for _, a := range agents {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Address(), a.ResponseTime.Round(time.Millisecond), a.Description)
		}
		return w.Flush()
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverCommunity, "community", "public", "v2c community string")
	discoverCmd.Flags().IntSliceVar(&discoverPorts, "port", discovery.DefaultPorts, "agent ports to probe")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 2*time.Second, "per-probe timeout")
	discoverCmd.Flags().IntVar(&discoverWorkers, "workers", 32, "concurrent probes")
	rootCmd.AddCommand(discoverCmd)
}
