package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bidon15/deploynet/internal/preflight"
	"github.com/spf13/cobra"
)

// errChecksFailed is returned when at least one pre-flight check fails.
var errChecksFailed = errors.New("pre-flight checks failed")

// checkCmd runs pre-flight checks against a network.
var checkCmd = &cobra.Command{
	Use:   "check [name]",
	Short: "Run pre-flight checks against a network",
	Long: `Connect to a network and verify it is ready for a deployment.

Checks:
  rpc_reachable     the endpoint answers eth_chainId
  network_id        a specific network id matches the chain id ("*" always passes)
  deployer_balance  remote-signing networks only: the deployer is funded

Examples:
  deploynet check
  deploynet check main --env-file .env.production`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Duration("timeout", preflight.DefaultTimeout, "timeout for RPC calls")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := selectedProfile(args)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	checker := preflight.NewChecker(state.logger).WithTimeout(timeout)
	started := time.Now()
	report, err := checker.RunChecks(cmd.Context(), p)
	if err != nil {
		return err
	}
	state.logger.Debug("pre-flight finished", slog.Duration("elapsed", time.Since(started)))

	if jsonOut {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(w, "Network:  %s (%s)\n", report.Network, report.Endpoint)
		for _, c := range report.Checks {
			mark := "✓"
			if !c.Passed {
				mark = "✗"
			}
			_, _ = fmt.Fprintf(w, "  %s %-17s %s\n", mark, c.Name, c.Message)
		}
	}

	if !report.OK {
		return errChecksFailed
	}
	return nil
}
