package main

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/Bidon15/deploynet"
	"github.com/spf13/cobra"
)

// networksCmd is the parent command for network profile operations.
var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "Inspect network profiles",
	Long: `Commands for the configured network profiles.

Available subcommands:
  list    - List all networks
  show    - Show one network
  export  - Print the network table as JSON or YAML`,
}

// networksListCmd lists all networks.
var networksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all networks",
	RunE:  runNetworksList,
}

// networksShowCmd shows one network.
var networksShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show network details",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNetworksShow,
}

// networksExportCmd prints the manifest.
var networksExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the network table",
	Long: `Print the network table in the shape the deployment tool consumes.

Remote-signing networks are described by the environment variables their
provider reads; keys are never printed.`,
	RunE: runNetworksExport,
}

func init() {
	networksExportCmd.Flags().StringP("format", "f", "yaml", "output format (json or yaml)")

	networksCmd.AddCommand(networksListCmd)
	networksCmd.AddCommand(networksShowCmd)
	networksCmd.AddCommand(networksExportCmd)
}

// NetworkOutput represents a network in list and show output.
type NetworkOutput struct {
	Name            string `json:"name"`
	Kind            string `json:"kind"`
	Endpoint        string `json:"endpoint"`
	NetworkID       string `json:"network_id"`
	DeployerAddress string `json:"deployer_address,omitempty"`
	ProviderError   string `json:"provider_error,omitempty"`
}

// NetworkListResult represents the list output.
type NetworkListResult struct {
	Networks []NetworkOutput `json:"networks"`
}

func describe(p deploynet.Profile) NetworkOutput {
	out := NetworkOutput{
		Name:      p.Name,
		Kind:      "direct",
		Endpoint:  p.Endpoint(),
		NetworkID: string(p.NetworkID),
	}
	if p.RemoteSigning() {
		out.Kind = "remote-signing"
		out.Endpoint = "$" + p.URLEnv
	}
	return out
}

func runNetworksList(cmd *cobra.Command, args []string) error {
	profiles := state.table.Profiles()

	if jsonOut {
		result := NetworkListResult{Networks: make([]NetworkOutput, 0, len(profiles))}
		for _, p := range profiles {
			result.Networks = append(result.Networks, describe(p))
		}
		return printJSON(cmd.OutOrStdout(), result)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tKIND\tENDPOINT\tNETWORK ID")
	for _, p := range profiles {
		d := describe(p)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Kind, d.Endpoint, d.NetworkID)
	}
	return w.Flush()
}

func runNetworksShow(cmd *cobra.Command, args []string) error {
	p, err := selectedProfile(args)
	if err != nil {
		return err
	}

	out := describe(p)
	if p.RemoteSigning() {
		provider, err := p.Provider()
		switch {
		case err == nil:
			out.Endpoint = provider.URL()
			out.DeployerAddress = provider.Address().Hex()
		case errors.Is(err, deploynet.ErrConfiguration):
			out.ProviderError = err.Error()
			state.logger.Debug("provider unavailable",
				slog.String("network", p.Name),
				slog.String("error", err.Error()),
			)
		default:
			return err
		}
	}

	if jsonOut {
		return printJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Name:        %s\n", out.Name)
	_, _ = fmt.Fprintf(w, "Kind:        %s\n", out.Kind)
	_, _ = fmt.Fprintf(w, "Endpoint:    %s\n", out.Endpoint)
	_, _ = fmt.Fprintf(w, "Network ID:  %s\n", out.NetworkID)
	if p.RemoteSigning() {
		_, _ = fmt.Fprintf(w, "Key env:     %s\n", p.PrivateKeyEnv)
		_, _ = fmt.Fprintf(w, "URL env:     %s\n", p.URLEnv)
		if out.DeployerAddress != "" {
			_, _ = fmt.Fprintf(w, "Deployer:    %s\n", out.DeployerAddress)
		} else {
			_, _ = fmt.Fprintf(w, "Deployer:    (unavailable: %s)\n", out.ProviderError)
		}
	}
	return nil
}

func runNetworksExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if jsonOut {
		format = "json"
	}

	m := state.table.Manifest()

	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = m.JSON()
		data = append(data, '\n')
	case "yaml", "yml":
		data, err = m.YAML()
	default:
		return fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
