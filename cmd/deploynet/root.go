package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Bidon15/deploynet"
	"github.com/Bidon15/deploynet/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Global flag variables
var (
	cfgFile     string
	envFile     string
	networkName string
	jsonOut     bool
	verbose     bool
)

// EnvConfigFile names the config file when --config is not given.
const EnvConfigFile = "DEPLOYNET_CONFIG"

// state holds what PersistentPreRunE resolved for the running command.
var state struct {
	table  *deploynet.Table
	file   *config.File
	logger *slog.Logger
}

// rootCmd is the base command for the CLI
var rootCmd *cobra.Command

// versionCmd prints version information
var versionCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "deploynet",
		Short: "deploynet - network profiles for contract deployments",
		Long: `deploynet lists, exports and checks the networks a contract deployment
can target.

Built-in networks:
  main         remote signing with ETHEREUM_DEPLOYER_PRIVATE_KEY and ETHEREUM_URL
  development  localhost:8546
  testnet      ethnode:8545
  parity       172.17.0.4:8545

Configuration (in order of priority):
  1. Command-line flags (--network, --env-file, --config)
  2. Environment variables (DEPLOYNET_NETWORK, DEPLOYNET_ENV_FILE, DEPLOYNET_CONFIG)
  3. Config file networks and defaults`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the version, commit hash, and build date of deploynet",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deploynet %s\n", Version)
			if verbose {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", Commit)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", BuildDate)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file with extra networks (or DEPLOYNET_CONFIG env)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before the config file (default .env)")
	rootCmd.PersistentFlags().StringVarP(&networkName, "network", "n", "", "network to use (default development)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(networksCmd)
	rootCmd.AddCommand(checkCmd)
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// ExecuteWithArgs runs the root command with the provided arguments (for testing)
func ExecuteWithArgs(args []string) error {
	rootCmd.SetArgs(args)
	return Execute()
}

// SetOutput sets the output writer for the root command (for testing)
func SetOutput(w io.Writer) {
	rootCmd.SetOut(w)
	rootCmd.SetErr(w)
}

// ResetFlags resets all global flags to their defaults (for testing)
func ResetFlags() {
	cfgFile = ""
	envFile = ""
	networkName = ""
	jsonOut = false
	verbose = false
	state.table = nil
	state.file = nil
	state.logger = nil
}

// setup loads the dotenv file and config file and builds the logger.
// The dotenv file is loaded first so DEPLOYNET_* settings in it apply to the
// config. An env_file named only inside the config file feeds providers.
func setup(cmd *cobra.Command, args []string) error {
	dotenv := envFile
	if dotenv == "" {
		dotenv = os.Getenv(config.EnvPrefix + "_ENV_FILE")
	}
	if dotenv == "" {
		dotenv = config.DefaultEnvFile
	}
	if err := loadEnvFile(dotenv, envFile != ""); err != nil {
		return err
	}

	path := cfgFile
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	table, file, err := config.Resolve(path)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if file.LogLevel != "" {
		if err := level.UnmarshalText([]byte(file.LogLevel)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", file.LogLevel, err)
		}
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if envFile == "" && file.EnvFile != dotenv {
		if err := loadEnvFile(file.EnvFile, false); err != nil {
			return err
		}
		dotenv = file.EnvFile
	}
	logger.Debug("configuration loaded",
		slog.String("config_file", file.Path),
		slog.String("env_file", dotenv),
		slog.Int("networks", table.Len()),
	)

	state.table = table
	state.file = file
	state.logger = logger
	return nil
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing file is only an error when it was named explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// selectedProfile resolves the network named by args, --network or the
// config default, in that order.
func selectedProfile(args []string) (deploynet.Profile, error) {
	name := networkName
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" && state.file != nil {
		name = state.file.DefaultNetwork
	}
	if name == "" {
		name = deploynet.DefaultNetwork
	}
	return state.table.Get(name)
}

// printJSON outputs data as formatted JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError prints a one-line error, naming the missing network or variable.
func printError(w io.Writer, err error) {
	var nf *deploynet.NotFoundError
	var cfgErr *deploynet.ConfigurationError
	switch {
	case errors.As(err, &nf):
		_, _ = fmt.Fprintf(w, "Error: unknown network %q (available: %s)\n", nf.Name, availableNetworks())
	case errors.As(err, &cfgErr):
		_, _ = fmt.Fprintf(w, "Error: %s %s\n", cfgErr.Variable, cfgErr.Reason)
	default:
		_, _ = fmt.Fprintf(w, "Error: %s\n", err.Error())
	}
}

func availableNetworks() string {
	if state.table == nil {
		return strings.Join(deploynet.Default().Names(), ", ")
	}
	return strings.Join(state.table.Names(), ", ")
}
