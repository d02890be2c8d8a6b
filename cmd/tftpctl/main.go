package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Merith-TK/tftpctl/internal/config"
	"github.com/Merith-TK/tftpctl/internal/shell"
	"github.com/Merith-TK/tftpctl/internal/tftp"
	"github.com/Merith-TK/tftpctl/internal/utils"
)

// CLI flags
var (
	configFile string
	logLevel   string
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "tftpctl <server>",
	Short: "TFTP client",
	Long: `A small TFTP (RFC 1350) client.

Examples:
  tftpctl get -p 69 tftp.example.com firmware.bin
  tftpctl put tftp.example.com notes.txt remote-notes.txt
  tftpctl 10.0.0.5                 # launches the interactive shell`,
	Args: cobra.ExactArgs(1),
	RunE: runShell,
}

var getCmd = &cobra.Command{
	Use:   "get <server> <source_file> [<dest_file>]",
	Short: "Download a file from a TFTP server",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runGet,
}

var putCmd = &cobra.Command{
	Use:   "put <server> <source_file> [<dest_file>]",
	Short: "Upload a file to a TFTP server",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runPut,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "Server port (default: 69)")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(putCmd)
}

func loadConfiguration() (*config.Config, error) {
	c, err := config.LoadFromFile(configFile)
	if err != nil {
		return nil, err
	}
	c.ApplyEnvironmentVariables()

	if port > 0 {
		c.Port = port
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	return c, nil
}

func newLogger(c *config.Config) *utils.Logger {
	return utils.NewLogger(c.Logging.Level, c.Logging.Format)
}

func engineOptions(c *config.Config) tftp.Options {
	return tftp.Options{
		InactivityTimeout: c.Timeout,
		MaxRetries:        c.Retries,
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	server := args[0]

	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := newLogger(cfg)
	return shell.Run(server, cfg.Port, engineOptions(cfg), logger, os.Stdin, os.Stdout)
}

func runGet(cmd *cobra.Command, args []string) error {
	server, source := args[0], args[1]
	dest := source
	if len(args) > 2 {
		dest = args[2]
	}

	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := newLogger(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := utils.CancelOnSignal(cancel, logger)
	defer stop()

	return tftp.Get(ctx, server, cfg.Port, source, dest, engineOptions(cfg), logger)
}

func runPut(cmd *cobra.Command, args []string) error {
	server, source := args[0], args[1]
	dest := source
	if len(args) > 2 {
		dest = args[2]
	}

	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := newLogger(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := utils.CancelOnSignal(cancel, logger)
	defer stop()

	return tftp.Put(ctx, server, cfg.Port, source, dest, engineOptions(cfg), logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
