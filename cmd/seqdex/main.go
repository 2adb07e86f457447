package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/seqdex/internal/config"
	"github.com/hpungsan/seqdex/internal/db"
	"github.com/hpungsan/seqdex/internal/logging"
	"github.com/hpungsan/seqdex/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"store": true, "fetch": true, "delete": true,
	"search": true, "categories": true,
	"export": true, "import": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	return cliCommands[args[1]] || isHelpOrVersion(args)
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "--help", "-h", "--version", "-v", "help":
		return true
	}
	return false
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func printBanner() {
	fmt.Println(`
  seqdex: searchable compose key sequences

  Usage: seqdex <command> [options]
         seqdex --help

  MCP server mode requires piped input.`)
}

// exit prints err unless it is a silent cli.Exit, then exits with its code.
func exit(err error) {
	code := 1
	if ec, ok := err.(cli.ExitCoder); ok {
		code = ec.ExitCode()
		if ec.Error() == "" {
			os.Exit(code)
		}
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(code)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	if isHelpOrVersion(os.Args) {
		if err := newCLIApp(nil, nil, nil).Run(os.Args); err != nil {
			exit(err)
		}
		return
	}

	if len(os.Args) >= 2 && !isCLIMode(os.Args) && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'seqdex --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		exit(fmt.Errorf("could not determine home directory: %w", err))
	}
	baseDir := filepath.Join(homeDir, ".seqdex")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = baseDir
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		exit(fmt.Errorf("failed to load config: %w", err))
	}

	logger, err := logging.New(cfg)
	if err != nil {
		exit(fmt.Errorf("failed to configure logging: %w", err))
	}
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.WithField("tools", unknown).Warn("ignoring unknown disabled_tools entries")
	}

	database, err := db.Init(baseDir)
	if err != nil {
		exit(fmt.Errorf("failed to initialize database: %w", err))
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	if isCLIMode(os.Args) {
		if err := newCLIApp(database, cfg, logger).Run(os.Args); err != nil {
			database.Close()
			exit(err)
		}
		return
	}

	logger.WithField("version", Version).Debug("starting MCP server on stdio")
	if err := mcp.Run(database, cfg, logger, Version); err != nil {
		database.Close()
		exit(err)
	}
}
