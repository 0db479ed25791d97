// Command vy is the shop dashboard core: simulated assistant and channel
// conversations, a live metrics feed with animated counters, a token
// tracker and a small inventory, all over a local SQLite file.
package main

import (
	"fmt"
	"os"

	"github.com/vyaapaar/dashcore/pkg/config"
	"github.com/vyaapaar/dashcore/pkg/logger"
)

const version = "0.4.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		printUsage()
		return
	case "--version", "-v", "version":
		fmt.Println("vy", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("%v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	a, err := newApp(cfg, os.Stdout, os.Stderr)
	if err != nil {
		fatal("%v", err)
	}

	code := a.dispatch(os.Args[1], os.Args[2:])
	a.Close()
	os.Exit(code)
}

// dispatch runs the named subcommand and returns its exit code.
func (a *app) dispatch(name string, args []string) int {
	switch name {
	case "init":
		return a.cmdInit(args)
	case "send":
		return a.cmdSend(args)
	case "watch":
		return a.cmdWatch(args)
	case "status", "st":
		return a.cmdStatus(args)
	case "usage":
		return a.cmdUsage(args)
	case "inventory", "inv":
		return a.cmdInventory(args)
	case "dash":
		return a.cmdDash(args)
	default:
		fmt.Fprintf(a.errOut, "vy: unknown command %q\n", name)
		fmt.Fprintln(a.errOut, "Run 'vy --help' for usage.")
		return 1
	}
}

func printUsage() {
	fmt.Print(`vy - shop dashboard core

Simulated assistant and messaging-channel conversations, a live metrics
feed with animated counters and a monthly token tracker. State lives in a
local SQLite file.

Usage:
  vy <command> [flags]

Setup:
  init                          Create the database and load demo data

Commands:
  send [--surface S] <text>     Send one message and wait for the reply
  watch [--for D]               Stream animated metric frames
  status                        Current metrics and token usage
  usage                         Token tracker for the billing period
  inventory [list [query]]      List or search inventory
  inventory add --name N ...    Add or replace an item
  inventory adjust <id> <n>     Change stock by n (may be negative)
  dash                          Interactive dashboard

Aliases:
  st = status, inv = inventory

Environment:
  VY_DB                 SQLite database path (default: vy.db)
  VY_LOG_LEVEL          debug, info, warn, error (default: info)
  VY_LOG_FORMAT         text or json (default: text)
  VY_METRICS_ADDR       serve Prometheus metrics on this address (watch, dash)
  VY_FEED_INTERVAL      metrics refresh interval (default: 5s)
  VY_SIMULATE           record simulated sales each refresh (default: true)
  VY_SEED               random seed, 0 = time based
  VY_REPLIES_FILE       YAML reply catalog overriding the built-in replies
  VY_TOKEN_LIMIT        monthly token budget (default: 50000)
  VY_TOKEN_COST         cost per token in rupees (default: 0.002)
  VY_USAGE_RESET_CRON   billing period start (default: "0 0 1 * *")
  VY_TWEEN_STEPS        animation frames per change (default: 60)
  VY_TWEEN_DURATION     animation length (default: 1s)

A .env file in the working directory is read before the environment.
Most commands support --json for machine-readable output.

Exit codes:
  0  success
  1  error
  2  invalid input
`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "vy: "+format+"\n", args...)
	os.Exit(1)
}
