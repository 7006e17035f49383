package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/calvinwijaya/highlow-game-be/internal/client"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

const defaultAddress = "ws://localhost:8080/ws"

func main() {
	username := flag.String("username", os.Getenv("USER"), "name to play under")
	address := flag.String("address", defaultAddress, "server address: ws://host:port/ws or tcp://host:port")
	timeout := flag.Duration("timeout", 10*time.Second, "connection timeout")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(os.Stderr, "Error! Please specify a username with --username.")
		os.Exit(2)
	}

	// Create a new slog handler with the default PTerm logger
	if *debug {
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
	}
	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("High", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("Low", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, *timeout)
	transport, err := client.Dial(dialCtx, *address)
	cancel()
	if err != nil {
		logger.Error("Connection failed", "address", *address, "error", err)
		os.Exit(1)
	}
	pterm.Info.Printfln("Connected to %s as %s", *address, *username)

	c := client.New(*username, transport, client.NewShell(os.Stdin, os.Stdout), logger)
	if err := c.Run(ctx); err != nil {
		logger.Error("Connection lost. Shutting down", "error", err)
		os.Exit(1)
	}
	pterm.Info.Println("Bye!")
}
