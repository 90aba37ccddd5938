package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/zeebo/clingy"
	"github.com/zeebo/errs/v2"

	"loov.dev/eventview/config"
	"loov.dev/eventview/trace"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ok, err := clingy.Environment{
		Name: "eventview",
		Args: os.Args[1:],
	}.Run(ctx, func(cmds clingy.Commands) {
		cmds.New("summary", "Print per-type totals of a capture", new(cmdSummary))
		cmds.New("window", "Print the rows of a time window", new(cmdWindow))
		cmds.New("replay", "Stream a capture through a live window", new(cmdReplay))
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	}
	if !ok || err != nil {
		os.Exit(1)
	}
}

// common holds the flags shared by every command.
type common struct {
	configPath string
	logLevel   string

	config *config.Config
}

func (c *common) setup(params clingy.Parameters) {
	c.configPath = params.Flag("config", "YAML configuration file", "").(string)
	c.logLevel = params.Flag("log-level", "Overrides the configured log level", "").(string)
}

// load reads the configuration and installs the default logger.
func (c *common) load(ctx clingy.Context) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(ctx.Stderr(), &slog.HandlerOptions{Level: level})))
	c.config = cfg
	return nil
}

// parseTime parses milliseconds, or "live" for the open right edge.
func parseTime(s string) (trace.Time, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "live") {
		return trace.Live, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "ms"), 64)
	if err != nil {
		return 0, errs.Errorf("invalid time %q: %w", s, err)
	}
	return trace.Time(v), nil
}

// optionalTime parses s, returning def when s is empty.
func optionalTime(s string, def string) (trace.Time, error) {
	if s == "" {
		s = def
	}
	return parseTime(s)
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseInt(s string) (int, error) { return strconv.Atoi(s) }

func parseBool(s string) (bool, error) { return strconv.ParseBool(s) }
