package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/asyncfs/config"
	"github.com/brettbedarf/asyncfs/internal/util"
	"github.com/brettbedarf/asyncfs/server"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	out         io.Writer
	configPath  string
	verbose     int
	metricsAddr string

	fs      *server.AsyncFs
	logFile io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := execute(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs one command line and always releases the engine, even when
// the command fails.
func execute(ctx context.Context, out io.Writer, args []string) error {
	c, a := newRootCmd(out)
	c.SetArgs(args)
	err := c.ExecuteContext(ctx)
	if tErr := a.teardown(); err == nil {
		err = tErr
	}
	return err
}

func newRootCmd(out io.Writer) (*cobra.Command, *app) {
	a := &app{out: out}
	c := &cobra.Command{
		Use:           "asyncfs",
		Short:         "Run filesystem operations through the asynchronous engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	c.SetOut(out)

	flags := c.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	flags.IntVarP(&a.verbose, "verbose", "v", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace)")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	c.AddCommand(
		newStatCmd(a),
		newLsCmd(a),
		newCatCmd(a),
		newCpCmd(a),
		newMkdirCmd(a),
		newRmCmd(a),
		newMvCmd(a),
		newChmodCmd(a),
		newLnCmd(a),
		newReadlinkCmd(a),
		newTouchCmd(a),
		newWatchCmd(a),
	)
	return c, a
}

// setup resolves config from defaults, file, environment and flags, in that
// order, then builds the engine.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.NewDefaultConfig()
	if a.configPath != "" {
		fileCfg, err := config.NewConfigFromFile(a.configPath)
		if err != nil {
			return err
		}
		cfg = fileCfg
	}
	envOverride, err := config.LoadEnvOverride(config.DefaultEnvPrefix)
	if err != nil {
		return err
	}
	cfg.Merge(envOverride)

	flagOverride := &config.ConfigOverride{}
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		flagOverride.LogLvl = util.Pointer(a.verbose)
	}
	if flags.Changed("metrics-addr") {
		flagOverride.MetricsAddr = util.Pointer(a.metricsAddr)
	}
	cfg.Merge(flagOverride)

	a.logFile = util.InitializeFileLogger(cfg.LogLvl, cfg.FileOutput())
	logger := util.GetLogger("main")

	fs, err := server.New(cfg)
	if err != nil {
		return err
	}
	a.fs = fs
	if cfg.MetricsAddr != "" {
		if err := fs.ServeMetrics(cfg.MetricsAddr); err != nil {
			return err
		}
	}
	logger.Debug().Str("command", cmd.Name()).Int("workers", cfg.Workers).Msg("Engine initialized")
	return nil
}

func (a *app) teardown() error {
	var err error
	if a.fs != nil {
		err = a.fs.Close()
		a.fs = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return err
}
