package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hslf/cmd/pptext/internal/dumputil"
	"hslf/config"
	"hslf/misc"
	"hslf/record"
	"hslf/state"
	"hslf/text"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()), zap.String("run", env.Rpt.ID()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Ignore urfave/cli default error handling - for me cli.Exit() looks
// non-transparent and unnesessary. I will return regular errors from
// subcommands.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	// allow graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "text inspection tool for legacy binary presentation streams",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "dump",
				Usage:        "Dumps record tree and text blocks with style spans",
				OnUsageError: usageErrorHandler,
				Action:       runDump,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write results to `DIR` instead of the input file's directory"},
					&cli.BoolFlag{Name: "payloads", Aliases: []string{"p"}, Usage: "extract untyped record payloads into the configured payload directory"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exists, overwrite files"},
				},
				ArgsUsage: "SOURCE",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to a file holding a flat record stream (a document stream already
    extracted from its compound file container)
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "extract",
				Usage:        "Prints plain text of all text blocks",
				OnUsageError: usageErrorHandler,
				Action:       runExtract,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write results to `DIR` instead of the input file's directory"},
					&cli.BoolFlag{Name: "stdout", Usage: "print extracted text to STDOUT instead of a file"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exists, overwrite files"},
				},
				ArgsUsage: "SOURCE",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func loadRecords(ctx context.Context, cmd *cli.Command) (string, []record.Record, error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return "", nil, fmt.Errorf("no input file specified")
	}
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	inPath := cmd.Args().Get(0)
	data, err := os.ReadFile(inPath)
	if err != nil {
		return "", nil, fmt.Errorf("unable to read input file '%s': %w", inPath, err)
	}
	if env.Rpt != nil {
		if err := env.Rpt.StoreCopy("input/"+filepath.Base(inPath), inPath); err != nil {
			env.Log.Warn("Unable to store input in debug report", zap.Error(err))
		}
	}

	records, err := record.Decode(data)
	if err != nil {
		return "", nil, fmt.Errorf("unable to decode record stream: %w", err)
	}
	env.Log.Debug("Decoded record stream", zap.String("file", inPath), zap.Int("records", len(records)))
	return inPath, records, nil
}

// collectBlocks gathers text blocks from every container that hosts text
// records. Text boxes whose text lives elsewhere (outline references)
// cannot be resolved without the owning sheet and are skipped with a
// warning.
func collectBlocks(records []record.Record, log *zap.Logger) []*text.Block {
	var blocks []*text.Block

	var walk func(rs []record.Record)
	walk = func(rs []record.Record) {
		for _, r := range rs {
			switch rec := r.(type) {
			case *record.Textbox:
				b, err := text.ParseTextbox(rec, nil, log)
				if err != nil {
					log.Warn("Skipping text box", zap.Error(err))
					continue
				}
				if b != nil {
					blocks = append(blocks, b)
				}
			case *record.Container:
				if hostsText(rec) {
					bs, err := text.ParseRecords(rec, log)
					if err != nil {
						log.Warn("Skipping malformed text container", zap.String("type", rec.RecType().String()), zap.Error(err))
					} else {
						blocks = append(blocks, bs...)
					}
				}
				walk(rec.Children())
			}
		}
	}
	walk(records)
	return blocks
}

func hostsText(c *record.Container) bool {
	for _, ch := range c.Children() {
		if ch.RecType() == record.TypeTextHeader {
			return true
		}
	}
	return false
}

func runDump(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	inPath, records, err := loadRecords(ctx, cmd)
	if err != nil {
		return err
	}

	env.Overwrite = cmd.Bool("overwrite")
	outDir := cmd.String("out")

	tree := dumputil.DumpTree(records, env.Cfg.Dump.MaxDepth)
	if err := dumputil.WriteOutput(inPath, outDir, "-tree.txt", []byte(tree), env.Overwrite); err != nil {
		return err
	}
	env.Rpt.StoreData("dump/tree.txt", []byte(tree))

	blocks := collectBlocks(records, env.Log)
	env.Log.Info("Collected text blocks", zap.Int("blocks", len(blocks)))

	spans := dumputil.DumpBlocks(blocks)
	if err := dumputil.WriteOutput(inPath, outDir, "-blocks.txt", []byte(spans), env.Overwrite); err != nil {
		return err
	}
	env.Rpt.StoreData("dump/blocks.txt", []byte(spans))

	if cmd.Bool("payloads") {
		dir := env.Cfg.Dump.PayloadDir
		if outDir != "" {
			dir = filepath.Join(outDir, dir)
		}
		written, err := dumputil.ExtractPayloads(records, dir, env.Cfg.Dump.PayloadNameTemplate, env.Overwrite)
		if err != nil {
			return fmt.Errorf("unable to extract payloads: %w", err)
		}
		env.Log.Info("Extracted record payloads", zap.Int("files", len(written)), zap.String("dir", dir), zap.Strings("names", written))
	}
	return nil
}

func runExtract(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	inPath, records, err := loadRecords(ctx, cmd)
	if err != nil {
		return err
	}

	blocks := collectBlocks(records, env.Log)
	env.Log.Info("Collected text blocks", zap.Int("blocks", len(blocks)))

	out := dumputil.DumpText(blocks)
	if cmd.Bool("stdout") {
		_, err := os.Stdout.WriteString(out)
		return err
	}
	env.Overwrite = cmd.Bool("overwrite")
	return dumputil.WriteOutput(inPath, cmd.String("out"), "-text.txt", []byte(out), env.Overwrite)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()

	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
