package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/infrastructure/config"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/infrastructure/logging"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/repositories/filesystem"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/services"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/cache/memorycache"
)

// errDiagnostics makes check exit non-zero after the diagnostics were printed
var errDiagnostics = errors.New("schema has diagnostics")

var (
	envFlag string
	cfg     *config.Config
	logger  *slog.Logger
	service *services.CompileService
)

var rootCmd = &cobra.Command{
	Use:   "relgen",
	Short: "Relation store generator",
	Long: `Relation store generator.
Compiles relation schemas (Concept :: Type, Concept -> Target, Concept ->> Target,limit,N)
into Go modules with identifier sequences and typed relation tables.
Without a subcommand relgen builds every configured target.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runBuild,
}

var buildCmd = &cobra.Command{
	Use:   "build [schema=output ...]",
	Short: "Generate relation store modules",
	Long: `Generate a relation store module for every target.
Targets given as arguments replace the configured ones.`,
	RunE: runBuild,
}

var checkCmd = &cobra.Command{
	Use:   "check [schema=output ...]",
	Short: "Report schema diagnostics without writing modules",
	Long:  `Compile every target and print its diagnostics. Exits with status 1 when any diagnostic is reported.`,
	RunE:  runCheck,
}

var watchCmd = &cobra.Command{
	Use:   "watch [schema=output ...]",
	Short: "Rebuild modules when their schemas change",
	RunE:  runWatch,
}

func init() {
	// Add global flags to all commands
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")
	rootCmd.PersistentFlags().String("limit-policy", "reject", "What a limited one-to-many relation does on overflow (reject, warn)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	bindFlags()

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
}

// bindFlags lets the flags override the LIMIT_POLICY and LOG_LEVEL settings
func bindFlags() {
	_ = viper.BindPFlag("LIMIT_POLICY", rootCmd.PersistentFlags().Lookup("limit-policy"))
	_ = viper.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	// Initialize configuration from .env.{env} file
	if err := config.InitConfig(envFlag); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	var opts []services.CompileServiceOption
	if cfg.Cache.Entries > 0 {
		opts = append(opts, services.WithCache(memorycache.New[*services.Result](memorycache.Config{
			MaxEntries:    cfg.Cache.Entries,
			EnableMetrics: true,
		})))
	}

	fsys := afero.NewOsFs()
	service = services.NewCompileService(
		filesystem.NewSchemaRepository(fsys),
		filesystem.NewModuleRepository(fsys),
		services.CompileOptions{
			RuntimeImport: cfg.Generator.RuntimeImport,
			LimitPolicy:   cfg.Generator.LimitPolicy,
			SourceRoot:    cfg.ProjectRoot,
		},
		logger,
		opts...,
	)

	logger.Debug("configuration loaded",
		slog.String("env", envFlag),
		slog.String("root", cfg.ProjectRoot),
		slog.Int("targets", len(cfg.Targets)),
		slog.String("limit_policy", cfg.Generator.LimitPolicy.String()),
	)
	return nil
}

// targets returns the targets named on the command line, or the configured ones
func targets(args []string) ([]services.Target, error) {
	configured := cfg.Targets
	if len(args) > 0 {
		configured = nil
		for _, arg := range args {
			parsed, err := config.ParseTargets(arg)
			if err != nil {
				return nil, err
			}
			for _, t := range parsed {
				configured = append(configured, t.Resolve(cfg.ProjectRoot))
			}
		}
	}

	out := make([]services.Target, len(configured))
	for i, t := range configured {
		out[i] = services.Target{
			SchemaPath:  t.SchemaPath,
			OutputPath:  t.OutputPath,
			PackageName: t.PackageName,
		}
	}
	return out, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	ts, err := targets(args)
	if err != nil {
		return err
	}

	results, err := service.BuildAll(cmd.Context(), ts)
	if err != nil {
		return err
	}

	for _, r := range results {
		status := "unchanged"
		if r.Changed {
			status = "written"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d diagnostics)\n", r.Target.OutputPath, status, len(r.Diagnostics))
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ts, err := targets(args)
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		return services.ErrNoTargets
	}

	found := false
	for _, t := range ts {
		result, err := service.Check(cmd.Context(), t)
		if err != nil {
			return err
		}
		for _, d := range result.Diagnostics {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", t.SchemaPath, d)
			found = true
		}
	}

	if found {
		return errDiagnostics
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ts, err := targets(args)
	if err != nil {
		return err
	}

	watcher, err := services.NewWatcher(service, ts, cfg.Watch.Debounce, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watcher.Run(ctx)
}
