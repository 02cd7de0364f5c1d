package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/querycheck/querycheck/internal/gen"
	"github.com/querycheck/querycheck/internal/scan"
)

// Version is the reported tool version.
// Can be set at build time using: -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

var (
	// Global flags
	cfgPath string
	verbose bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "querycheck",
	Short: "querycheck - build-time checking for data-access modules",
	Long: `querycheck scans data-access modules for members whose result is a
recognized query shape, pairs each one with a type-matched verification
capability, and generates a descriptor file your tests can run against a
real database.

Configuration lives in querycheck.yaml next to the code being scanned.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the descriptor file for the configured modules",
	Long: `Scans every module listed in querycheck.yaml, resolves canonical
arguments and capabilities, and writes the generated descriptor file.
A failed resolution aborts with a non-zero exit, which is the point:
wire this into go:generate or CI and a broken query surface fails the
build.`,
	RunE: runGenerate,
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the checkable members of the configured modules",
	RunE:  runMembers,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the querycheck version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("querycheck", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to querycheck.yaml (default: search upwards from cwd)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable structural traces")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds a console logger on stderr, colored when stderr is a
// terminal. Verbose mode lowers the level to debug so traces show up.
func newLogger(verbose bool) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

// loadConfig resolves the config path, loads it, and reports the directory
// package loading and output paths are relative to.
func loadConfig() (*gen.Config, string, error) {
	path := cfgPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		path, err = gen.FindConfig(cwd)
		if err != nil {
			return nil, "", err
		}
	}
	cfg, err := gen.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}
	runner, err := gen.NewRunner(cfg,
		gen.WithLogger(logger),
		gen.WithVerbose(verbose),
		gen.WithDir(dir),
	)
	if err != nil {
		return err
	}
	file, err := runner.Generate()
	if err != nil {
		return err
	}
	outPath := filepath.Join(dir, file.Filename)
	if err := os.WriteFile(outPath, []byte(file.Content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	logger.Info("descriptor file written", zap.String("path", outPath))
	return nil
}

func runMembers(cmd *cobra.Command, args []string) error {
	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}
	runner, err := gen.NewRunner(cfg,
		gen.WithLogger(logger),
		gen.WithDir(dir),
	)
	if err != nil {
		return err
	}
	for _, ms := range cfg.Modules {
		ref := scan.Ref{PkgPath: ms.Pkg, TypeName: ms.Type}
		var ds []gen.Descriptor
		if verbose {
			ds, err = runner.ScanVerbose(ref)
		} else {
			ds, err = runner.Scan(ref)
		}
		if err != nil {
			return err
		}
		for _, d := range ds {
			fmt.Println(d.Name)
		}
	}
	return nil
}
