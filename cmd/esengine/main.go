// Command esengine is the reference CLI host for package esengine,
// grounded on demo/cmd/main.go's cobra wiring (a rootCmd with small,
// focused subcommands added via rootCmd.AddCommand, each a thin
// wrapper over one library call) and internal/cli's flag-to-Config
// plumbing, generalized from morfx's AST-query domain to spec §6.3's
// eval/run/disasm/repl surface.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oxhq/esengine"
	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/compiler/disasm"
	"github.com/oxhq/esengine/internal/config"
	"github.com/oxhq/esengine/internal/frontend/treesitter"
	"github.com/oxhq/esengine/internal/loader"
	"github.com/oxhq/esengine/internal/store"
	"github.com/oxhq/esengine/internal/xlog"
)

var (
	flagDotenv       string
	flagLogLevel     string
	flagModuleRoot   string
	flagCacheDSN     string
	flagCacheDialect string
	flagDiffAgainst  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "esengine",
		Short: "Embeddable ECMAScript engine CLI",
		Long:  "Evaluate, run, disassemble, and interactively explore scripts against the esengine runtime.",
	}
	rootCmd.PersistentFlags().StringVar(&flagDotenv, "env-file", "", "path to a .env file overriding defaults")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "engine diagnostic log level (debug enables internal/xlog tracing)")
	rootCmd.PersistentFlags().StringVar(&flagModuleRoot, "module-root", "", "base directory for resolving import specifiers")
	rootCmd.PersistentFlags().StringVar(&flagCacheDSN, "cache", "", "DSN of an internal/store CodeBlock cache to reuse across invocations (empty disables caching)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDialect, "cache-dialect", "", "internal/store dialect for --cache (sqlite, libsql, mysql, postgres)")

	rootCmd.AddCommand(
		newEvalCmd(),
		newRunCmd(),
		newDisasmCmd(),
		newReplCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	overrides := map[string]string{}
	if flagLogLevel != "" {
		overrides["log-level"] = flagLogLevel
	}
	if flagModuleRoot != "" {
		overrides["module-root"] = flagModuleRoot
	}
	if flagCacheDSN != "" {
		overrides["store-dsn"] = flagCacheDSN
	}
	if flagCacheDialect != "" {
		overrides["store-dialect"] = flagCacheDialect
	}
	return config.Load(flagDotenv, overrides)
}

// newContext builds an esengine.Context with logging gated by
// cfg.LogLevel, the way every subcommand below needs one. Callers that
// also need a module Loader build one themselves against
// cfg.ModuleRoot, since only `run --module` needs one.
func newContext(cfg *config.Config) *esengine.Context {
	log := xlog.Default()
	log.SetEnabled(cfg.LogLevel == "debug")
	return esengine.New(esengine.HostHooks{Log: log})
}

// openCache opens the optional internal/store CodeBlock cache
// cfg.StoreDSN names, or returns (nil, nil) when caching is disabled
// (the default — most `eval`/`run` invocations are one-shot and gain
// nothing from a cache).
func openCache(cfg *config.Config) (*store.Store, error) {
	if cfg.StoreDSN == "" {
		return nil, nil
	}
	return store.Open(store.Options{
		Dialect:   store.Dialect(cfg.StoreDialect),
		DSN:       cfg.StoreDSN,
		MasterKey: cfg.StoreMasterKey,
	})
}

// compileCached returns source's CodeBlock, consulting cache (if any)
// before falling back to ctx.Compile, and populating cache on a miss.
func compileCached(ctx *esengine.Context, cache *store.Store, source string) (*compiler.CodeBlock, error) {
	if cache != nil {
		if code, ok, err := cache.Get(source); err == nil && ok {
			return code, nil
		}
	}
	code, err := ctx.Compile(source, false)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		_ = cache.Put(source, code)
	}
	return code, nil
}

func newEvalCmd() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a script expression or file and print its completion value",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := newContext(cfg)

			source := expr
			if source == "" {
				if len(args) == 0 {
					return fmt.Errorf("eval: provide -e SOURCE or a file argument")
				}
				b, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("eval: %w", err)
				}
				source = string(b)
			}

			cache, err := openCache(cfg)
			if err != nil {
				return fmt.Errorf("eval: opening cache: %w", err)
			}
			if cache != nil {
				defer cache.Close()
			}

			code, err := compileCached(ctx, cache, source)
			if err != nil {
				return err
			}
			v, err := ctx.RunCompiled(code)
			if err != nil {
				return err
			}
			s, err := v.String()
			if err != nil {
				return err
			}
			fmt.Println(s)
			return nil
		},
	}
	cmd.Flags().StringVarP(&expr, "eval", "e", "", "inline source to evaluate")
	return cmd
}

func newRunCmd() *cobra.Command {
	var asModule bool
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a script or module file for its side effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := newContext(cfg)

			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			source := string(b)

			if !asModule {
				cache, err := openCache(cfg)
				if err != nil {
					return fmt.Errorf("run: opening cache: %w", err)
				}
				if cache != nil {
					defer cache.Close()
				}
				code, err := compileCached(ctx, cache, source)
				if err != nil {
					return err
				}
				_, err = ctx.RunCompiled(code)
				return err
			}

			abs, err := filepath.Abs(args[0])
			if err != nil {
				abs = args[0]
			}
			root := cfg.ModuleRoot
			if root == "" {
				root = filepath.Dir(abs)
			}
			fsLoader := loader.NewFSLoader(ctx.Engine(), root, treesitter.New())

			mod, err := ctx.ParseModule(abs, source)
			if err != nil {
				return err
			}
			loadErr := make(chan error, 1)
			mod.Load(fsLoader, func(e error) { loadErr <- e })
			if e := <-loadErr; e != nil {
				return fmt.Errorf("run: loading module graph: %w", e)
			}
			if err := mod.Link(); err != nil {
				return fmt.Errorf("run: linking: %w", err)
			}
			if result := mod.Evaluate(); result.IsObject() {
				// top-level await settles as a Promise; Evaluate already
				// drained the job queue, nothing further to do here.
				_ = result
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asModule, "module", false, "parse and evaluate the file as an ES module")
	return cmd
}

func newDisasmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm [file]",
		Short: "Compile a script and print its disassembled bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := newContext(cfg)

			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("disasm: %w", err)
			}

			code, err := ctx.Compile(string(b), false)
			if err != nil {
				return err
			}
			listing := disasm.Format(code)

			if flagDiffAgainst == "" {
				fmt.Print(listing)
				return nil
			}

			golden, err := os.ReadFile(flagDiffAgainst)
			if err != nil {
				return fmt.Errorf("disasm: reading golden file: %w", err)
			}
			diffText, err := disasm.Diff(flagDiffAgainst, string(golden), args[0], listing)
			if err != nil {
				return fmt.Errorf("disasm: diffing: %w", err)
			}
			if diffText == "" {
				fmt.Println("no differences")
				return nil
			}
			fmt.Print(diffText)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagDiffAgainst, "diff", "", "unified-diff the disassembly against a golden file")
	return cmd
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop over stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := newContext(cfg)

			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprint(os.Stdout, "> ")
			for scanner.Scan() {
				line := scanner.Text()
				if line == "" {
					fmt.Fprint(os.Stdout, "> ")
					continue
				}
				v, err := ctx.Eval(line)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
				} else if s, serr := v.String(); serr == nil {
					fmt.Fprintln(os.Stdout, s)
				}
				fmt.Fprint(os.Stdout, "> ")
			}
			fmt.Fprintln(os.Stdout)
			return scanner.Err()
		},
	}
}
