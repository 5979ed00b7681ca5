// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskgraph-mk/mk"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mk: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		sourceDir    string
		jobs         int
		dryRun       bool
		verbose      bool
		useCompiledb bool
		watch        bool
		why          string
	)

	cmd := &cobra.Command{
		Use:   "mk [build-dir]",
		Short: "A parallel, pattern-driven build orchestrator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buildRoot := "."
			if len(args) == 1 {
				buildRoot = args[0]
			}
			log := mk.NewLogger(cmd.ErrOrStderr(), verbose)

			opt := mk.Options{
				BuildRoot: buildRoot,
				SourceDir: sourceDir,
				Jobs:      jobs,
				DryRun:    dryRun,
				Compiledb: useCompiledb,
				Log:       log,
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if why != "" {
				sourceRoot := opt.SourceDir
				if sourceRoot == "" {
					sourceRoot = opt.BuildRoot
				}
				graph, recipes, err := mk.Load(opt, sourceRoot)
				if err != nil {
					return err
				}
				reasons, err := mk.Why(why, graph, recipes)
				if err != nil {
					return err
				}
				if len(reasons) == 0 {
					fmt.Printf("%s is up to date\n", why)
					return nil
				}
				fmt.Printf("%s needs rebuilding:\n", why)
				for _, r := range reasons {
					fmt.Printf("  - %s\n", r)
				}
				return nil
			}

			if watch {
				return mk.Watch(ctx, opt)
			}
			return mk.Build(ctx, opt)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&sourceDir, "source-dir", "s", "", "source directory (defaults to the build directory)")
	flags.IntVarP(&jobs, "jobs", "j", 0, "parallel jobs (0 = number of CPU cores)")
	flags.BoolVarP(&dryRun, "dry-run", "n", false, "print commands without executing them")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&useCompiledb, "compiledb", false, "write compile_commands.json from C/C++ recipe steps")
	flags.BoolVar(&watch, "watch", false, "rebuild automatically when a watched file changes")
	flags.StringVar(&why, "why", "", "explain whether <target> is stale, without building")

	return cmd
}
