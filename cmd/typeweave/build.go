package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"typeweave/internal/diag"
	"typeweave/internal/diagfmt"
	"typeweave/internal/observ"
	"typeweave/internal/pipeline"
	"typeweave/internal/project"
	"typeweave/internal/trace"
)

var planCmd = &cobra.Command{
	Use:   "plan [project-dir]",
	Short: "Print the build plan of every recipe",
	Long: `Build the type model of every recipe in the project and print it: added
members, overrides, interface mappings and the bodies their providers produce.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error { return runPipeline(cmd, args, pipeline.ModePlan) },
}

var buildCmd = &cobra.Command{
	Use:   "build [project-dir]",
	Short: "Build every recipe and write one plan file per type",
	Args:  cobra.MaximumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runPipeline(cmd, args, pipeline.ModeBuild) },
}

var checkCmd = &cobra.Command{
	Use:   "check [project-dir]",
	Short: "Validate libraries and recipes without producing output",
	Args:  cobra.MaximumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runPipeline(cmd, args, pipeline.ModeCheck) },
}

func init() {
	for _, c := range []*cobra.Command{planCmd, buildCmd, checkCmd} {
		c.Flags().Int("jobs", 0, "max concurrent sessions (0=manifest or auto)")
		c.Flags().Bool("allow-partial", false, "accept interfaces with unimplemented methods")
		c.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
		c.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	}
	buildCmd.Flags().StringP("out", "o", "build", "output directory, relative to the project root")
}

type runOptions struct {
	jobs         int
	allowPartial bool
	format       string
	withNotes    bool
	outDir       string
	quiet        bool
	timings      bool
	maxDiags     int
	ui           uiMode
}

func readRunOptions(cmd *cobra.Command) (runOptions, error) {
	var (
		opts runOptions
		err  error
	)
	flags := cmd.Flags()
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.jobs < 0 {
		return opts, fmt.Errorf("--jobs must not be negative")
	}
	if opts.allowPartial, err = flags.GetBool("allow-partial"); err != nil {
		return opts, fmt.Errorf("failed to get allow-partial flag: %w", err)
	}
	if opts.format, err = flags.GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	if opts.format != "pretty" && opts.format != "json" {
		return opts, fmt.Errorf("unsupported format %q (must be pretty or json)", opts.format)
	}
	if opts.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if flags.Lookup("out") != nil {
		if opts.outDir, err = flags.GetString("out"); err != nil {
			return opts, fmt.Errorf("failed to get out flag: %w", err)
		}
	}

	root := cmd.Root().PersistentFlags()
	if opts.quiet, err = root.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = root.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiags, err = root.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	uiValue, err := root.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return opts, err
	}
	return opts, nil
}

// runPipeline loads the project manifest, runs the pipeline in mode and
// prints diagnostics to stderr. It fails when any error was reported.
func runPipeline(cmd *cobra.Command, args []string, mode pipeline.Mode) error {
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}
	stdoutColor, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	stderrColor, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}
	errOut := cmd.ErrOrStderr()

	startDir := "."
	if len(args) == 1 {
		startDir = args[0]
	}
	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "typeweave "+string(mode))
	defer span.End("")

	manifest, err := loadManifest(startDir)
	if err != nil {
		bag := diag.NewBag(1)
		code := diag.ProjInvalidManifest
		if errors.Is(err, errManifestNotFound) {
			code = diag.ProjManifestNotFound
		}
		diag.ReportError(diag.BagReporter{Bag: bag}, code, diag.Location{Path: startDir}, err.Error()).Emit()
		_ = printDiagnostics(errOut, bag, opts, stderrColor, "")
		return err
	}

	jobs := opts.jobs
	if jobs == 0 {
		jobs = manifest.Build.Jobs
	}
	timer := observ.NewTimer()
	req := &pipeline.Request{
		Manifest:       manifest,
		Mode:           mode,
		Jobs:           jobs,
		AllowPartial:   opts.allowPartial || manifest.Build.AllowPartial,
		MaxDiagnostics: opts.maxDiags,
		Output:         cmd.OutOrStdout(),
		Colorize:       stdoutColor,
		OutputDir:      opts.outDir,
		Timer:          timer,
	}

	var res pipeline.Result
	if mode != pipeline.ModePlan && !opts.quiet && shouldUseTUI(opts.ui) {
		files, ferr := manifest.RecipeFiles()
		if ferr == nil {
			for i, f := range files {
				files[i] = manifest.Rel(f)
			}
		}
		res, err = runBuildWithUI(ctx, fmt.Sprintf("%s %s", mode, manifest.Name), files, req)
	} else {
		res, err = pipeline.Build(ctx, req)
	}
	if err != nil {
		dumpTrace()
		return err
	}

	if perr := printDiagnostics(errOut, res.Bag, opts, stderrColor, manifest.Root); perr != nil {
		return perr
	}
	if opts.timings {
		printStageTimings(errOut, res.Timings)
		fmt.Fprint(errOut, timer.Summary())
		fmt.Fprintf(errOut, "override cache: %d hits, %d misses\n", res.CacheHits, res.CacheMisses)
	}
	if res.Bag.HasErrors() {
		dumpTrace()
		return fmt.Errorf("%s failed: %s", mode, diagfmt.Summary(res.Bag))
	}
	if !opts.quiet {
		printOutcome(errOut, mode, res)
	}
	return nil
}

func printDiagnostics(w io.Writer, bag *diag.Bag, opts runOptions, colored bool, root string) error {
	if opts.format == "json" {
		return diagfmt.JSON(w, bag, diagfmt.JSONOpts{IncludeNotes: opts.withNotes, BaseDir: root})
	}
	if bag.Len() == 0 {
		return nil
	}
	if err := diagfmt.Pretty(w, bag, diagfmt.PrettyOpts{Color: colored, ShowNotes: opts.withNotes, BaseDir: root}); err != nil {
		return err
	}
	if s := diagfmt.Summary(bag); s != "" && !opts.quiet {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	return nil
}

func printOutcome(w io.Writer, mode pipeline.Mode, res pipeline.Result) {
	switch mode {
	case pipeline.ModeBuild:
		for _, s := range res.Sessions {
			if s.Output != "" {
				fmt.Fprintf(w, "wrote %s\n", s.Output)
			}
		}
	case pipeline.ModeCheck:
		fmt.Fprintf(w, "checked %d recipes\n", len(res.Sessions))
	}
}

var errManifestNotFound = errors.New(project.ManifestName + " not found")

func loadManifest(startDir string) (*project.Manifest, error) {
	path, ok, err := project.FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w in %s or any parent directory", errManifestNotFound, startDir)
	}
	return project.LoadManifest(path)
}
