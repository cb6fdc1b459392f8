// Package pipeline orchestrates a project build: type libraries are read
// and declared into one frozen universe, then every recipe is applied in
// its own session and the finished models are handed to a backend.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"typeweave/internal/backend"
	"typeweave/internal/diag"
	"typeweave/internal/library"
	"typeweave/internal/meta"
	"typeweave/internal/model"
	"typeweave/internal/observ"
	"typeweave/internal/override"
	"typeweave/internal/project"
	"typeweave/internal/recipe"
	"typeweave/internal/trace"
)

// PlanExtension is the suffix of files written in ModeBuild.
const PlanExtension = ".plan.txt"

// Request configures one pipeline run.
type Request struct {
	Manifest *project.Manifest
	Mode     Mode
	// Jobs bounds concurrent sessions; 0 means GOMAXPROCS.
	Jobs           int
	AllowPartial   bool
	MaxDiagnostics int
	// Output receives plans in ModePlan.
	Output   io.Writer
	Colorize bool
	// OutputDir receives plan files in ModeBuild, relative to the project root
	// unless absolute. Empty means "build".
	OutputDir string
	Progress  ProgressSink
	Timer     *observ.Timer
}

func (req *Request) maxDiagnostics() int {
	switch {
	case req.MaxDiagnostics > 0:
		return req.MaxDiagnostics
	case req.Manifest.Build.MaxDiagnostics > 0:
		return req.Manifest.Build.MaxDiagnostics
	default:
		return project.DefaultMaxDiagnostics
	}
}

// Session is the outcome of one recipe.
type Session struct {
	File     string
	TypeName string
	Model    *model.TypeModel
	Applied  int
	Failed   int
	// Output is the written plan file in ModeBuild.
	Output string
	Err    error
}

// Result captures diagnostics, sessions and stage timings.
type Result struct {
	Bag      *diag.Bag
	Universe *meta.Universe
	Sessions []Session
	Timings  Timings
	// CacheHits and CacheMisses count override resolver lookups shared by
	// all sessions.
	CacheHits   uint64
	CacheMisses uint64
}

type job struct {
	file    string
	display string
	rc      *recipe.Recipe
	bag     *diag.Bag
	plan    bytes.Buffer
	session Session
}

// Build runs the pipeline. Problems found in project files are reported as
// diagnostics in Result.Bag; the returned error is reserved for failures of
// the run itself, such as cancellation or an unwritable output directory.
func Build(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || req.Manifest == nil {
		return result, fmt.Errorf("missing build request")
	}
	m := req.Manifest
	maxDiags := req.maxDiagnostics()
	result.Bag = diag.NewBag(maxDiags)
	r := diag.NewDedupReporter(diag.BagReporter{Bag: result.Bag})
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	ctx, span := trace.Start(ctx, trace.ScopePipeline, "build "+m.Name)
	defer span.End(string(req.Mode))

	libFiles, err := m.LibraryFiles()
	if err != nil {
		reportProject(r, m, diag.ProjMissingLibrary, "libraries", err)
		return result, nil
	}
	recipeFiles, err := m.RecipeFiles()
	if err != nil {
		reportProject(r, m, diag.ProjMissingRecipe, "recipes", err)
		return result, nil
	}
	jobsList := make([]*job, len(recipeFiles))
	displays := make([]string, len(recipeFiles))
	for i, file := range recipeFiles {
		jobsList[i] = &job{file: file, display: m.Rel(file), bag: diag.NewBag(maxDiags)}
		jobsList[i].session.File = jobsList[i].display
		displays[i] = jobsList[i].display
	}
	emitQueued(req.Progress, displays)

	loadStart := time.Now()
	emitStage(req.Progress, StageLoad, StatusWorking, nil, 0)
	universe, err := loadLibraries(ctx, req, libFiles, jobs, r)
	if err != nil {
		emitStage(req.Progress, StageLoad, StatusError, err, 0)
		return result, err
	}
	result.Universe = universe
	if err := decodeRecipes(ctx, req, jobsList, jobs); err != nil {
		emitStage(req.Progress, StageLoad, StatusError, err, 0)
		return result, err
	}
	jobsList = dropDuplicates(jobsList, r, req.Progress)
	result.Timings.Set(StageLoad, time.Since(loadStart))
	emitStage(req.Progress, StageLoad, StatusDone, nil, result.Timings.Duration(StageLoad))

	applyStart := time.Now()
	emitStage(req.Progress, StageApply, StatusWorking, nil, 0)
	cache := override.NewCache()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, j := range jobsList {
		if j.rc == nil {
			continue
		}
		g.Go(func() error { return runSession(gctx, req, universe, cache, j) })
	}
	if err := g.Wait(); err != nil {
		emitStage(req.Progress, StageApply, StatusError, err, 0)
		return result, err
	}
	result.CacheHits, result.CacheMisses = cache.Stats()
	result.Timings.Set(StageApply, time.Since(applyStart))
	emitStage(req.Progress, StageApply, StatusDone, nil, result.Timings.Duration(StageApply))

	emitStart := time.Now()
	done := req.Timer.Track("emit")
	emitErr := emit(req, jobsList)
	done(fmt.Sprintf("%d sessions", len(jobsList)))
	result.Timings.Set(StageEmit, time.Since(emitStart))
	if emitErr != nil {
		emitStage(req.Progress, StageEmit, StatusError, emitErr, 0)
		return result, emitErr
	}
	emitStage(req.Progress, StageEmit, StatusDone, nil, result.Timings.Duration(StageEmit))

	for _, j := range jobsList {
		for _, d := range j.bag.Items() {
			result.Bag.Add(d)
		}
		result.Sessions = append(result.Sessions, j.session)
	}
	result.Bag.Sort()
	return result, nil
}

func reportProject(r diag.Reporter, m *project.Manifest, code diag.Code, key string, err error) {
	loc := diag.Location{Path: m.Rel(m.Path), Subject: "[project]." + key}
	msg := err.Error()
	if errors.Is(err, project.ErrNoMatch) {
		msg = fmt.Sprintf("%s entry %v", key, err)
	}
	diag.ReportError(r, code, loc, msg).Emit()
}

// loadLibraries reads library files concurrently, each into its own bag,
// and declares them in file order.
func loadLibraries(ctx context.Context, req *Request, files []string, jobs int, r diag.Reporter) (*meta.Universe, error) {
	ctx, span := trace.Start(ctx, trace.ScopePipeline, "load libraries")
	defer span.End(fmt.Sprintf("%d files", len(files)))
	done := req.Timer.Track("load libraries")

	m := req.Manifest
	var cache *library.DiskCache
	if dir := m.CachePath(); dir != "" {
		c, err := library.OpenDiskCache(dir)
		if err != nil {
			diag.ReportWarning(r, diag.LibCacheCorrupted, diag.Location{Path: m.Rel(dir)}, fmt.Sprintf("library cache disabled: %v", err)).Emit()
		} else {
			cache = c
		}
	}

	sources := make([]*library.Source, len(files))
	bags := make([]*diag.Bag, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		bags[i] = diag.NewBag(req.maxDiagnostics())
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sources[i] = library.Read(file, m.Rel(file), cache, diag.BagReporter{Bag: bags[i]})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		done("cancelled")
		return nil, err
	}

	loaded := make([]*library.Source, 0, len(sources))
	cached := 0
	for i, src := range sources {
		for _, d := range bags[i].Items() {
			r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
		if src == nil {
			continue
		}
		if src.Cached {
			cached++
		}
		loaded = append(loaded, src)
	}
	u := library.Load(loaded, r)
	done(fmt.Sprintf("%d libraries, %d cached", len(loaded), cached))
	return u, nil
}

func decodeRecipes(ctx context.Context, req *Request, jobsList []*job, jobs int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, j := range jobsList {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emitSession(req.Progress, j, StageLoad, StatusWorking, 0)
			j.rc = recipe.Read(j.file, j.display, diag.BagReporter{Bag: j.bag})
			if j.rc == nil {
				j.session.Err = fmt.Errorf("%s: invalid recipe", j.display)
				emitSession(req.Progress, j, StageLoad, StatusError, 0)
				return nil
			}
			j.session.TypeName = j.rc.Type.FullName()
			emitSession(req.Progress, j, StageLoad, StatusDone, 0)
			return nil
		})
	}
	return g.Wait()
}

// dropDuplicates keeps the first recipe of every type name.
func dropDuplicates(jobsList []*job, r diag.Reporter, sink ProgressSink) []*job {
	first := make(map[string]*job, len(jobsList))
	for _, j := range jobsList {
		if j.rc == nil {
			continue
		}
		name := j.rc.Type.FullName()
		prev, dup := first[name]
		if !dup {
			first[name] = j
			continue
		}
		diag.ReportError(r, diag.RcpDuplicateRecipe, diag.Location{Path: j.display, Subject: name}, fmt.Sprintf("type %s is already built by another recipe", name)).
			WithNote(diag.Location{Path: prev.display, Subject: name}, "first recipe is here").
			Emit()
		j.rc = nil
		j.session.Err = fmt.Errorf("duplicate recipe for %s", name)
		emitSession(sink, j, StageLoad, StatusError, 0)
	}
	return jobsList
}

func runSession(ctx context.Context, req *Request, u *meta.Universe, cache *override.Cache, j *job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	done := req.Timer.Track("session " + j.rc.Type.FullName())
	emitSession(req.Progress, j, StageApply, StatusWorking, 0)

	r := diag.BagReporter{Bag: j.bag}
	res := recipe.Apply(ctx, u, u, j.rc, j.display, r, model.WithCache(cache))
	j.session.Model = res.Model
	j.session.Applied = res.Applied
	j.session.Failed = res.Failed

	if res.Model != nil {
		tb := backend.NewTextBackend(&j.plan, req.Colorize && req.Mode == ModePlan)
		if err := backend.Walk(ctx, res.Model, tb, backend.Options{AllowPartial: req.AllowPartial}); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			reportWalk(r, j.display, res.Model.FullName(), err)
		}
	}
	done(fmt.Sprintf("%d applied, %d failed", res.Applied, res.Failed))

	if j.bag.HasErrors() {
		j.session.Err = fmt.Errorf("%s: %d errors", j.display, j.bag.CountErrors())
		emitSession(req.Progress, j, StageApply, StatusError, time.Since(start))
		return nil
	}
	emitSession(req.Progress, j, StageApply, StatusDone, time.Since(start))
	return nil
}

// reportWalk reports every error joined into err.
func reportWalk(r diag.Reporter, path, subject string, err error) {
	if ce, ok := err.(*model.ConfigError); ok {
		d := ce.Diagnostic(path)
		diag.ReportError(r, d.Code, d.Primary, d.Message).Emit()
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			reportWalk(r, path, subject, e)
		}
		return
	}
	var ce *model.ConfigError
	if errors.As(err, &ce) {
		reportWalk(r, path, subject, ce)
		return
	}
	diag.ReportError(r, diag.ModelInvalidBody, diag.Location{Path: path, Subject: subject}, err.Error()).Emit()
}

// emit writes plans of sessions without errors, in recipe order.
func emit(req *Request, jobsList []*job) error {
	var dir string
	if req.Mode == ModeBuild {
		dir = req.OutputDir
		if dir == "" {
			dir = "build"
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(req.Manifest.Root, dir)
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	for _, j := range jobsList {
		if j.rc == nil || j.session.Model == nil || j.session.Err != nil {
			continue
		}
		emitSession(req.Progress, j, StageEmit, StatusWorking, 0)
		switch req.Mode {
		case ModePlan:
			if req.Output == nil {
				break
			}
			if _, err := req.Output.Write(j.plan.Bytes()); err != nil {
				return err
			}
		case ModeBuild:
			out := filepath.Join(dir, j.session.TypeName+PlanExtension)
			if filepath.Dir(out) != filepath.Clean(dir) {
				return fmt.Errorf("plan file for %q escapes %s", j.session.TypeName, dir)
			}
			if err := os.WriteFile(out, j.plan.Bytes(), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			j.session.Output = out
		}
		emitSession(req.Progress, j, StageEmit, StatusDone, 0)
	}
	return nil
}
