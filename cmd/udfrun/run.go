package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/gridsynth/udfrun"
)

const runHelp = `udfrun run [-flags] -job=job1.json [-job=job2.json ...]

Run one or more packed UDFs concurrently, each against its own job
description file (see jobspec.go for the JSON shape). Every job uses a
disjoint shared region and on-disk artifact, so they are safe to run in
the same process at once.
`

type jobFlag []string

func (f *jobFlag) String() string { return fmt.Sprint([]string(*f)) }
func (f *jobFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func run(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("run", flag.ExitOnError)
	fset.Usage = usage(fset, runHelp)
	var jobs jobFlag
	fset.Var(&jobs, "job", "path to a job spec file (may be repeated)")
	fset.Parse(args)

	if len(jobs) == 0 {
		fset.Usage()
		os.Exit(2)
	}

	colorize := isatty.IsTerminal(os.Stderr.Fd())

	g, gctx := errgroup.WithContext(ctx)
	for _, jobPath := range jobs {
		jobPath := jobPath
		g.Go(func() error {
			return runOneJob(gctx, jobPath, colorize)
		})
	}
	return g.Wait()
}

func runOneJob(ctx context.Context, jobPath string, colorize bool) error {
	job, err := loadJobSpec(jobPath)
	if err != nil {
		return err
	}

	blob, err := os.ReadFile(job.Blob)
	if err != nil {
		return err
	}

	inputs := make([]*udfrun.Dataset, len(job.Inputs))
	for i, spec := range job.Inputs {
		data, err := os.ReadFile(spec.Path)
		if err != nil {
			return err
		}
		ds, err := udfrun.NewDataset(spec.Name, udfrun.DType(spec.DType), spec.Dims, data)
		if err != nil {
			return fmt.Errorf("job %s: input %s: %w", jobPath, spec.Name, err)
		}
		inputs[i] = ds
	}

	outSpec := job.Output
	outDType := udfrun.DType(outSpec.DType)
	outBuf := make([]byte, gridSize(outSpec.Dims)*outDType.Size())
	output, err := udfrun.NewDataset(outSpec.Name, outDType, outSpec.Dims, outBuf)
	if err != nil {
		return fmt.Errorf("job %s: output: %w", jobPath, err)
	}

	policy := udfrun.DefaultPolicy()
	if job.PolicyFile != "" {
		policy, err = udfrun.LoadPolicy(job.PolicyFile)
		if err != nil {
			return fmt.Errorf("job %s: policy: %w", jobPath, err)
		}
	}

	ok, diag, err := udfrun.Run(ctx, udfrun.RunOptions{
		Policy:  policy,
		Sandbox: job.Sandbox,
		Inputs:  inputs,
		Output:  output,
		Blob:    blob,
	})
	if err != nil {
		return fmt.Errorf("job %s: %w", jobPath, err)
	}
	if !ok {
		return fmt.Errorf("job %s: run reported failure before the child could start", jobPath)
	}

	if err := os.WriteFile(outSpec.Path, output.Data, 0o644); err != nil {
		return err
	}
	printDiagnostic(jobPath, diag, colorize)
	return nil
}

func gridSize(dims []int64) int64 {
	n := int64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

func printDiagnostic(jobPath string, diag udfrun.Diagnostics, colorize bool) {
	status := "ok"
	switch {
	case !diag.Ran:
		status = "not run"
	case diag.Signaled:
		status = "killed (" + diag.Signal + ")"
	case diag.ExitCode != 0:
		status = fmt.Sprintf("exit %d", diag.ExitCode)
	}
	if colorize && (diag.Signaled || diag.ExitCode != 0) {
		fmt.Fprintf(os.Stderr, "\x1b[33m%s: %s\x1b[0m\n", jobPath, status)
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", jobPath, status)
}
