// Package testrunner discovers and executes buzz test scripts (§4.10):
// files matching `**/*_test.buzz` whose top-level `test_*` functions
// are run with no arguments and must return `true`.
package testrunner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pmezard/go-difflib/difflib"

	"buzz/internal/compiler"
	"buzz/pkg/fiber"
	"buzz/pkg/gc"
	"buzz/pkg/types"
	"buzz/pkg/value"
	"buzz/pkg/vm"
)

// Discover walks dir for test scripts, in lexical order for
// deterministic run output.
func Discover(dir string) ([]string, error) {
	return doublestar.Glob(os.DirFS(dir), "**/*_test.buzz")
}

// Result is the outcome of running one test_* function.
type Result struct {
	File  string
	Name  string
	Ok    bool
	Diff  string
	Error error
}

// Run compiles and executes every test_* function found in each of
// files (paths relative to dir). Each file gets its own fresh VM, so one
// file's globals can never leak into another's; the test_* functions of
// one file share that file's VM and globals.
func Run(dir string, files []string) ([]Result, error) {
	var results []Result
	for _, rel := range files {
		path := filepath.Join(dir, rel)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("testrunner: reading %s: %w", path, err)
		}
		fileResults, err := runFile(rel, string(src))
		if err != nil {
			return nil, fmt.Errorf("testrunner: %s: %w", rel, err)
		}
		results = append(results, fileResults...)
	}
	return results, nil
}

func runFile(name, src string) ([]Result, error) {
	registry := types.NewRegistry()
	heap := gc.New(registry)
	root := value.NewFiber(nil)
	sched := fiber.NewScheduler(root)
	machine := vm.New(heap, registry, sched)

	unit, err := compiler.Compile(src, heap, registry)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if _, err := machine.Call(unit.Main, nil); err != nil {
		return nil, fmt.Errorf("module init: %w", err)
	}

	var results []Result
	for _, gname := range machine.GlobalNames() {
		if !strings.HasPrefix(gname, "test_") {
			continue
		}
		results = append(results, runOne(machine, name, gname))
	}
	return results, nil
}

func runOne(machine *vm.VM, file, name string) Result {
	fn, _ := machine.Global(name)
	got, err := machine.Call(fn.O, nil)
	if err != nil {
		return Result{File: file, Name: name, Ok: false, Error: err}
	}
	if got == value.Bool(true) {
		return Result{File: file, Name: name, Ok: true}
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines("true\n"),
		B:        difflib.SplitLines(value.ToString(got) + "\n"),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  1,
	})
	return Result{File: file, Name: name, Ok: false, Diff: diff}
}

// Summary counts pass/fail across a Run result set.
type Summary struct {
	Passed int
	Failed int
}

func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Ok {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}
