package main

import (
	"fmt"

	"buzz/internal/testrunner"
)

func runTests(dir string) error {
	files, err := testrunner.Discover(dir)
	if err != nil {
		return fmt.Errorf("discovering tests under %s: %w", dir, err)
	}
	if len(files) == 0 {
		fmt.Printf("no test files found under %s\n", dir)
		return nil
	}

	results, err := testrunner.Run(dir, files)
	if err != nil {
		return err
	}

	for _, r := range results {
		switch {
		case r.Error != nil:
			fmt.Printf("FAIL %s::%s  %v\n", r.File, r.Name, r.Error)
		case !r.Ok:
			fmt.Printf("FAIL %s::%s\n%s\n", r.File, r.Name, r.Diff)
		default:
			fmt.Printf("ok   %s::%s\n", r.File, r.Name)
		}
	}

	summary := testrunner.Summarize(results)
	fmt.Printf("\n%d passed, %d failed\n", summary.Passed, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d test(s) failed", summary.Failed)
	}
	return nil
}
