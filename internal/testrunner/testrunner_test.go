package testrunner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func TestDiscoverFindsNestedTestScripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	writeScript(t, dir, "a_test.buzz", "return true;")
	writeScript(t, filepath.Join(dir, "sub"), "b_test.buzz", "return true;")
	writeScript(t, dir, "helper.buzz", "return true;")

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a_test.buzz", "sub/b_test.buzz"}, files)
}

func TestRunReportsPassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "math_test.buzz", `
		fun test_addition() {
			return 1 + 1 == 2;
		}
		fun test_always_fails() {
			return 1 + 1 == 3;
		}
	`)

	results, err := Run(dir, []string{"math_test.buzz"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	summary := Summarize(results)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)

	for _, r := range results {
		if r.Name == "test_always_fails" {
			assert.NotEmpty(t, r.Diff)
		}
	}
}
