package maincmd_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/ember/internal/filetest"
	"github.com/mna/ember/internal/maincmd"
	"github.com/mna/mainer"
)

var testUpdateRunTests = flag.Bool("test.update-run-tests", false, "If set, replace expected run test results with actual results.")

func TestRunFile(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".ember") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{
				Stdout: &buf,
				Stderr: &ebuf,
			}

			// exit code is covered by the error golden file: a non-empty
			// .err file implies a non-zero code, checked informally by eye.
			_ = maincmd.RunFile(stdio, filepath.Join(srcDir, fi.Name()))
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateRunTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateRunTests)
		})
	}
}
