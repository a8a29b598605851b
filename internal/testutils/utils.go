// Package testutils provides helpers shared by tests.
package testutils

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/safe-waters/stack-plan/pkg/lint"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
	"github.com/safe-waters/stack-plan/pkg/plan/update"
)

const (
	BusyboxLatestSHA  = "bae015c28bc7cdee3b7ef20d35db4299e3068554a769070950229d9f53f58572" // nolint: lll
	GolangLatestSHA   = "6cb55c08bbf44793f16e3572bd7d2ae18f7a858f6ae4faa474c0a6eae1174a5d" // nolint: lll
	RedisLatestSHA    = "09c33840ec47815dc0351f1eca3befe741d7105b3e95bc8fdb9a7e4985b9e1e5" // nolint: lll
	UserSvcLatestSHA  = "2bef0a4aa7a0e4e34b2c586bcfe48bb8a02f00da5e9e1a601cb786c6ba862f16" // nolint: lll
	TodoSvcLatestSHA  = "8ae92a9bc9f4f846b9f4f10c39b625824aa35dbd38e10a3958f031eb68d3c0a9" // nolint: lll
	FrontendLatestSHA = "6e3ea1a7bd3f163d7bf179a146642f0e41b4f027d9d533e1d43cf8e4e1dbd743" // nolint: lll
)

type mockDigestRequester struct {
	numNetworkCalls *uint64
}

// NewMockDigestRequester returns an IDigestRequester that resolves a
// fixed set of images without the network, counting each call.
func NewMockDigestRequester(
	t *testing.T,
	numNetworkCalls *uint64,
) update.IDigestRequester {
	t.Helper()

	return &mockDigestRequester{
		numNetworkCalls: numNetworkCalls,
	}
}

func (m *mockDigestRequester) Digest(name string, tag string) (string, error) {
	if m.numNetworkCalls != nil {
		atomic.AddUint64(m.numNetworkCalls, 1)
	}

	nameTag := fmt.Sprintf("%s:%s", name, tag)

	switch nameTag {
	case "busybox:latest":
		return BusyboxLatestSHA, nil
	case "redis:latest":
		return RedisLatestSHA, nil
	case "golang:latest":
		return GolangLatestSHA, nil
	case "smurfanders/user-service:latest":
		return UserSvcLatestSHA, nil
	case "smurfanders/todo-service:latest":
		return TodoSvcLatestSHA, nil
	case "smurfanders/frontend-service:latest":
		return FrontendLatestSHA, nil
	default:
		return "", fmt.Errorf("no digest found for %s", nameTag)
	}
}

// AssertTopologiesEqual fails the test if the topologies differ in
// anything other than their Path and Err fields, which are compared
// separately since they are not marshaled.
func AssertTopologiesEqual(
	t *testing.T,
	expected []*parse.Topology,
	got []*parse.Topology,
) {
	t.Helper()

	if len(expected) != len(got) {
		t.Fatalf("expected %d topologies, got %d", len(expected), len(got))
	}

	for i := range expected {
		if expected[i].Path != got[i].Path {
			t.Fatalf(
				"expected path %s, got %s", expected[i].Path, got[i].Path,
			)
		}

		if (expected[i].Err == nil) != (got[i].Err == nil) {
			t.Fatalf(
				"expected err %v, got %v", expected[i].Err, got[i].Err,
			)
		}

		expectedByt, err := json.MarshalIndent(expected[i], "", "\t")
		if err != nil {
			t.Fatal(err)
		}

		gotByt, err := json.MarshalIndent(got[i], "", "\t")
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(expectedByt, gotByt) {
			t.Fatalf(
				"expected:\n%s\ngot:\n%s",
				string(expectedByt), string(gotByt),
			)
		}
	}
}

// AssertPlanfilesEqual fails the test if the JSON forms of the
// Planfiles differ.
func AssertPlanfilesEqual(
	t *testing.T,
	expected interface{},
	got interface{},
) {
	t.Helper()

	expectedByt, err := json.MarshalIndent(expected, "", "\t")
	if err != nil {
		t.Fatal(err)
	}

	gotByt, err := json.MarshalIndent(got, "", "\t")
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(expectedByt, gotByt) {
		t.Fatalf(
			"expected:\n%s\ngot:\n%s", string(expectedByt), string(gotByt),
		)
	}
}

// AssertFindingsEqual fails the test if the findings differ.
func AssertFindingsEqual(
	t *testing.T,
	expected []*lint.Finding,
	got []*lint.Finding,
) {
	t.Helper()

	if len(expected) != len(got) {
		t.Fatalf(
			"expected %d findings, got %d:\n%s",
			len(expected), len(got), findingLines(got),
		)
	}

	for i := range expected {
		if *expected[i] != *got[i] {
			t.Fatalf(
				"expected finding %+v, got %+v", *expected[i], *got[i],
			)
		}
	}
}

func findingLines(findings []*lint.Finding) string {
	var buf bytes.Buffer

	for _, finding := range findings {
		buf.WriteString(fmt.Sprintf("%s\n", finding))
	}

	return buf.String()
}

// AssertFlagsEqual fails the test if the flags differ.
func AssertFlagsEqual(
	t *testing.T,
	expected interface{},
	got interface{},
) {
	t.Helper()

	if !reflect.DeepEqual(expected, got) {
		t.Fatalf("expected %+v, got %+v", expected, got)
	}
}

// AssertWrittenFilesEqual fails the test if the contents of the files at
// got differ from expected.
func AssertWrittenFilesEqual(t *testing.T, expected [][]byte, got []string) {
	t.Helper()

	if len(expected) != len(got) {
		t.Fatalf("expected %d contents, got %d", len(expected), len(got))
	}

	for i := range expected {
		gotContents, err := ioutil.ReadFile(got[i])
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(expected[i], gotContents) {
			t.Fatalf(
				"expected:\n%s\ngot:\n%s",
				string(expected[i]),
				string(gotContents),
			)
		}
	}
}

// AssertNumNetworkCallsEqual fails the test if the counts differ.
func AssertNumNetworkCallsEqual(t *testing.T, expected uint64, got uint64) {
	t.Helper()

	if expected != got {
		t.Fatalf("expected %d network calls, got %d", expected, got)
	}
}

// MakeDir creates a directory and all of its parents.
func MakeDir(t *testing.T, dirPath string) {
	t.Helper()

	err := os.MkdirAll(dirPath, 0777) // nolint: gomnd
	if err != nil {
		t.Fatal(err)
	}
}

// MakeTempDir creates a temporary directory.
func MakeTempDir(t *testing.T, dirName string) string {
	t.Helper()

	dir, err := ioutil.TempDir("", dirName)
	if err != nil {
		t.Fatal(err)
	}

	return dir
}

// MakeTempDirInCurrentDir creates a uniquely named directory in the
// current working directory, for components that reject paths outside it.
func MakeTempDirInCurrentDir(t *testing.T) string {
	t.Helper()

	const tempLen = 16

	b := make([]byte, tempLen)

	_, err := rand.Read(b)
	if err != nil {
		t.Fatal(err)
	}

	uuid := fmt.Sprintf("%x-%x-%x-%x-%x",
		b[0:4], b[4:6], b[6:8], b[8:10], b[10:],
	)
	MakeDir(t, uuid)

	return uuid
}

// MakeParentDirsInTempDirFromFilePaths creates the parent directories of
// each path inside tempDir.
func MakeParentDirsInTempDirFromFilePaths(
	t *testing.T,
	tempDir string,
	paths []string,
) {
	t.Helper()

	for _, p := range paths {
		dir, _ := filepath.Split(p)
		fullDir := filepath.Join(tempDir, dir)

		MakeDir(t, fullDir)
	}
}

// WriteFilesToTempDir writes fileContents to fileNames inside tempDir and
// returns the full paths.
func WriteFilesToTempDir(
	t *testing.T,
	tempDir string,
	fileNames []string,
	fileContents [][]byte,
) []string {
	t.Helper()

	if len(fileNames) != len(fileContents) {
		t.Fatalf(
			"different number of names and contents: %d names, %d contents",
			len(fileNames), len(fileContents))
	}

	fullPaths := make([]string, len(fileNames))

	for i, name := range fileNames {
		fullPath := filepath.Join(tempDir, name)

		if err := ioutil.WriteFile(
			fullPath, fileContents[i], 0777, // nolint: gomnd
		); err != nil {
			t.Fatal(err)
		}

		fullPaths[i] = fullPath
	}

	return fullPaths
}
