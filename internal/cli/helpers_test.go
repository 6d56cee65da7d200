package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRoleARN = "arn:aws:iam::123456789012:role/NeptuneLoadFromS3"

// fakeCluster serves the bulk loader API. Every job replays the same status
// script; the last entry repeats.
type fakeCluster struct {
	t *testing.T

	mu          sync.Mutex
	script      []string
	rejectWith  int
	submissions []map[string]string
	checks      map[string]int
}

func newFakeCluster(t *testing.T, script ...string) (*fakeCluster, *httptest.Server) {
	t.Helper()
	f := &fakeCluster{t: t, script: script, checks: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeCluster) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/loader":
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.t.Errorf("decode submission: %v", err)
		}
		f.submissions = append(f.submissions, body)
		if f.rejectWith != 0 {
			w.WriteHeader(f.rejectWith)
			fmt.Fprint(w, `{"code":"BadRequestException","detailedMessage":"Invalid s3 source"}`)
			return
		}
		fmt.Fprintf(w, `{"status":"200 OK","payload":{"loadId":"load-%d"}}`, len(f.submissions))

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/loader/"):
		id := strings.TrimPrefix(r.URL.Path, "/loader/")
		f.checks[id]++
		idx := min(f.checks[id], len(f.script)) - 1
		if idx < 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		status := f.script[idx]
		if code, ok := strings.CutPrefix(status, "HTTP "); ok {
			var n int
			fmt.Sscanf(code, "%d", &n)
			w.WriteHeader(n)
			fmt.Fprint(w, `{"code":"InternalFailureException","detailedMessage":"boom"}`)
			return
		}
		fmt.Fprintf(w, `{"status":"200 OK","payload":{"overallStatus":{"status":%q,"totalRecords":2}}}`, status)

	default:
		f.t.Errorf("unexpected loader request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeCluster) submitted() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.submissions...)
}

func (f *fakeCluster) totalChecks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.checks {
		n += c
	}
	return n
}

// fakeS3 is a path-style S3 endpoint keeping objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = data
		f.puts = append(f.puts, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) putPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.puts...)
}

// writeTestConfig writes a config with zero polling delays.
func writeTestConfig(t *testing.T, loaderURL, s3URL string) string {
	t.Helper()
	content := fmt.Sprintf(`loader:
  endpoint: %s/loader
  region: us-east-1
  iam_role_arn: %s
  rate_limit: 1000
  rate_burst: 100
polling:
  settle_delay: 0s
  interval: 0s
  backoff: 0s
  max_iterations: 10
staging:
  bucket: staging-bucket
  region: us-east-1
  endpoint: %s
  access_key_id: AKIDEXAMPLE
  secret_access_key: secret
  path_style: true
`, loaderURL, testRoleARN, s3URL)

	path := filepath.Join(t.TempDir(), "graphload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeCSV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("~id,~label\n1,person\n"), 0644))
	return path
}

// runCLI executes the command tree and captures stdout and stderr.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	for _, name := range []string{"GRAPHLOAD_ENDPOINT", "GRAPHLOAD_IAM_ROLE_ARN", "GRAPHLOAD_STAGING_BUCKET", "GRAPHLOAD_MAX_ITERATIONS"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.Execute()
	return out.String(), errOut.String(), err
}
