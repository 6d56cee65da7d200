package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/graphload/pkg/graphload"
)

const (
	testSettle   = 2 * time.Second
	testInterval = 1 * time.Second
	testBackoff  = 3 * time.Second
)

// scriptedStatus is one canned reply of the fake status endpoint.
type scriptedStatus struct {
	httpCode int
	status   graphload.StatusCode
}

func inProgress() scriptedStatus { return scriptedStatus{http.StatusOK, graphload.StatusInProgress} }
func completed() scriptedStatus  { return scriptedStatus{http.StatusOK, graphload.StatusCompleted} }
func failed() scriptedStatus     { return scriptedStatus{http.StatusOK, graphload.StatusFailed} }
func inQueue() scriptedStatus    { return scriptedStatus{http.StatusOK, graphload.StatusInQueue} }
func httpError(code int) scriptedStatus {
	return scriptedStatus{httpCode: code}
}

// fakeLoader emulates the bulk loader endpoint.
type fakeLoader struct {
	t *testing.T

	mu           sync.Mutex
	submitCode   int
	submitBody   string
	statuses     []scriptedStatus
	submissions  []map[string]string
	statusChecks int
	statusPaths  []string
}

func newFakeLoader(t *testing.T, statuses ...scriptedStatus) (*fakeLoader, *httptest.Server) {
	t.Helper()
	f := &fakeLoader{
		t:          t,
		submitCode: http.StatusOK,
		submitBody: `{"status":"200 OK","payload":{"loadId":"load-123"}}`,
		statuses:   statuses,
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

// newStallingLoader answers nothing until the client gives up on the request.
func newStallingLoader(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeLoader) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/loader":
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.t.Errorf("decode submission: %v", err)
		}
		f.submissions = append(f.submissions, body)
		w.WriteHeader(f.submitCode)
		fmt.Fprint(w, f.submitBody)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/loader/"):
		f.statusChecks++
		f.statusPaths = append(f.statusPaths, r.URL.Path)
		if len(f.statuses) == 0 {
			f.t.Errorf("unexpected status check %d", f.statusChecks)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		idx := f.statusChecks - 1
		if idx >= len(f.statuses) {
			idx = len(f.statuses) - 1
		}
		reply := f.statuses[idx]
		if reply.httpCode != http.StatusOK {
			w.WriteHeader(reply.httpCode)
			fmt.Fprint(w, `{"code":"InternalFailureException","detailedMessage":"boom"}`)
			return
		}
		fmt.Fprintf(w, `{"status":"200 OK","payload":{"feedCount":[],"overallStatus":{"fullUri":"s3://bucket/nodes.csv","runNumber":1,"status":%q,"totalRecords":10}}}`, reply.status)

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeLoader) checks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusChecks
}

func (f *fakeLoader) recordedSubmissions() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.submissions...)
}

// recordingSleeper records requested delays without blocking.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// recordingLogger captures log records per level.
type recordingLogger struct {
	mu      sync.Mutex
	verbose []string
	info    []string
	errors  []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) errorRecords() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

func (l *recordingLogger) infoRecords() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.info...)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		Endpoint:  srv.URL + "/loader",
		RateLimit: 1000,
		RateBurst: 100,
	})
	require.NoError(t, err)
	return client
}

func testTiming(sleeper graphload.Sleeper) Timing {
	return Timing{
		SettleDelay:  testSettle,
		PollInterval: testInterval,
		BackoffDelay: testBackoff,
		Sleeper:      sleeper,
	}
}

func testSpec() graphload.LoadSpec {
	return graphload.LoadSpec{
		Source:      "s3://bucket/nodes.csv",
		IAMRoleARN:  "arn:aws:iam::123456789012:role/NeptuneAccessS3",
		Region:      "us-east-1",
		Parallelism: graphload.ParallelismMedium,
	}
}
