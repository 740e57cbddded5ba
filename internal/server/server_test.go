package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/app"
	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/workflow"
	"github.com/finagent-ir/finagent/internal/workflow/nodes"
)

// testGraph asks for a symbol when the opening message does not contain one,
// then produces consensuses and a final report.
func testGraph(t *testing.T) *workflow.CompiledGraph {
	t.Helper()

	consensus := func(key string) workflow.NodeFunc {
		return func(_ context.Context, _ workflow.State) (workflow.Delta, error) {
			return workflow.Delta{key: map[string]any{
				"executive_summary": "ok",
				"confidence_score":  0.5,
			}}, nil
		}
	}

	g := workflow.NewStateGraph()
	g.AddNode("intro", func(ctx context.Context, state workflow.State) (workflow.Delta, error) {
		if state.GetString(nodes.KeySymbol) != "" {
			return nil, nil
		}
		msg := state.GetString(nodes.KeyUserMessage)
		if strings.Contains(msg, "فولاد") {
			return workflow.Delta{nodes.KeySymbol: "فولاد"}, nil
		}
		answer, err := workflow.Interrupt(ctx, "کدام نماد؟")
		if err != nil {
			return nil, err
		}
		return workflow.Delta{nodes.KeyUserMessage: answer}, nil
	})
	g.AddNode("technical", consensus(nodes.KeyTechnicalConsensus))
	g.AddNode("fundamental", consensus(nodes.KeyFundamentalConsensus))
	g.AddNode("social", consensus(nodes.KeySocialConsensus))
	g.AddNode("report", func(_ context.Context, _ workflow.State) (workflow.Delta, error) {
		return workflow.Delta{nodes.KeyFinalReport: "## گزارش نهایی\nپایان."}, nil
	})

	g.SetEntryPoint("intro")
	g.AddConditionalEdges("intro", func(state workflow.State) []string {
		if state.GetString(nodes.KeySymbol) == "" {
			return []string{"intro"}
		}
		return []string{"technical"}
	})
	g.AddEdge("technical", "fundamental")
	g.AddEdge("fundamental", "social")
	g.AddEdge("social", "report")
	g.AddEdge("report", workflow.End)

	compiled, err := g.Compile()
	require.NoError(t, err)
	return compiled
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	application := &app.App{
		Config: common.DefaultConfig(),
		Logger: common.GetLogger(),
		Graph:  testGraph(t),
	}
	s := &Server{app: application, hub: NewHub(application)}
	ts := httptest.NewServer(s.withConditionalMiddleware(s.setupRoutes()))
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func waitForStatus(t *testing.T, url, want string) ProgressUpdate {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		require.NoError(t, err)
		var update ProgressUpdate
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&update))
		resp.Body.Close()
		if update.Status == want {
			return update
		}
		if update.Status == StatusFailed {
			t.Fatalf("run failed: %s", update.Error)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run never reached status %s", want)
	return ProgressUpdate{}
}

func TestAnalysisLifecycleWithResume(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyses", startRequest{Message: "سلام"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var started map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	resp.Body.Close()
	threadID := started["thread_id"]
	require.NotEmpty(t, threadID)

	statusURL := ts.URL + "/api/analyses/" + threadID
	update := waitForStatus(t, statusURL, StatusWaitingInput)
	assert.Equal(t, "کدام نماد؟", update.Question)

	resp = postJSON(t, statusURL+"/resume", resumeRequest{Message: "فولاد"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	waitForStatus(t, statusURL, StatusCompleted)

	resp, err := http.Get(statusURL + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "# فولاد")
	assert.Contains(t, body.String(), "گزارش نهایی")
}

func TestDirectSymbolSkipsInterrupt(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyses", startRequest{Symbol: "فولاد"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var started map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	resp.Body.Close()

	waitForStatus(t, ts.URL+"/api/analyses/"+started["thread_id"], StatusCompleted)
}

func TestResumeUnknownThread(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyses/nope/resume", resumeRequest{Message: "فولاد"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReportNotReady(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyses", startRequest{Message: "سلام"})
	var started map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	resp.Body.Close()
	threadID := started["thread_id"]

	waitForStatus(t, ts.URL+"/api/analyses/"+threadID, StatusWaitingInput)

	resp, err := http.Get(ts.URL + "/api/analyses/" + threadID + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHTMLReport(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyses", startRequest{Symbol: "فولاد"})
	var started map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	resp.Body.Close()
	statusURL := ts.URL + "/api/analyses/" + started["thread_id"]
	waitForStatus(t, statusURL, StatusCompleted)

	resp, err := http.Get(statusURL + "/report?format=html")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "<h1")
}

func TestProgressWebSocket(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyses", startRequest{Symbol: "فولاد"})
	var started map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?thread=" + started["thread_id"]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	sawTerminal := false
	for !sawTerminal {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var update ProgressUpdate
		if err := conn.ReadJSON(&update); err != nil {
			break
		}
		assert.LessOrEqual(t, update.Percent, 100)
		if update.Status == StatusCompleted {
			sawTerminal = true
		}
		require.NotEqual(t, StatusFailed, update.Status)
	}
	assert.True(t, sawTerminal, "expected a completed frame on the socket")
}

func TestVersionAndHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/api/version")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
