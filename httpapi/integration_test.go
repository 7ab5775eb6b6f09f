package httpapi_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/agent"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/httpapi"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

// fakeEngine plays back one scripted event sequence per turn and records the
// requests it was given.
type fakeEngine struct {
	mu       sync.Mutex
	script   [][]stream.Event
	requests []*agent.Request
}

func (e *fakeEngine) Stream(ctx context.Context, req *agent.Request) <-chan stream.Event {
	e.mu.Lock()
	e.requests = append(e.requests, req)

	var events []stream.Event
	if len(e.script) > 0 {
		events = e.script[0]
		e.script = e.script[1:]
	}
	e.mu.Unlock()

	ch := make(chan stream.Event, len(events)+1)
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func (e *fakeEngine) Requests() []*agent.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*agent.Request(nil), e.requests...)
}

func token(id, content string) stream.Event {
	return stream.Event{Mode: stream.ModeMessages, Message: &stream.EngineMessage{Kind: stream.KindAIMessageChunk, ID: id, Content: content}}
}

func toolCalls(id string, calls ...stream.ToolCall) stream.Event {
	return stream.Event{Mode: stream.ModeMessages, Message: &stream.EngineMessage{Kind: stream.KindAIMessageChunk, ID: id, ToolCalls: calls}}
}

func toolResult(id, name string, result any) stream.Event {
	return stream.Event{Mode: stream.ModeMessages, Message: &stream.EngineMessage{Kind: stream.KindToolMessage, ID: id, Name: name, Result: result}}
}

// testServer builds the full router around the given engine, backed by the
// database AGENT_TEST_SQLDSN points at.
func testServer(t *testing.T, engine httpapi.Engine, approvals *agent.ApprovalStore) *httptest.Server {
	t.Helper()

	dsn := os.Getenv("AGENT_TEST_SQLDSN")
	if dsn == "" {
		t.Skip("AGENT_TEST_SQLDSN not set; skipping integration test")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	files, err := api.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	if approvals == nil {
		approvals = agent.NewApprovalStore(agent.ApprovalAuto, time.Minute)
	}

	router := httpapi.NewRouter(io.Discard, db, &httpapi.RouterConfig{
		Engine:         engine,
		Approvals:      approvals,
		Cache:          api.NewMessageCache(1 << 20),
		Files:          files,
		MaxUploadBytes: 1 << 20,
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		db.Close()
	})

	return server
}

// doJSON runs a request with a JSON body and decodes the response into out.
// Pass nil to skip either side.
func doJSON(t *testing.T, method, url string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}

	return resp.StatusCode
}

func createTestThread(t *testing.T, base, title string) *api.Thread {
	t.Helper()

	thread := new(api.Thread)
	if code := doJSON(t, "POST", base+"/threads/", map[string]string{"title": title}, thread); code != http.StatusOK {
		t.Fatalf("Failed to create thread: status %d", code)
	}

	t.Cleanup(func() {
		doJSON(t, "DELETE", base+"/threads/"+thread.ID, nil, nil)
	})

	return thread
}

func readTestMessages(t *testing.T, base, threadID string) []*api.Message {
	t.Helper()

	var resp struct {
		Messages []*api.Message `json:"messages"`
	}
	if code := doJSON(t, "GET", base+"/threads/"+threadID+"/messages/", nil, &resp); code != http.StatusOK {
		t.Fatalf("Failed to read messages: status %d", code)
	}
	return resp.Messages
}

func TestThreadLifecycle(t *testing.T) {
	server := testServer(t, &fakeEngine{}, nil)
	base := server.URL + "/api/1.0"

	thread := new(api.Thread)
	if code := doJSON(t, "POST", base+"/threads/", map[string]string{}, thread); code != http.StatusOK {
		t.Fatalf("Failed to create thread: status %d", code)
	}
	if thread.ID == "" {
		t.Fatal("Thread ID is empty")
	}
	if thread.Title != api.DefaultThreadTitle {
		t.Errorf("Title is %q, expected %q", thread.Title, api.DefaultThreadTitle)
	}

	title := fmt.Sprintf("Quarterly reforecast %d", time.Now().UnixNano())
	updated := new(api.Thread)
	if code := doJSON(t, "POST", base+"/threads/"+thread.ID, map[string]string{"title": title}, updated); code != http.StatusOK {
		t.Fatalf("Failed to update thread: status %d", code)
	}
	if updated.Title != title {
		t.Errorf("Updated title is %q, expected %q", updated.Title, title)
	}

	var query struct {
		Threads []*api.Thread `json:"threads"`
	}
	if code := doJSON(t, "GET", base+"/threads/?search=Quarterly+reforecast", nil, &query); code != http.StatusOK {
		t.Fatalf("Failed to query threads: status %d", code)
	}
	found := false
	for _, th := range query.Threads {
		if th.ID == thread.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("Query did not return thread %s", thread.ID)
	}

	var deleted struct {
		Deleted bool `json:"deleted"`
	}
	if code := doJSON(t, "DELETE", base+"/threads/"+thread.ID, nil, &deleted); code != http.StatusOK || !deleted.Deleted {
		t.Fatalf("Failed to delete thread: status %d, deleted %v", code, deleted.Deleted)
	}

	if code := doJSON(t, "GET", base+"/threads/"+thread.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("Read after delete returned status %d, expected 404", code)
	}
	if code := doJSON(t, "DELETE", base+"/threads/"+thread.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("Second delete returned status %d, expected 404", code)
	}
}

func TestChatStreamPersists(t *testing.T) {
	m1, m2, m3 := uuid.NewString(), uuid.NewString(), uuid.NewString()
	tr := uuid.NewString()

	engine := &fakeEngine{script: [][]stream.Event{
		{token(m1, "Hello "), token(m1, "there.")},
		{
			token(m2, "Let me check."),
			toolCalls(m2, stream.ToolCall{Name: "calculator", Args: map[string]any{"op": "add", "a": float64(2), "b": float64(3)}, ID: "call-" + tr, Kind: "tool_call"}),
			toolResult(tr, "calculator", `{"result":5}`),
			token(m3, "It is 5."),
		},
	}}

	server := testServer(t, engine, nil)
	base := server.URL + "/api/1.0"
	thread := createTestThread(t, base, "")

	//first turn: plain text answer
	resp, err := http.Post(base+"/threads/"+thread.ID+"/stream", "application/json", strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream; charset=utf-8" {
		t.Errorf("Content-Type is %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read stream: %v", err)
	}
	if !bytes.HasPrefix(body, []byte(": connected\n\n")) {
		t.Errorf("Stream does not open with the connected comment: %q", body[:min(len(body), 20)])
	}

	parser := &stream.FrameParser{}
	state := stream.State{}
	sawDone := false
	for _, frame := range parser.Feed(body) {
		switch frame.Kind {
		case stream.FrameData:
			state = state.Apply(frame.Chunk)
		case stream.FrameDone:
			sawDone = true
		case stream.FrameError:
			t.Fatalf("Stream reported an error frame")
		}
	}
	if !sawDone {
		t.Error("Stream did not end with a done event")
	}
	if len(state.Messages) != 1 || state.Messages[0].Content != "Hello there." {
		t.Fatalf("Accumulated messages are wrong: %+v", state.Messages)
	}

	messages := readTestMessages(t, base, thread.ID)
	if len(messages) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(messages))
	}
	if messages[0].Role != stream.RoleHuman || messages[0].Content != "hi" {
		t.Errorf("First message is %+v", messages[0])
	}
	if messages[1].Role != stream.RoleAI || messages[1].Content != "Hello there." {
		t.Errorf("Second message is %+v", messages[1])
	}

	//second turn: tool call round trip
	resp, err = http.Post(base+"/threads/"+thread.ID+"/stream", "application/json", strings.NewReader(`{"message":"what is 2+3?"}`))
	if err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	messages = readTestMessages(t, base, thread.ID)
	if len(messages) != 6 {
		t.Fatalf("Expected 6 persisted messages, got %d", len(messages))
	}
	ai := messages[3]
	if ai.Role != stream.RoleAI || ai.Content != "Let me check." {
		t.Errorf("Tool-calling message is %+v", ai)
	}
	if len(ai.ToolCalls) != 1 || ai.ToolCalls[0].Name != "calculator" {
		t.Errorf("Tool calls are %+v", ai.ToolCalls)
	}
	tool := messages[4]
	if tool.Role != stream.RoleTool || tool.Name != "calculator" || tool.Content != `{"result":5}` {
		t.Errorf("Tool message is %+v", tool)
	}
	if messages[5].Role != stream.RoleAI || messages[5].Content != "It is 5." {
		t.Errorf("Final message is %+v", messages[5])
	}

	//the second turn must see the first on the engine side
	requests := engine.Requests()
	if len(requests) != 2 {
		t.Fatalf("Engine saw %d requests, expected 2", len(requests))
	}
	history := requests[1].History
	if len(history) != 2 || history[0].Content != "hi" || history[1].Content != "Hello there." {
		t.Errorf("Second turn history is wrong: %+v", history)
	}
}

func TestChatStreamEngineFailure(t *testing.T) {
	m1 := uuid.NewString()
	engine := &fakeEngine{script: [][]stream.Event{
		{token(m1, "Working on "), {Err: fmt.Errorf("model unavailable")}},
	}}

	server := testServer(t, engine, nil)
	base := server.URL + "/api/1.0"
	thread := createTestThread(t, base, "")

	resp, err := http.Post(base+"/threads/"+thread.ID+"/stream", "application/json", strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read stream: %v", err)
	}
	if !bytes.Contains(body, []byte("event: error\n")) {
		t.Errorf("Stream did not end with an error event: %q", body)
	}
	if !bytes.Contains(body, []byte("model unavailable")) {
		t.Errorf("Error event does not carry the failure: %q", body)
	}

	//the partial answer survives; the transient error message does not
	messages := readTestMessages(t, base, thread.ID)
	if len(messages) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(messages))
	}
	if messages[1].Role != stream.RoleAI || messages[1].Content != "Working on " {
		t.Errorf("Partial message is %+v", messages[1])
	}
}

func TestChatStreamMissingThread(t *testing.T) {
	server := testServer(t, &fakeEngine{}, nil)
	base := server.URL + "/api/1.0"

	resp, err := http.Post(base+"/threads/"+uuid.NewString()+"/stream", "application/json", strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Status is %d, expected 404", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type is %q, expected JSON", ct)
	}
}

func TestSessionAgainstServer(t *testing.T) {
	m1 := uuid.NewString()
	engine := &fakeEngine{script: [][]stream.Event{
		{token(m1, "Hi "), token(m1, "yourself.")},
	}}

	server := testServer(t, engine, nil)
	base := server.URL + "/api/1.0"
	thread := createTestThread(t, base, "")

	session := stream.NewSession(nil, base, thread.ID)
	if err := session.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	messages := session.Messages()
	if len(messages) != 2 {
		t.Fatalf("Session holds %d messages, expected 2", len(messages))
	}
	if messages[0].Role != stream.RoleHuman || messages[0].Content != "hello" {
		t.Errorf("First message is %+v", messages[0])
	}
	if messages[1].Role != stream.RoleAI || messages[1].Content != "Hi yourself." {
		t.Errorf("Second message is %+v", messages[1])
	}
	if session.Status() != stream.StatusIdle {
		t.Errorf("Status is %q, expected idle", session.Status())
	}
}

func TestWebSocketChat(t *testing.T) {
	m1, m2 := uuid.NewString(), uuid.NewString()
	engine := &fakeEngine{script: [][]stream.Event{
		{token(m1, "First "), token(m1, "answer.")},
		{token(m2, "Second answer.")},
	}}

	server := testServer(t, engine, nil)
	base := server.URL + "/api/1.0"
	thread := createTestThread(t, base, "")

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/1.0/threads/" + thread.ID + "/ws"

	//one connection carries one turn
	turn := func(message string) string {
		t.Helper()

		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(10 * time.Second))

		if err := conn.WriteJSON(map[string]string{"message": message}); err != nil {
			t.Fatalf("Failed to send message: %v", err)
		}

		var text string
		for {
			chunk := new(stream.Chunk)
			if err := conn.ReadJSON(chunk); err != nil {
				t.Fatalf("Failed to read chunk: %v", err)
			}
			switch chunk.Type {
			case stream.ChunkTypeToken:
				text += chunk.Content
			case stream.ChunkTypeDone:
				return text
			case stream.ChunkTypeError:
				t.Fatalf("Received error chunk: %s", chunk.Error)
			}
		}
	}

	if text := turn("one"); text != "First answer." {
		t.Errorf("First turn produced %q", text)
	}
	if text := turn("two"); text != "Second answer." {
		t.Errorf("Second turn produced %q", text)
	}

	messages := readTestMessages(t, base, thread.ID)
	if len(messages) != 4 {
		t.Fatalf("Expected 4 persisted messages, got %d", len(messages))
	}
	if messages[3].Content != "Second answer." {
		t.Errorf("Last message is %+v", messages[3])
	}
}

func TestApprovalEndpoints(t *testing.T) {
	approvals := agent.NewApprovalStore(agent.ApprovalPrompt, time.Minute)
	server := testServer(t, &fakeEngine{}, approvals)
	base := server.URL + "/api/1.0"

	threadID := uuid.NewString()
	call := stream.ToolCall{Name: "calculator", Args: map[string]any{"op": "add"}, ID: uuid.NewString(), Kind: "tool_call"}

	verdicts := make(chan bool, 1)
	go func() {
		approved, _ := approvals.Await(context.Background(), threadID, call)
		verdicts <- approved
	}()

	//wait for the call to show up
	var pending struct {
		Approvals []*agent.PendingApproval `json:"approvals"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if code := doJSON(t, "GET", base+"/threads/"+threadID+"/approvals/", nil, &pending); code != http.StatusOK {
			t.Fatalf("Failed to list approvals: status %d", code)
		}
		if len(pending.Approvals) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(pending.Approvals) != 1 || pending.Approvals[0].Call.ID != call.ID {
		t.Fatalf("Pending approvals are %+v", pending.Approvals)
	}

	if code := doJSON(t, "POST", base+"/threads/"+threadID+"/approvals/"+call.ID, map[string]bool{"approve": true}, nil); code != http.StatusOK {
		t.Fatalf("Failed to approve call: status %d", code)
	}

	select {
	case approved := <-verdicts:
		if !approved {
			t.Error("Call was denied, expected approval")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Await did not return after approval")
	}

	//a consumed call is gone
	if code := doJSON(t, "POST", base+"/threads/"+threadID+"/approvals/"+call.ID, map[string]bool{"approve": true}, nil); code != http.StatusNotFound {
		t.Errorf("Second verdict returned status %d, expected 404", code)
	}
}

func TestMCPServerCRUD(t *testing.T) {
	server := testServer(t, &fakeEngine{}, nil)
	base := server.URL + "/api/1.0"

	name := fmt.Sprintf("search-%d", time.Now().UnixNano())

	created := new(api.MCPServer)
	code := doJSON(t, "POST", base+"/mcpservers/", map[string]any{
		"name":      name,
		"transport": "stdio",
		"command":   "mcp-search",
		"args":      []string{"--fast"},
		"env":       map[string]string{"SEARCH_TOKEN": "x"},
		"enabled":   true,
	}, created)
	if code != http.StatusOK {
		t.Fatalf("Failed to create server: status %d", code)
	}
	if created.ID == 0 || created.Name != name || created.Transport != "stdio" {
		t.Fatalf("Created server is %+v", created)
	}
	t.Cleanup(func() {
		doJSON(t, "DELETE", fmt.Sprintf("%s/mcpservers/%d", base, created.ID), nil, nil)
	})

	//duplicate names conflict and report the existing id
	var conflict struct {
		Code        int   `json:"code"`
		DuplicateID int64 `json:"duplicate_id"`
	}
	code = doJSON(t, "POST", base+"/mcpservers/", map[string]any{
		"name":      name,
		"transport": "sse",
		"url":       "http://localhost:9000/events",
	}, &conflict)
	if code != http.StatusConflict || conflict.DuplicateID != created.ID {
		t.Errorf("Duplicate create returned status %d, duplicate_id %d", code, conflict.DuplicateID)
	}

	//stdio transport requires a command
	code = doJSON(t, "POST", base+"/mcpservers/", map[string]any{
		"name":      name + "-bad",
		"transport": "stdio",
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("Invalid create returned status %d, expected 400", code)
	}

	created.URL = ""
	created.Enabled = false
	updated := new(api.MCPServer)
	if code := doJSON(t, "POST", fmt.Sprintf("%s/mcpservers/%d", base, created.ID), created, updated); code != http.StatusOK {
		t.Fatalf("Failed to update server: status %d", code)
	}
	if updated.Enabled {
		t.Error("Update did not disable the server")
	}

	var transports struct {
		Transports []string `json:"transports"`
	}
	if code := doJSON(t, "GET", base+"/mcpservers/transports/", nil, &transports); code != http.StatusOK {
		t.Fatalf("Failed to read transports: status %d", code)
	}
	if len(transports.Transports) != 3 {
		t.Errorf("Transports are %v", transports.Transports)
	}

	var servers struct {
		Servers []*api.MCPServer `json:"servers"`
	}
	if code := doJSON(t, "GET", base+"/mcpservers/", nil, &servers); code != http.StatusOK {
		t.Fatalf("Failed to query servers: status %d", code)
	}
	found := false
	for _, s := range servers.Servers {
		if s.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("Query did not return server %d", created.ID)
	}

	var deleted struct {
		Deleted bool `json:"deleted"`
	}
	if code := doJSON(t, "DELETE", fmt.Sprintf("%s/mcpservers/%d", base, created.ID), nil, &deleted); code != http.StatusOK || !deleted.Deleted {
		t.Fatalf("Failed to delete server: status %d", code)
	}
	if code := doJSON(t, "GET", fmt.Sprintf("%s/mcpservers/%d", base, created.ID), nil, nil); code != http.StatusNotFound {
		t.Errorf("Read after delete returned status %d, expected 404", code)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	server := testServer(t, &fakeEngine{}, nil)
	base := server.URL + "/api/1.0"

	content := []byte("meeting notes: revisit the quarterly numbers\n")

	post := func() *api.Upload {
		t.Helper()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "notes.txt")
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		fw.Write(content)
		mw.Close()

		resp, err := http.Post(base+"/uploads/", mw.FormDataContentType(), &buf)
		if err != nil {
			t.Fatalf("Failed to upload: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			t.Fatalf("Upload returned status %d: %s", resp.StatusCode, body)
		}

		upload := new(api.Upload)
		if err := json.NewDecoder(resp.Body).Decode(upload); err != nil {
			t.Fatalf("Failed to decode upload: %v", err)
		}
		return upload
	}

	upload := post()
	if upload.Name != "notes.txt" || upload.Size != int64(len(content)) || len(upload.Digest) != 64 {
		t.Fatalf("Upload is %+v", upload)
	}

	resp, err := http.Get(base + "/uploads/" + upload.ID)
	if err != nil {
		t.Fatalf("Failed to download: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read download: %v", err)
	}
	if !bytes.Equal(body, content) {
		t.Errorf("Downloaded %q, expected %q", body, content)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "notes.txt") {
		t.Errorf("Content-Disposition is %q", cd)
	}

	//identical content shares a digest under a new id
	again := post()
	if again.Digest != upload.Digest {
		t.Errorf("Digest changed on re-upload: %s vs %s", again.Digest, upload.Digest)
	}
	if again.ID == upload.ID {
		t.Error("Re-upload did not get its own id")
	}

	if code := doJSON(t, "GET", base+"/uploads/"+uuid.NewString(), nil, nil); code != http.StatusNotFound {
		t.Errorf("Missing upload returned status %d, expected 404", code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	m1 := uuid.NewString()
	engine := &fakeEngine{script: [][]stream.Event{
		{token(m1, "Counted.")},
	}}

	server := testServer(t, engine, nil)
	base := server.URL + "/api/1.0"
	thread := createTestThread(t, base, "")

	resp, err := http.Post(base+"/threads/"+thread.ID+"/stream", "application/json", strings.NewReader(`{"message":"count me"}`))
	if err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	stats := new(api.Stats)
	if code := doJSON(t, "GET", base+"/stats/", nil, stats); code != http.StatusOK {
		t.Fatalf("Failed to read stats: status %d", code)
	}

	if stats.ThreadCount < 1 {
		t.Errorf("ThreadCount is %d", stats.ThreadCount)
	}
	if stats.MessageCount < 2 {
		t.Errorf("MessageCount is %d", stats.MessageCount)
	}
	foundRole := false
	for _, role := range stats.Roles {
		if role.Role == stream.RoleHuman && role.Count >= 1 {
			foundRole = true
		}
	}
	if !foundRole {
		t.Errorf("Roles are missing human counts: %+v", stats.Roles)
	}
	if len(stats.Recent) == 0 {
		t.Error("Recent threads are empty")
	}
}
