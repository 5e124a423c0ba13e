package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"webchat/internal/common/config"
	"webchat/internal/common/logger"
	"webchat/internal/storage/memory"
)

func testConfig() config.Config {
	return config.Config{
		Stage:          config.StageEarly,
		HTTPPort:       "0",
		JWTKey:         "test-signing-key-for-app-tests",
		JWTExpiry:      "1h",
		RequestTimeout: 5 * time.Second,
	}
}

func startApp(t *testing.T) *httptest.Server {
	t.Helper()
	log, _ := logger.New("", "test", "info")

	application, err := New(testConfig(), memory.New(), log)
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	t.Cleanup(func() {
		_ = application.Shutdown(nil)
	})

	server := httptest.NewServer(application.Handler)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, url, token string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]json.RawMessage {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return body
}

func stringField(t *testing.T, body map[string]json.RawMessage, key string) string {
	t.Helper()
	var s string
	if raw, ok := body[key]; ok {
		if err := json.Unmarshal(raw, &s); err != nil {
			t.Fatalf("field %s is not a string: %v", key, err)
		}
	}
	return s
}

func registerAndLogin(t *testing.T, server *httptest.Server, username, password, displayName string) string {
	t.Helper()

	resp, body := postJSON(t, server.URL+"/auth/users", "", map[string]any{
		"credentials": map[string]string{"username": username, "password": password},
		"extra":       displayName,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", resp.StatusCode, stringField(t, body, "message"))
	}

	resp, body = postJSON(t, server.URL+"/auth/tokens/"+username, "", map[string]string{
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", resp.StatusCode, stringField(t, body, "message"))
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body["payload"], &payload); err != nil {
		t.Fatalf("invalid login payload: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("login: expected a token in the payload")
	}
	return payload.Token
}

func TestApp_RegisterLoginPostList(t *testing.T) {
	server := startApp(t)

	token := registerAndLogin(t, server, "alice", "abc1$", "Alice")

	resp, body := postJSON(t, server.URL+"/chat/messages", token, map[string]string{
		"author": "alice",
		"text":   "hello room",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post: expected 201, got %d (%s)", resp.StatusCode, stringField(t, body, "message"))
	}
	if name := stringField(t, body, "name"); name != "ChatMessageCreated" {
		t.Errorf("expected ChatMessageCreated, got %s", name)
	}

	resp, body = getJSON(t, server.URL+"/chat/messages", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "ChatMessagesFound" {
		t.Errorf("expected ChatMessagesFound, got %s", name)
	}

	var messages []struct {
		Author      string `json:"author"`
		Text        string `json:"text"`
		DisplayName string `json:"displayName"`
		Timestamp   string `json:"timestamp"`
	}
	if err := json.Unmarshal(body["payload"], &messages); err != nil {
		t.Fatalf("invalid messages payload: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Author != "alice" || messages[0].Text != "hello room" {
		t.Errorf("unexpected message: %+v", messages[0])
	}
	if messages[0].DisplayName != "Alice" {
		t.Errorf("expected display name snapshot, got %q", messages[0].DisplayName)
	}
	if messages[0].Timestamp == "" {
		t.Error("expected server-side timestamp")
	}
}

func TestApp_ChatRequiresToken(t *testing.T) {
	server := startApp(t)

	resp, body := getJSON(t, server.URL+"/chat/messages", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "MissingToken" {
		t.Errorf("expected MissingToken, got %s", name)
	}
}

func TestApp_PostOnBehalfOfAnotherUserRejected(t *testing.T) {
	server := startApp(t)

	registerAndLogin(t, server, "alice", "abc1$", "Alice")
	bobToken := registerAndLogin(t, server, "bob", "abc1$", "Bob")

	resp, body := postJSON(t, server.URL+"/chat/messages", bobToken, map[string]string{
		"author": "alice",
		"text":   "impersonation",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "UnauthorizedRequest" {
		t.Errorf("expected UnauthorizedRequest, got %s", name)
	}
}

func TestApp_DuplicateRegistrationRejected(t *testing.T) {
	server := startApp(t)

	registerAndLogin(t, server, "alice", "abc1$", "Alice")

	resp, body := postJSON(t, server.URL+"/auth/users", "", map[string]any{
		"credentials": map[string]string{"username": "alice", "password": "abc1$"},
		"extra":       "Alice Again",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "UserExists" {
		t.Errorf("expected UserExists, got %s", name)
	}
}

func TestApp_DeleteUserRemovesMessages(t *testing.T) {
	server := startApp(t)

	aliceToken := registerAndLogin(t, server, "alice", "abc1$", "Alice")
	bobToken := registerAndLogin(t, server, "bob", "abc1$", "Bob")

	for _, text := range []string{"one", "two"} {
		resp, _ := postJSON(t, server.URL+"/chat/messages", aliceToken, map[string]string{
			"author": "alice",
			"text":   text,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("post: expected 201, got %d", resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/chat/users/alice", nil)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "UserDeleted" {
		t.Errorf("expected UserDeleted, got %s", name)
	}
	if msg := stringField(t, body, "message"); msg != "User alice and 2 messages deleted successfully" {
		t.Errorf("unexpected delete message: %q", msg)
	}

	resp, body = getJSON(t, server.URL+"/chat/messages", bobToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "NoChatMessagesFound" {
		t.Errorf("expected NoChatMessagesFound after delete, got %s", name)
	}
}

func TestApp_PostedMessageReachesLiveSession(t *testing.T) {
	server := startApp(t)

	token := registerAndLogin(t, server, "bob@x.com", "Ab1!2345", "Bob")

	wsEndpoint := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := gorillaWS.DefaultDialer.Dial(wsEndpoint, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// give the hub goroutine time to process the registration
	time.Sleep(200 * time.Millisecond)

	resp, _ := postJSON(t, server.URL+"/chat/messages", token, map[string]string{
		"author": "bob@x.com",
		"text":   "hi",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post: expected 201, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			Author string `json:"author"`
			Text   string `json:"text"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("invalid frame: %v", err)
	}
	if event.Event != "newChatMessage" {
		t.Errorf("expected newChatMessage event, got %s", event.Event)
	}
	if event.Data.Text != "hi" || event.Data.Author != "bob@x.com" {
		t.Errorf("unexpected event data: %+v", event.Data)
	}
}

func TestApp_HistoryNotes(t *testing.T) {
	server := startApp(t)

	resp, body := getJSON(t, server.URL+"/history/notes", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "NoNotesFound" {
		t.Errorf("expected NoNotesFound, got %s", name)
	}

	resp, body = postJSON(t, server.URL+"/history/notes", "", map[string]string{
		"description": "first release",
		"date":        "2024-06-15",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "NoteCreated" {
		t.Errorf("expected NoteCreated, got %s", name)
	}

	resp, body = postJSON(t, server.URL+"/history/notes", "", map[string]string{
		"date": "2024-06-15",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if name := stringField(t, body, "name"); name != "MissingNoteInfo" {
		t.Errorf("expected MissingNoteInfo, got %s", name)
	}
}

func TestApp_Health(t *testing.T) {
	server := startApp(t)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
