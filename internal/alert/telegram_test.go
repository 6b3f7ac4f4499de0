package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTelegramSendSuccess(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("解析请求体失败: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("test-token", "12345", srv.URL, 5*time.Second, zerolog.Nop())

	if err := n.Send(context.Background(), "<b>hello</b>"); err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if gotPath != "/bottest-token/sendMessage" {
		t.Fatalf("请求路径不正确: %s", gotPath)
	}
	if gotPayload["chat_id"] != "12345" {
		t.Fatalf("chat_id 不正确: %v", gotPayload["chat_id"])
	}
	if gotPayload["parse_mode"] != "HTML" {
		t.Fatalf("parse_mode 不正确: %v", gotPayload["parse_mode"])
	}
}

func TestTelegramSendNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"description":"Bad Request"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("test-token", "12345", srv.URL, 5*time.Second, zerolog.Nop())

	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Fatal("ok=false 时应返回错误")
	}
}

func TestTelegramSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("test-token", "12345", srv.URL, 5*time.Second, zerolog.Nop())

	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Fatal("非 2xx 响应应返回错误")
	}
}
