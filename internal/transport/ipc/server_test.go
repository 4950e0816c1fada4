package ipc

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// 测试请求应答回路：有回复的回合逐行写回，沉默回合什么都不写
func TestServerRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "relay.sock")

	srv := NewServer(socketPath)
	handler := func(ctx context.Context, userKey, text string) (string, bool) {
		if text == "silent" {
			return "", false
		}
		return "next:" + text, true
	}
	if err := srv.Start(handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Close()

	conn, err := net.DialTimeout("unix", socketPath, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	if _, err := conn.Write([]byte("silent\n晴天\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.TrimSpace(line); got != "next:晴天" {
		t.Errorf("reply = %q, want %q", got, "next:晴天")
	}
}

// 同一socket不允许第二个实例
func TestServerSingleInstance(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "relay.sock")

	handler := func(ctx context.Context, userKey, text string) (string, bool) { return "", false }

	first := NewServer(socketPath)
	if err := first.Start(handler); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	defer first.Close()

	second := NewServer(socketPath)
	if err := second.Start(handler); err == nil {
		second.Close()
		t.Fatal("second Start() should fail while first instance holds the lock")
	}
}
