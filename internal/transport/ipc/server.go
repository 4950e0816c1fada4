// Package ipc 提供本地unix socket传输，便于不经过聊天平台直接试玩。
// 每个连接视为一个匿名用户：逐行读入歌词，逐行写回下一句，
// 沉默的回合不产生输出。
package ipc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lyric-relay/internal/transport"
)

const turnTimeout = 30 * time.Second

// Server unix socket传输
type Server struct {
	socketPath   string
	listener     net.Listener
	lockFile     *os.File
	lockFilePath string

	connsLock sync.Mutex
	conns     map[net.Conn]struct{}
	closed    bool
}

// NewServer 创建服务端，尚未监听
func NewServer(socketPath string) *Server {
	return &Server{
		socketPath:   socketPath,
		lockFilePath: socketPath + ".lock",
		conns:        make(map[net.Conn]struct{}),
	}
}

// Start 获取进程锁并开始监听
func (s *Server) Start(h transport.Handler) error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	log.Info().Str("socket_path", s.socketPath).Msg("IPC transport listening")

	go s.acceptConnections(h)
	return nil
}

// Close 停止监听并断开所有客户端
func (s *Server) Close() error {
	s.connsLock.Lock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.connsLock.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.releaseLock()
	return nil
}

func (s *Server) acceptConnections(h transport.Handler) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.connsLock.Lock()
			closed := s.closed
			s.connsLock.Unlock()
			if closed {
				return
			}
			log.Error().Err(err).Msg("Failed to accept IPC connection")
			continue
		}
		go s.handleConnection(conn, h)
	}
}

func (s *Server) handleConnection(conn net.Conn, h transport.Handler) {
	s.connsLock.Lock()
	s.conns[conn] = struct{}{}
	s.connsLock.Unlock()

	defer func() {
		s.connsLock.Lock()
		delete(s.conns, conn)
		s.connsLock.Unlock()
		conn.Close()
	}()

	// 每个连接一个匿名用户键
	userKey := "ipc:" + uuid.New().String()
	log.Info().Str("user", userKey).Msg("IPC client connected")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		reply, ok := h(ctx, userKey, scanner.Text())
		cancel()
		if !ok {
			continue
		}
		if _, err := conn.Write([]byte(reply + "\n")); err != nil {
			log.Error().Err(err).Str("user", userKey).Msg("Failed to write reply")
			return
		}
	}

	log.Info().Str("user", userKey).Msg("IPC client disconnected")
}

// acquireLock 用文件锁保证同一socket只有一个实例
func (s *Server) acquireLock() error {
	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("another lyric-relay instance is already running")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	fmt.Fprintf(file, "%d\n", os.Getpid())
	s.lockFile = file
	return nil
}

func (s *Server) releaseLock() {
	if s.lockFile != nil {
		syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
		s.lockFile.Close()
		os.Remove(s.lockFilePath)
		s.lockFile = nil
	}
}
