// SPDX-License-Identifier: MPL-2.0

// Package sshagent serves an in-process SSH agent holding a single private
// key, so git and bitbake fetchers can authenticate without a system agent.
package sshagent

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// GitSSHCommand disables host key checking for git over ssh.
const GitSSHCommand = "ssh -o StrictHostKeyChecking=no"

// Agent is a running agent. Stop must be called to release the socket.
type Agent struct {
	dir      string
	socket   string
	listener net.Listener
	keyring  agent.Agent

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	stopped bool

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
}

// Start parses privateKey (PEM or OpenSSH format), loads it into a fresh
// keyring and serves the keyring on a unix socket in a new temporary directory.
func Start(privateKey string) (*Agent, error) {
	if !strings.HasSuffix(privateKey, "\n") {
		privateKey += "\n"
	}
	key, err := ssh.ParseRawPrivateKey([]byte(privateKey))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	keyring := agent.NewKeyring()
	if err := keyring.Add(agent.AddedKey{PrivateKey: key, Comment: "kas"}); err != nil {
		return nil, fmt.Errorf("add key to agent: %w", err)
	}

	dir, err := os.MkdirTemp("", "kas-ssh-")
	if err != nil {
		return nil, fmt.Errorf("create agent directory: %w", err)
	}
	socket := filepath.Join(dir, "agent.sock")
	listener, err := net.Listen("unix", socket)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("listen on %s: %w", socket, err)
	}

	a := &Agent{dir: dir, socket: socket, listener: listener, keyring: keyring, conns: map[net.Conn]struct{}{}}
	a.wg.Add(1)
	go a.serve()
	slog.Debug("ssh agent started", "socket", socket)
	return a, nil
}

// SocketPath returns the agent's unix socket.
func (a *Agent) SocketPath() string { return a.socket }

// Environ returns the variables that point ssh clients at the agent.
func (a *Agent) Environ() map[string]string {
	return map[string]string{
		"SSH_AUTH_SOCK":   a.socket,
		"SSH_AGENT_PID":   strconv.Itoa(os.Getpid()),
		"GIT_SSH_COMMAND": GitSSHCommand,
	}
}

// Stop closes the socket and every open connection, then removes the
// temporary directory. Further calls return the first result.
func (a *Agent) Stop() error {
	a.stopOnce.Do(func() {
		err := a.listener.Close()
		a.mu.Lock()
		a.stopped = true
		for conn := range a.conns {
			_ = conn.Close()
		}
		a.mu.Unlock()
		a.wg.Wait()
		a.stopErr = errors.Join(err, a.keyring.RemoveAll(), os.RemoveAll(a.dir))
		slog.Debug("ssh agent stopped", "socket", a.socket)
	})
	return a.stopErr
}

func (a *Agent) serve() {
	defer a.wg.Done()
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				slog.Warn("ssh agent stopped accepting connections", "error", err)
			}
			return
		}
		a.mu.Lock()
		if a.stopped {
			a.mu.Unlock()
			_ = conn.Close()
			return
		}
		a.conns[conn] = struct{}{}
		a.mu.Unlock()

		a.wg.Add(1)
		go a.handle(conn)
	}
}

func (a *Agent) handle(conn net.Conn) {
	defer a.wg.Done()
	defer func() {
		a.mu.Lock()
		delete(a.conns, conn)
		a.mu.Unlock()
		_ = conn.Close()
	}()
	if err := agent.ServeAgent(a.keyring, conn); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		slog.Debug("ssh agent connection ended", "error", err)
	}
}
