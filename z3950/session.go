// Package z3950 provides a process wide session to a Z39.50 target.
//
// A Session is created once at startup and shared by all requests. It
// connects lazily on first use, keeps at most one live connection and
// reconnects after a connection broke.
package z3950

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrClosed is returned after the session has been closed.
var ErrClosed = errors.New("z3950: session closed")

// Conn is a live connection to a target.
type Conn interface {
	// Search runs a query in prefix query format (PQF) and returns all
	// records as raw strings.
	Search(ctx context.Context, query string) ([]string, error)
	Close() error
}

// DialFunc establishes a connection.
type DialFunc func(ctx context.Context) (Conn, error)

// Session owns a single lazily established connection.
type Session struct {
	dial DialFunc

	mu     sync.Mutex
	conn   Conn
	closed bool
	dials  int

	// use serializes searches on the connection.
	use sync.Mutex
}

// NewSession returns a session that will connect with dial on first use.
func NewSession(dial DialFunc) *Session {
	return &Session{dial: dial}
}

// Acquire returns the live connection, dialing if there is none. Concurrent
// callers share one connection.
func (s *Session) Acquire(ctx context.Context) (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("z3950 dial: %w", err)
	}
	s.dials++
	s.conn = conn
	return conn, nil
}

// Invalidate drops conn, if it is still the current connection, so the next
// Acquire dials again.
func (s *Session) Invalidate(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn || conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		log.Warnf("z3950: close broken connection: %v", err)
	}
	s.conn = nil
}

// Search runs a query on the shared connection. On failure the connection is
// considered broken and dropped.
func (s *Session) Search(ctx context.Context, query string) ([]string, error) {
	conn, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	s.use.Lock()
	records, err := conn.Search(ctx, query)
	s.use.Unlock()
	if err != nil {
		s.Invalidate(conn)
		return nil, err
	}
	return records, nil
}

// Dials returns the number of connections established so far.
func (s *Session) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// Close closes the connection. The session cannot be used afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
