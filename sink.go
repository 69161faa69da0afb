package sender

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ConnectError reports that the graphite endpoint could not be reached.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// WriteError reports that sending a payload on an established connection failed.
type WriteError struct {
	Addr string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write to %s: %v", e.Addr, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Stats are running counters of a Sink's activity.
type Stats struct {
	RecordsSent     uint64
	ConnectFailures uint64
	WriteFailures   uint64
	FormatFailures  uint64
}

// Sink writes records to a graphite endpoint over a single TCP connection that is
// established on first use and re-established on the call after a failure.
//
// Failures are logged and passed to the configured ErrorListener, never returned,
// so an unreachable endpoint cannot disrupt whatever schedule is calling PutMetrics.
type Sink struct {
	config Config
	addr   string
	dial   dialFunc

	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	closed bool

	recordsSent     atomic.Uint64
	connectFailures atomic.Uint64
	writeFailures   atomic.Uint64
	formatFailures  atomic.Uint64
}

func NewSink(config Config) (*Sink, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	dialer := &net.Dialer{Timeout: config.DialTimeout}
	return &Sink{
		config: config,
		addr:   net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		dial:   dialer.DialContext,
	}, nil
}

// PutMetrics renders the record and sends it, connecting first when needed.
// After Close it does nothing.
func (s *Sink) PutMetrics(ctx context.Context, record Record) {
	if err := s.put(ctx, record); err != nil && s.config.ErrorListener != nil {
		s.config.ErrorListener(err)
	}
}

func (s *Sink) put(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.config.Logger.Debug("dropping record, sink is closed", "addr", s.addr, "context", record.ContextName)
		return nil
	}

	if s.out == nil {
		if err := s.connect(ctx); err != nil {
			s.connectFailures.Add(1)
			s.logFailure("graphite endpoint unreachable", err)
			return err
		}
	}

	// a fresh payload per call, the transport may hold on to it
	payload, err := AppendRecord(nil, s.config.Prefix, record)
	if err != nil {
		s.formatFailures.Add(1)
		s.logFailure("failed to format record", err)
		return err
	}

	if err := s.write(payload); err != nil {
		s.writeFailures.Add(1)
		s.disconnect()
		err = &WriteError{Addr: s.addr, Err: err}
		s.logFailure("failed to send metrics", err)
		return err
	}
	s.recordsSent.Add(1)
	return nil
}

// SetWriter replaces the transport with w, closing any current connection. Subsequent
// calls to PutMetrics write to w until a write fails, after which the sink goes back
// to dialing the configured endpoint. If w is an io.Closer it is closed on failure or
// by Close. After Close the writer is ignored.
func (s *Sink) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.config.Logger.Debug("ignoring writer, sink is closed", "addr", s.addr)
		return
	}
	s.disconnect()
	s.out = w
	if closer, ok := w.(io.Closer); ok {
		s.closer = closer
	}
}

// Connected reports whether the sink currently holds a transport.
func (s *Sink) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out != nil
}

// Close closes the current connection, if any, and stops the sink for good. It is safe
// to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.out == nil {
		return nil
	}
	var err error
	if flusher, ok := s.out.(interface{ Flush() error }); ok {
		err = flusher.Flush()
	}
	if s.closer != nil {
		if closeErr := s.closer.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close: %w", closeErr)
		}
	}
	s.out = nil
	s.closer = nil
	return err
}

func (s *Sink) Stats() Stats {
	return Stats{
		RecordsSent:     s.recordsSent.Load(),
		ConnectFailures: s.connectFailures.Load(),
		WriteFailures:   s.writeFailures.Load(),
		FormatFailures:  s.formatFailures.Load(),
	}
}

func (s *Sink) connect(ctx context.Context) error {
	conn, err := s.dial(ctx, "tcp", s.addr)
	if err != nil {
		return &ConnectError{Addr: s.addr, Err: err}
	}
	s.out = conn
	s.closer = conn
	s.config.Logger.Info("connected to graphite", "addr", s.addr)
	return nil
}

func (s *Sink) write(payload []byte) error {
	if conn, ok := s.out.(net.Conn); ok {
		if err := conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
			return err
		}
	}
	if _, err := s.out.Write(payload); err != nil {
		return err
	}
	if flusher, ok := s.out.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

func (s *Sink) disconnect() {
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.config.Logger.Debug("error closing graphite connection", "addr", s.addr, "error", err)
		}
	}
	s.out = nil
	s.closer = nil
}

func (s *Sink) logFailure(msg string, err error) {
	s.config.Logger.Warn(msg, slog.String("addr", s.addr), slog.Any("error", err))
}
