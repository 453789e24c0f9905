package sim

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/keymatrix/pkg/framework"
)

// DefaultInterval is the default period between device reads.
const DefaultInterval = 20 * time.Millisecond

// Server exposes a Device over TCP and WebSocket connections. Every
// connection shares the same Device.
type Server struct {
	Device   *Device
	Interval time.Duration
}

// ServeConn pumps device output to conn every Interval and feeds
// everything received from conn to the device, until ctx is done or
// conn fails.
func (s *Server) ServeConn(ctx context.Context, conn io.ReadWriteCloser) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		buf := make([]byte, 1024)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				s.Device.Write(buf[:n])
			}
			if err != nil {
				if err != io.EOF {
					glog.V(2).Infof("sim: conn read: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	buf := make([]byte, 1024)
	err := fx.RunWithContextCloser(ctx, conn, func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			n, _ := s.Device.Read(buf)
			if n == 0 {
				continue
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				return err
			}
		}
	})
	wg.Wait()
	return err
}

// Serve accepts connections from l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	glog.Infof("sim: serving tcp on %s", l.Addr())
	var wg sync.WaitGroup
	defer wg.Wait()
	return fx.RunWithContextCloser(ctx, l, func() error {
		for {
			conn, err := l.Accept()
			if err != nil {
				return err
			}
			glog.Infof("sim: tcp client %s", conn.RemoteAddr())
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.ServeConn(ctx, conn)
			}()
		}
	})
}

// ListenTCP listens on addr and serves until ctx is done.
func (s *Server) ListenTCP(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// WebSocketHandler serves the device over binary WebSocket messages.
func (s *Server) WebSocketHandler() websocket.Handler {
	return func(ws *websocket.Conn) {
		ws.PayloadType = websocket.BinaryFrame
		glog.Infof("sim: websocket client %s", ws.Request().RemoteAddr)
		s.ServeConn(ws.Request().Context(), ws)
	}
}

// ListenWebSocket serves WebSocket connections at path on addr until ctx
// is done.
func (s *Server) ListenWebSocket(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s.WebSocketHandler())
	srv := &http.Server{Addr: addr, Handler: mux}
	glog.Infof("sim: serving websocket on %s%s", addr, path)
	err := fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
