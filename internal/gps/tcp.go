package gps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"
)

var (
	tcpDialTimeout    = 2 * time.Second
	tcpReconnectDelay = 1 * time.Second
)

func (s *Service) startTCPLocked(ctx context.Context, addr string) {
	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.device = "tcp://" + addr
	s.baud = 0

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Printf("gps enabled addr=%s", addr)
		s.runTCP(childCtx, addr)
	}()
}

// runTCP reads sentences from addr, reconnecting after every dial failure
// or disconnect until ctx is done.
func (s *Service) runTCP(ctx context.Context, addr string) {
	dialer := &net.Dialer{Timeout: tcpDialTimeout}
	for {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.setError(fmt.Sprintf("gps dial failed addr=%s: %v", addr, err))
		} else {
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			err = s.ReadLines(ctx, conn)
			stop()
			_ = conn.Close()
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				s.setError(fmt.Sprintf("gps stream closed addr=%s", addr))
			} else {
				s.setError(fmt.Sprintf("gps read failed addr=%s: %v", addr, err))
			}
		}

		t := time.NewTimer(tcpReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}
