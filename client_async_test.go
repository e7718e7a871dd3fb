package rcon_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	rcon "github.com/mark9064/factorio-rcon-go"
)

func TestAsyncClient(t *testing.T) {
	t.Run(
		"auth and command",
		func(t *testing.T) {
			cc, sc := net.Pipe()
			defer func() {
				_ = cc.Close()
				_ = sc.Close()
			}()

			c := rcon.NewAsyncClient(cc, rcon.ClientConfig{})

			go func() {
				if !serveAuth(t, sc) {
					return
				}
				cmd, probe, ok := readExchange(t, sc)
				if !ok {
					return
				}
				if !writeResponse(t, sc, cmd.ID, "0.0 seconds") {
					return
				}
				writeResponse(t, sc, probe.ID, "")
			}()

			ctx := context.Background()
			if err := c.Authenticate(ctx, "password"); err != nil {
				t.Fatalf("Async client authenticate failed: %s", err)
			}

			out, err := c.SendCommand(ctx, "/time")
			if err != nil {
				t.Fatalf("Async client send command failed: %s", err)
			}
			if out != "0.0 seconds" {
				t.Fatalf("Command response mismatch, got: %q", out)
			}
		},
	)

	t.Run(
		"batch preserves order",
		func(t *testing.T) {
			cc, sc := net.Pipe()
			defer func() {
				_ = cc.Close()
				_ = sc.Close()
			}()

			c := rcon.NewAsyncClient(cc, rcon.ClientConfig{})

			go func() {
				if !serveAuth(t, sc) {
					return
				}
				for i := 0; i < 2; i++ {
					cmd, probe, ok := readExchange(t, sc)
					if !ok {
						return
					}
					if !writeResponse(t, sc, cmd.ID, "reply to "+string(cmd.Body)) {
						return
					}
					if !writeResponse(t, sc, probe.ID, "") {
						return
					}
				}
			}()

			ctx := context.Background()
			if err := c.Authenticate(ctx, "password"); err != nil {
				t.Fatalf("Async client authenticate failed: %s", err)
			}

			out, err := c.SendCommands(ctx, []string{"/version", "/seed"})
			if err != nil {
				t.Fatalf("Async client send commands failed: %s", err)
			}
			if len(out) != 2 || out[0] != "reply to /version" || out[1] != "reply to /seed" {
				t.Fatalf("Send commands results mismatch: %#v", out)
			}
		},
	)

	t.Run(
		"cancellation fails the connection",
		func(t *testing.T) {
			cc, sc := net.Pipe()
			defer func() {
				_ = cc.Close()
				_ = sc.Close()
			}()

			c := rcon.NewAsyncClient(cc, rcon.ClientConfig{})

			go func() {
				if !serveAuth(t, sc) {
					return
				}
				// Swallow the exchange and never answer.
				_, _, _ = readExchange(t, sc)
			}()

			if err := c.Authenticate(context.Background(), "password"); err != nil {
				t.Fatalf("Async client authenticate failed: %s", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := c.SendCommand(ctx, "/help")
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("Expected context.DeadlineExceeded, got: %v", err)
			}

			// A cancelled exchange may have stopped on a partial frame, so the connection is gone.
			_, err = c.SendCommand(context.Background(), "/help")
			if !errors.Is(err, rcon.ErrNotConnected) {
				t.Fatalf("Expected ErrNotConnected after cancellation, got: %v", err)
			}
		},
	)

	t.Run(
		"close is idempotent",
		func(t *testing.T) {
			cc, sc := net.Pipe()
			defer func() {
				_ = cc.Close()
				_ = sc.Close()
			}()

			c := rcon.NewAsyncClient(cc, rcon.ClientConfig{})

			go serveAuth(t, sc)

			if err := c.Authenticate(context.Background(), "password"); err != nil {
				t.Fatalf("Async client authenticate failed: %s", err)
			}

			if err := c.Close(); err != nil {
				t.Fatalf("Async client close failed: %s", err)
			}
			if err := c.Close(); err != nil {
				t.Fatalf("Second async client close failed: %s", err)
			}

			_, err := c.SendCommand(context.Background(), "/help")
			if !errors.Is(err, rcon.ErrNotConnected) {
				t.Fatalf("Expected ErrNotConnected after close, got: %v", err)
			}
		},
	)
}
