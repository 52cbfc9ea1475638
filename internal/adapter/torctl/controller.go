package torctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
)

const replyOK = 250

var (
	ErrAuthFailed   = errors.New("control port authentication failed")
	ErrSignalFailed = errors.New("NEWNYM signal rejected")
)

// Options configures a Controller.
type Options struct {
	Addr      string
	Password  string
	Timeout   time.Duration // bounds connect plus the whole command exchange
	Stabilize time.Duration // wait after a successful NEWNYM for the new circuit
}

// Controller requests new exit circuits from the anonymity daemon's control port.
type Controller struct {
	opts   Options
	dialer net.Dialer
	logger *zap.Logger
}

func NewController(opts Options, logger *zap.Logger) *Controller {
	return &Controller{opts: opts, logger: logger.Named("torctl")}
}

// RotateIdentity authenticates, sends SIGNAL NEWNYM and waits for the circuit to settle.
// Any failure is returned as an error; the caller decides whether it is fatal.
func (c *Controller) RotateIdentity(ctx context.Context) error {
	if err := c.newIdentity(ctx); err != nil {
		c.logger.Warn("identity rotation failed", zap.String("addr", c.opts.Addr), zap.Error(err))
		return err
	}
	c.logger.Info("identity rotated, waiting for circuit", zap.Duration("stabilize", c.opts.Stabilize))

	if c.opts.Stabilize <= 0 {
		return nil
	}
	timer := time.NewTimer(c.opts.Stabilize)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) newIdentity(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to connect to control port: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tp := textproto.NewConn(conn)
	defer tp.Close()

	if err := command(tp, authenticateLine(c.opts.Password)); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if err := command(tp, "SIGNAL NEWNYM"); err != nil {
		return fmt.Errorf("%w: %v", ErrSignalFailed, err)
	}
	_ = tp.PrintfLine("QUIT")
	return nil
}

// command sends one line and consumes the reply, including 250- continuation lines.
func command(tp *textproto.Conn, line string) error {
	if err := tp.PrintfLine("%s", line); err != nil {
		return err
	}
	_, _, err := tp.ReadResponse(replyOK)
	return err
}

func authenticateLine(password string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return fmt.Sprintf(`AUTHENTICATE "%s"`, r.Replace(password))
}
