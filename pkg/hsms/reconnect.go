package hsms

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// Dialer opens a new underlying TCP connection for an active-open retry.
type Dialer func(ctx context.Context) (net.Conn, error)

// RunActive repeatedly active-opens sessions via dial, running each one to
// completion and invoking onSession with the established Session. When a
// session's Run returns and cfg.AutoReconnect is set, it waits T5 and
// dials again, returning when ctx is done. Without cfg.AutoReconnect it
// returns after the first attempt.
func RunActive(ctx context.Context, dial Dialer, cfg Config, log *logrus.Entry, onSession func(*Session)) error {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	for {
		conn, err := dial(ctx)
		if err != nil {
			log.WithError(err).Warn("hsms: dial failed")
		} else {
			sess, err := ActiveOpen(ctx, conn, cfg, log)
			if err != nil {
				log.WithError(err).Warn("hsms: active open failed")
			} else {
				onSession(sess)
				_ = sess.Run(ctx)
			}
		}

		if !cfg.AutoReconnect || ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-time.After(cfg.T5):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
