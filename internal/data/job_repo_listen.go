package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/target/jobmatch/internal/domain/job"
	"github.com/target/jobmatch/internal/domain/model"
)

const unlistenTimeout = 5 * time.Second

// Listen registers LISTEN for postings of jobType on a dedicated connection and
// returns once the registration is active. The connection stays checked out of
// the pool until the registration is closed, so notifications sent between two
// Wait calls are buffered rather than lost.
func (r *JobRepo) Listen(ctx context.Context, jobType model.JobType) (job.Listening, error) {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get conn from pool: %w", err)
	}

	channel := notifyChannel(jobType)
	quoted := pgx.Identifier{channel}.Sanitize()
	if _, execErr := conn.ExecContext(ctx, "LISTEN "+quoted); execErr != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, execErr)
	}

	return &jobListening{conn: conn, channel: channel, quoted: quoted}, nil
}

// jobListening is a LISTEN registration bound to one pooled connection.
type jobListening struct {
	conn    *sql.Conn
	channel string
	quoted  string
}

// Wait blocks until a notification on the channel arrives or ctx ends. A wait
// that times out leaves the registration intact.
func (l *jobListening) Wait(ctx context.Context) error {
	return l.conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, err := sc.Conn().WaitForNotification(ctx)
		return err
	})
}

// Close unregisters the channel and returns the connection to the pool.
func (l *jobListening) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
	defer cancel()

	var unlistenErr error
	if _, err := l.conn.ExecContext(ctx, "UNLISTEN "+l.quoted); err != nil {
		unlistenErr = fmt.Errorf("unlisten %s: %w", l.channel, err)
	}
	return errors.Join(unlistenErr, l.conn.Close())
}

var _ job.Listener = (*JobRepo)(nil)
