package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dshills/schemaprobe/internal/command"
)

// sqlSession is a Session over one database/sql connection
type sqlSession struct {
	client *Client
	conn   *sql.Conn
	db     *sql.DB // Set for dedicated sessions; closed with the session
	closed atomic.Bool
}

func (s *sqlSession) Query(ctx context.Context, query string) (ResultSet, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	stmt, err := command.Parse(query)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*command.Select)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAQuery, query)
	}

	sqlText, err := sel.Rewrite(s.client.dialect.QuoteIdentifier)
	if err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

func (s *sqlSession) Command(ctx context.Context, text string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	stmt, err := command.Parse(text)
	if err != nil {
		return err
	}

	switch st := stmt.(type) {
	case *command.CreateProperty:
		return s.client.createProperty(ctx, s.conn, st)
	case *command.CreateClass:
		var super *Class
		if st.SuperClass != "" {
			super, err = s.client.lookupClass(ctx, s.conn, st.SuperClass)
			if err != nil {
				return err
			}
		}
		_, err = s.client.createClass(ctx, s.conn, st.Name, st.Clusters, super)
		return err
	case *command.Select:
		rows, err := s.Query(ctx, st.Text)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
		}
		return rows.Err()
	default:
		return fmt.Errorf("%w: %T", command.ErrUnsupported, stmt)
	}
}

func (s *sqlSession) Schema(ctx context.Context) (*Schema, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	classes, err := s.client.refresh(ctx, s.conn)
	if err != nil {
		return nil, err
	}
	return &Schema{
		client:    s.client,
		q:         s.conn,
		fetchedAt: time.Now(),
		classes:   classes,
	}, nil
}

func (s *sqlSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.conn.Close()
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
