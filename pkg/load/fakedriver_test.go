package load

import (
	"database/sql"
	"database/sql/driver"
	"sync"
)

// fakeConnConfig lets a test script the sequence of outcomes a
// fakeConn's Exec calls produce, keyed by DSN so concurrent tests
// don't interfere with each other's registered driver.Conn.
type fakeConnConfig struct {
	mu       sync.Mutex
	execErrs []error // consumed in order; nil entries mean success
	execs    [][]driver.Value
}

func (c *fakeConnConfig) nextErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.execErrs) == 0 {
		return nil
	}
	err := c.execErrs[0]
	c.execErrs = c.execErrs[1:]
	return err
}

var (
	fakeRegistryMu sync.Mutex
	fakeRegistry   = map[string]*fakeConnConfig{}
	fakeDriverOnce sync.Once
)

func registerFakeDriver() {
	fakeDriverOnce.Do(func() {
		sql.Register("corpusetl_fake", &fakeDriver{})
	})
}

func newFakeDSN(dsn string, cfg *fakeConnConfig) {
	fakeRegistryMu.Lock()
	defer fakeRegistryMu.Unlock()
	fakeRegistry[dsn] = cfg
}

type fakeDriver struct{}

func (fakeDriver) Open(dsn string) (driver.Conn, error) {
	fakeRegistryMu.Lock()
	cfg, ok := fakeRegistry[dsn]
	fakeRegistryMu.Unlock()
	if !ok {
		cfg = &fakeConnConfig{}
	}
	return &fakeConn{cfg: cfg}, nil
}

type fakeConn struct {
	cfg *fakeConnConfig
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{conn: c}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) { return &fakeTx{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeStmt struct {
	conn *fakeConn
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.conn.cfg.mu.Lock()
	s.conn.cfg.execs = append(s.conn.cfg.execs, args)
	s.conn.cfg.mu.Unlock()

	if err := s.conn.cfg.nextErr(); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, sql.ErrNoRows
}
