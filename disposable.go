package graphdi

// Disposable is implemented by instances that hold resources. Singletons
// implementing it are closed by Container.Close in reverse construction
// order, so an instance is closed before the instances it depends on.
//
// Example:
//
//	type Connection struct {
//	    conn net.Conn
//	}
//
//	func (c *Connection) Close() error {
//	    return c.conn.Close()
//	}
type Disposable interface {
	Close() error
}
