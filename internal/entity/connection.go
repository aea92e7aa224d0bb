package entity

// Connection - live client session able to receive encoded events.
// Send must not block.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}
