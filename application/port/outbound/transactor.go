package outbound

import "context"

// Transactor runs fn in a single store transaction. The transaction travels
// in the context handed to fn; repositories pick it up from there. A non-nil
// error from fn rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
