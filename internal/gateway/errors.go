package gateway

import "errors"

// ErrConfirmationMismatch means the parameters presented at confirm
// time differ from what was staged. The staged operation is kept so
// the caller can retry with the right parameters or cancel.
var ErrConfirmationMismatch = errors.New("confirmation parameters do not match the pending operation")
