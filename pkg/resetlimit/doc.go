// Package resetlimit counts admin-mediated password reset requests per email
// and enforces a temporary lockout.
//
// Each request increments a per-email counter. When the counter reaches
// MaxAttempts the record is blocked for BlockDuration. Requests made while
// blocked fail with *BlockedError and do not increment. The counter is not
// reset when the block elapses, so the next request succeeds and blocks again;
// only Clear (called after an administrator grants a reset) starts over.
//
// Request is a read-modify-write against the Store without cross-process
// locking. Concurrent requests for the same email may both read the same count.
package resetlimit
