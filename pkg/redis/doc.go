// Package redis connects to Redis with retries. The client backs the session
// store and the reset-attempt store when SESSION_BACKEND=redis.
package redis
