// Package state provides the key-value store backends shared by all runs,
// a typed repository over them, and the file-backed schedule store.
package state

import "github.com/user/storeops/internal/types"

// Compile-time interface compliance checks.
var _ types.Store = (*MemoryStore)(nil)
var _ types.Store = (*FileStore)(nil)
var _ types.Store = (*SQLStore)(nil)
var _ types.Store = (*RedisStore)(nil)
