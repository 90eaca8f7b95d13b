// Package store 只包含 core.Store / core.KeyValueStore 的实现，接口定义在 core 包。
//
// 示例：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	rs, err := store.NewRedisStore(ctx, store.RedisOptions{Addr: "localhost:6379"})
package store

import "github.com/rushteam/hybridrec/core"

// ErrNotFound 是 core.ErrStoreNotFound 的别名，便于实现内部使用。
var ErrNotFound = core.ErrStoreNotFound
