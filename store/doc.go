// Package store persists conversation histories so a chat can continue
// across process runs.
//
// A [MessageStore] holds the messages of one conversation in memory and
// syncs them to an [Adapter] under a key. [MemoryAdapter] keeps data in
// process; [FileAdapter] writes one JSON document per key to a directory.
//
//	adapter, err := store.NewFileAdapter(filepath.Join(home, ".relay", "sessions"))
//	history := store.NewMessageStore(adapter)
//	if err := history.Reload(ctx, "travel"); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
//	    return err
//	}
//	history.Append(relay.NewUserMessage("And the day after?"))
package store
