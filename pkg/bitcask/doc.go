// Package bitcask is a single-file, log-structured key-value store.
//
// Every write is appended to one log file. An in-memory key directory
// maps each live key to the position of its latest value in that log, so
// a read is a single positioned read. The key directory is rebuilt by
// replaying the log whenever the store is opened. Merge rewrites the log
// to keep exactly one record per live key.
//
// On-disk record layout (big-endian, no header, footer or checksum):
//
//	<key_len:uint32><value_len:int32><key><value>
//
// A negative value_len marks a tombstone; no value bytes follow it.
//
// Only one Store may have a given log open at a time; the log is held
// under an exclusive advisory lock. A Store is not safe for concurrent
// use; callers sharing one across goroutines must serialize access.
//
// Example:
//
//	s, err := bitcask.Open("/var/lib/app/data.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	err = s.Set([]byte("foo"), []byte("bar"))
//	val, err := s.Get([]byte("foo"))
package bitcask
