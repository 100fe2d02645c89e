package queue

import "encoding/binary"

// Pebble keyspace:
//
//	q/meta            - last assigned sequence (8B BE)
//	q/item/{seq_be8}  - item record (JSON)
//	q/id/{itemId}     - id index -> seq (8B BE)
//	q/lease/dispatch  - dispatch lease record (JSON)

var (
	keyMeta       = []byte("q/meta")
	itemPrefix    = []byte("q/item/")
	idPrefix      = []byte("q/id/")
	dispatchLease = []byte("q/lease/dispatch")
)

func itemKey(seq uint64) []byte {
	k := make([]byte, 0, len(itemPrefix)+8)
	k = append(k, itemPrefix...)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return append(k, b[:]...)
}

func idKey(id string) []byte {
	k := make([]byte, 0, len(idPrefix)+len(id))
	k = append(k, idPrefix...)
	return append(k, id...)
}
