package auditlog

import "encoding/binary"

// Keyspace:
//
//	audit/m           - last assigned sequence (8B BE)
//	audit/e/{seq_be8} - entry record

func keyLogMeta() []byte { return []byte("audit/m") }

func entryPrefix() []byte { return []byte("audit/e/") }

func keyLogEntry(seq uint64) []byte {
	p := entryPrefix()
	k := make([]byte, 0, len(p)+8)
	k = append(k, p...)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return append(k, b[:]...)
}

func seqFromKey(key []byte) uint64 {
	if len(key) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
