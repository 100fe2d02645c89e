package auditlog

import (
	"encoding/binary"
	"hash/crc32"
)

// Record encoding: varint headerLen | header | payload | crc32c(header|payload).
// The header carries the big-endian write timestamp in ms; the payload is the
// JSON entry.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, 10+len(header)+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(header)))
	out = append(out, tmp[:n]...)
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	out = append(out, crcb[:]...)
	return out
}

type decoded struct {
	Header  []byte
	Payload []byte
}

func decodeRecord(b []byte) (decoded, bool) {
	if len(b) < 1+4 {
		return decoded{}, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 {
		return decoded{}, false
	}
	if int(n)+int(hlen)+4 > len(b) {
		return decoded{}, false
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return decoded{}, false
	}
	return decoded{Header: append([]byte(nil), header...), Payload: append([]byte(nil), payload...)}, true
}
