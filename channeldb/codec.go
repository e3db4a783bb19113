package channeldb

import "encoding/binary"

// byteOrder is the fixed endianness used for every fixed-width field this
// package persists.
var byteOrder = binary.BigEndian

// encodeStateRecord packs a channel-state tag and its serialized payload
// into a single record: a length-prefixed tag followed by the raw payload
// bytes. Keeping the tag alongside the payload lets LoadState and
// ForEachState report a meaningful error when the caller's deserializer no
// longer recognizes a tag written by an older version of the FSM, without
// having to speculatively decode the payload first.
func encodeStateRecord(stateTag string, payload []byte) []byte {
	tag := []byte(stateTag)

	record := make([]byte, 2+len(tag)+len(payload))
	byteOrder.PutUint16(record[0:2], uint16(len(tag)))
	copy(record[2:2+len(tag)], tag)
	copy(record[2+len(tag):], payload)

	return record
}

// decodeStateRecord reverses encodeStateRecord.
func decodeStateRecord(record []byte) (string, []byte, error) {
	if len(record) < 2 {
		return "", nil, ErrUnknownChannelState
	}

	tagLen := int(byteOrder.Uint16(record[0:2]))
	if len(record) < 2+tagLen {
		return "", nil, ErrUnknownChannelState
	}

	tag := string(record[2 : 2+tagLen])
	payload := record[2+tagLen:]

	return tag, payload, nil
}
