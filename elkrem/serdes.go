package elkrem

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Serialization and deserialization for Store. A Store turns into a
// 1 byte node count followed by that many 41 byte nodes (1 byte height,
// 8 byte index, 32 byte secret), so the total max size is 1 + 49*41 bytes.

// ToBytes serializes the store as a node count followed by each node's
// height, index, and secret.
func (s *Store) ToBytes() ([]byte, error) {
	numOfNodes := uint8(len(s.nodes))
	if numOfNodes == 0 {
		return nil, nil
	}
	if len(s.nodes) > maxHeight+1 {
		return nil, fmt.Errorf("broken store has %d nodes, max %d",
			len(s.nodes), maxHeight+1)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, numOfNodes); err != nil {
		return nil, err
	}
	for _, n := range s.nodes {
		if err := binary.Write(&buf, binary.BigEndian, n.height); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.BigEndian, n.index); err != nil {
			return nil, err
		}
		if _, err := buf.Write(n.secret[:]); err != nil {
			return nil, err
		}
	}
	if buf.Len() != (int(numOfNodes)*41)+1 {
		return nil, fmt.Errorf("wrong size buf, got %d expect %d",
			buf.Len(), (int(numOfNodes)*41)+1)
	}
	return buf.Bytes(), nil
}

// StoreFromBytes deserializes a Store previously written by ToBytes.
func StoreFromBytes(b []byte) (*Store, error) {
	if len(b) == 0 {
		return NewStore(), nil
	}
	buf := bytes.NewBuffer(b)

	numOfNodes, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}
	if numOfNodes < 1 || numOfNodes > maxHeight+1 {
		return nil, fmt.Errorf("invalid node count: %d", numOfNodes)
	}
	if buf.Len() != int(numOfNodes)*41 {
		return nil, fmt.Errorf("remaining buf wrong size, expect %d got %d",
			int(numOfNodes)*41, buf.Len())
	}

	nodes := make([]node, numOfNodes)
	for j := range nodes {
		if err := binary.Read(buf, binary.BigEndian, &nodes[j].height); err != nil {
			return nil, err
		}
		if err := binary.Read(buf, binary.BigEndian, &nodes[j].index); err != nil {
			return nil, err
		}
		copy(nodes[j].secret[:], buf.Next(32))

		if nodes[j].height > maxHeight {
			return nil, fmt.Errorf("invalid node height %d", nodes[j].height)
		}
	}
	return &Store{nodes: nodes}, nil
}
