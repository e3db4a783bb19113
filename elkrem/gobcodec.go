package elkrem

import (
	"bytes"
	"encoding/gob"
)

// nodeGob mirrors node with exported fields, since gob's default reflection
// can't see across an unexported struct's unexported fields from outside
// its package, and Store is persisted from lnwallet.
type nodeGob struct {
	Height uint8
	Index  uint64
	Secret [32]byte
}

// GobEncode implements gob.GobEncoder.
func (s *Store) GobEncode() ([]byte, error) {
	mirror := make([]nodeGob, len(s.nodes))
	for i, n := range s.nodes {
		mirror[i] = nodeGob{Height: n.height, Index: n.index, Secret: n.secret}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(mirror); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (s *Store) GobDecode(data []byte) error {
	var mirror []nodeGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&mirror); err != nil {
		return err
	}

	nodes := make([]node, len(mirror))
	for i, n := range mirror {
		nodes[i] = node{height: n.Height, index: n.Index, secret: n.Secret}
	}
	s.nodes = nodes
	return nil
}
