package lnwire

import "bytes"

// The messages below are carried inside persisted peer.State values
// (e.g. WaitForAcceptChannel.LastSent, Normal.LocalShutdown). Each reuses
// its own wire Encode/Decode rather than gob's default field reflection,
// since several of them (Init's FeatureVector, any message carrying a
// *btcec.PublicKey) hold unexported internals that reflection alone
// can't round-trip.

// GobEncode implements gob.GobEncoder via Init's own wire encoding.
func (c *Init) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder via Init's own wire decoding.
func (c *Init) GobDecode(data []byte) error {
	return c.Decode(bytes.NewReader(data), 0)
}

// GobEncode implements gob.GobEncoder via OpenChannel's own wire encoding.
func (c *OpenChannel) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder via OpenChannel's own wire decoding.
func (c *OpenChannel) GobDecode(data []byte) error {
	return c.Decode(bytes.NewReader(data), 0)
}

// GobEncode implements gob.GobEncoder via AcceptChannel's own wire encoding.
func (c *AcceptChannel) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder via AcceptChannel's own wire decoding.
func (c *AcceptChannel) GobDecode(data []byte) error {
	return c.Decode(bytes.NewReader(data), 0)
}

// GobEncode implements gob.GobEncoder via FundingCreated's own wire encoding.
func (c *FundingCreated) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder via FundingCreated's own wire decoding.
func (c *FundingCreated) GobDecode(data []byte) error {
	return c.Decode(bytes.NewReader(data), 0)
}

// GobEncode implements gob.GobEncoder via FundingSigned's own wire encoding.
func (c *FundingSigned) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder via FundingSigned's own wire decoding.
func (c *FundingSigned) GobDecode(data []byte) error {
	return c.Decode(bytes.NewReader(data), 0)
}

// GobEncode implements gob.GobEncoder via FundingLocked's own wire encoding.
func (c *FundingLocked) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder via FundingLocked's own wire decoding.
func (c *FundingLocked) GobDecode(data []byte) error {
	return c.Decode(bytes.NewReader(data), 0)
}

// GobEncode implements gob.GobEncoder via Shutdown's own wire encoding.
func (c *Shutdown) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder via Shutdown's own wire decoding.
func (c *Shutdown) GobDecode(data []byte) error {
	return c.Decode(bytes.NewReader(data), 0)
}
