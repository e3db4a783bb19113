package lnwire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// PkScript is a raw, length-prefixed Bitcoin output script as carried on
// the wire (e.g. a shutdown delivery address).
type PkScript []byte

// maxPkScriptLen bounds the length-prefixed scripts this codec will accept,
// matching the largest standard script template in use (P2WSH).
const maxPkScriptLen = 34

// writeElement serializes a single element into w using the fixed-width
// wire encoding for its type.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case ChannelID:
		if _, err := w.Write(e[:]); err != nil {
			return err
		}

	case uint64:
		return binary.Write(w, binary.BigEndian, e)

	case uint32:
		return binary.Write(w, binary.BigEndian, e)

	case uint16:
		return binary.Write(w, binary.BigEndian, e)

	case uint8:
		return binary.Write(w, binary.BigEndian, e)

	case bool:
		var b uint8
		if e {
			b = 1
		}
		return binary.Write(w, binary.BigEndian, b)

	case btcutil.Amount:
		return binary.Write(w, binary.BigEndian, uint64(e))

	case MilliSatoshi:
		return binary.Write(w, binary.BigEndian, uint64(e))

	case [32]byte:
		if _, err := w.Write(e[:]); err != nil {
			return err
		}

	case []byte:
		if _, err := w.Write(e); err != nil {
			return err
		}

	case PkScript:
		if len(e) > maxPkScriptLen {
			return fmt.Errorf("pkscript too long: %d bytes", len(e))
		}
		if err := binary.Write(w, binary.BigEndian, uint16(len(e))); err != nil {
			return err
		}
		if _, err := w.Write(e); err != nil {
			return err
		}

	case *btcec.PublicKey:
		if e == nil {
			return fmt.Errorf("cannot write nil public key")
		}
		if _, err := w.Write(e.SerializeCompressed()); err != nil {
			return err
		}

	case wire.OutPoint:
		if _, err := w.Write(e.Hash[:]); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, e.Index)

	case *FeatureVector:
		raw := e.set.ToBytes()
		if err := binary.Write(w, binary.BigEndian, uint16(len(raw))); err != nil {
			return err
		}
		_, err := w.Write(raw)
		return err

	default:
		return fmt.Errorf("unknown type %T", e)
	}

	return nil
}

// writeElements writes each of elements in order using writeElement.
func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		if err := writeElement(w, element); err != nil {
			return err
		}
	}
	return nil
}

// readElement deserializes a single element from r into the value pointed
// to by element, mirroring writeElement's encoding.
func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *ChannelID:
		_, err := io.ReadFull(r, e[:])
		return err

	case *uint64:
		return binary.Read(r, binary.BigEndian, e)

	case *uint32:
		return binary.Read(r, binary.BigEndian, e)

	case *uint16:
		return binary.Read(r, binary.BigEndian, e)

	case *uint8:
		return binary.Read(r, binary.BigEndian, e)

	case *bool:
		var b uint8
		if err := binary.Read(r, binary.BigEndian, &b); err != nil {
			return err
		}
		*e = b != 0
		return nil

	case *btcutil.Amount:
		var v uint64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		*e = btcutil.Amount(v)
		return nil

	case *MilliSatoshi:
		var v uint64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		*e = MilliSatoshi(v)
		return nil

	case *[32]byte:
		_, err := io.ReadFull(r, e[:])
		return err

	case []byte:
		_, err := io.ReadFull(r, e)
		return err

	case *PkScript:
		var length uint16
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return err
		}
		if length > maxPkScriptLen {
			return fmt.Errorf("pkscript too long: %d bytes", length)
		}
		script := make([]byte, length)
		if _, err := io.ReadFull(r, script); err != nil {
			return err
		}
		*e = script
		return nil

	case **btcec.PublicKey:
		var raw [33]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return err
		}
		pub, err := btcec.ParsePubKey(raw[:])
		if err != nil {
			return err
		}
		*e = pub
		return nil

	case *wire.OutPoint:
		if _, err := io.ReadFull(r, e.Hash[:]); err != nil {
			return err
		}
		return binary.Read(r, binary.BigEndian, &e.Index)

	case **FeatureVector:
		var length uint16
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(r, raw); err != nil {
			return err
		}
		*e = NewFeatureVectorFromBytes(raw)
		return nil

	default:
		return fmt.Errorf("unknown type %T", e)
	}
}

// readElements reads each of elements in order using readElement.
func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		if err := readElement(r, element); err != nil {
			return err
		}
	}
	return nil
}
