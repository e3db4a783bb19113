// Package feature implements BOLT-9 feature bit vectors: encoding,
// decoding, dependency validation and local/remote intersection, as used
// during the Init handshake and in node/channel announcements.
package feature

import "fmt"

// Bit is the index of a single feature bit on the wire. By convention the
// mandatory ("it must be understood") form of a feature occupies an even
// bit, and the optional form occupies the next odd bit.
type Bit uint16

// Support describes whether a feature is signaled as mandatory or optional.
type Support uint8

const (
	// Optional features may be ignored by a peer that doesn't understand
	// them.
	Optional Support = iota

	// Mandatory features must be understood by the peer, or the
	// connection should be torn down.
	Mandatory
)

func (s Support) String() string {
	if s == Mandatory {
		return "mandatory"
	}
	return "optional"
}

// Feature is a named BOLT-9 feature, identified by its mandatory bit.
// The optional bit is always Mandatory+1.
type Feature uint16

const (
	// OptionDataLossProtect is set if the node requires or supports a
	// channel_reestablish message which includes the last per-commitment
	// point, for recovery of a blind node.
	OptionDataLossProtect Feature = 0

	// InitialRoutingSync asks the remote peer to send the full routing
	// table upon connection.
	InitialRoutingSync Feature = 2

	// ChannelRangeQueries signals gossip_queries support.
	ChannelRangeQueries Feature = 6

	// VariableLengthOnion signals support for the tlv-payload onion
	// format.
	VariableLengthOnion Feature = 8

	// ChannelRangeQueriesExtended extends gossip_queries with additional
	// query flags.
	ChannelRangeQueriesExtended Feature = 10

	// StaticRemoteKey indicates the remote party's to-remote output key
	// does not change between commitments, simplifying recovery.
	StaticRemoteKey Feature = 12

	// PaymentSecret signals support for the payment_secret field in the
	// final onion hop.
	PaymentSecret Feature = 14

	// BasicMultiPartPayment signals support for receiving a payment
	// split over multiple HTLCs.
	BasicMultiPartPayment Feature = 16

	// Wumbo signals support for channels larger than 2^24-1 satoshis.
	Wumbo Feature = 18

	// TrampolinePayment signals support for trampoline-routed payments.
	TrampolinePayment Feature = 50
)

// featureNames maps the mandatory bit of each known feature to a
// human-readable name, used when reporting a missing dependency.
var featureNames = map[Feature]string{
	OptionDataLossProtect:       "data-loss-protect",
	InitialRoutingSync:          "initial-routing-sync",
	ChannelRangeQueries:         "gossip-queries",
	VariableLengthOnion:         "var-onion-optin",
	ChannelRangeQueriesExtended: "gossip-queries-ex",
	StaticRemoteKey:             "static-remote-key",
	PaymentSecret:               "payment-secret",
	BasicMultiPartPayment:       "basic-mpp",
	Wumbo:                       "option-support-large-channel",
	TrampolinePayment:           "trampoline-routing",
}

// dependencies lists, per feature, the set of features it requires to also
// be set. Note that PaymentSecret ⟸ VariableLengthOnion is intentionally
// absent here: BOLT-9 calls for it, but enforcing it would reject invoices
// seen in the wild before wallets consistently set both bits.
var dependencies = map[Feature][]Feature{
	ChannelRangeQueriesExtended: {ChannelRangeQueries},
	BasicMultiPartPayment:       {PaymentSecret},
	TrampolinePayment:           {PaymentSecret},
}

// knownMandatory is the set of mandatory features this implementation
// understands. A peer that sets an unknown mandatory (even) bit cannot be
// supported.
var knownMandatory = map[Feature]struct{}{
	OptionDataLossProtect:       {},
	ChannelRangeQueries:         {},
	VariableLengthOnion:         {},
	ChannelRangeQueriesExtended: {},
	PaymentSecret:               {},
	BasicMultiPartPayment:       {},
	Wumbo:                       {},
}

// bit is a (feature, support) pair, the atomic unit tracked by a Set.
type bit struct {
	feature Feature
	support Support
}

// index returns the raw wire bit index for this (feature, support) pair.
func (b bit) index() Bit {
	if b.support == Mandatory {
		return Bit(b.feature)
	}
	return Bit(b.feature) + 1
}

// Set is a BOLT-9 feature vector: the activated (feature, support) pairs
// this implementation recognizes, plus any unrecognized bit indices carried
// along verbatim so they round-trip through Encode/Decode untouched.
type Set struct {
	activated map[bit]struct{}
	unknown   map[Bit]struct{}
}

// New returns an empty feature Set.
func New() *Set {
	return &Set{
		activated: make(map[bit]struct{}),
		unknown:   make(map[Bit]struct{}),
	}
}

// Set activates the given feature at the given support level.
func (s *Set) Set(f Feature, support Support) {
	s.activated[bit{f, support}] = struct{}{}
}

// SetUnknown marks a raw bit index as present without interpreting it as a
// known feature.
func (s *Set) SetUnknown(b Bit) {
	s.unknown[b] = struct{}{}
}

// HasFeature reports whether f is activated. When support is nil, either
// the mandatory or optional form satisfies the check.
func (s *Set) HasFeature(f Feature, support *Support) bool {
	if support != nil {
		_, ok := s.activated[bit{f, *support}]
		return ok
	}
	_, m := s.activated[bit{f, Mandatory}]
	_, o := s.activated[bit{f, Optional}]
	return m || o
}

// HasUnknown reports whether the raw bit b is set, known or not.
func (s *Set) HasUnknown(b Bit) bool {
	_, ok := s.unknown[b]
	return ok
}

// highestBit returns the highest set wire bit index across both activated
// and unknown bits, and whether the set is non-empty.
func (s *Set) highestBit() (Bit, bool) {
	var (
		max   Bit
		found bool
	)
	for b := range s.activated {
		if idx := b.index(); !found || idx > max {
			max, found = idx, true
		}
	}
	for idx := range s.unknown {
		if !found || idx > max {
			max, found = idx, true
		}
	}
	return max, found
}

// ToBytes serializes the Set as a big-endian bit field: bit 0 is the
// least-significant bit of the last byte. Leading zero bytes are trimmed.
func (s *Set) ToBytes() []byte {
	top, ok := s.highestBit()
	if !ok {
		return nil
	}

	numBytes := int(top)/8 + 1
	out := make([]byte, numBytes)

	setBit := func(idx Bit) {
		byteIdx := numBytes - 1 - int(idx)/8
		out[byteIdx] |= 1 << (uint(idx) % 8)
	}
	for b := range s.activated {
		setBit(b.index())
	}
	for idx := range s.unknown {
		setBit(idx)
	}
	return out
}

// FromBytes decodes a big-endian bit field produced by ToBytes, preserving
// both known-feature activations and unrecognized bits.
func FromBytes(raw []byte) *Set {
	s := New()
	numBytes := len(raw)

	for byteIdx, b := range raw {
		if b == 0 {
			continue
		}
		for bitInByte := 0; bitInByte < 8; bitInByte++ {
			if b&(1<<uint(bitInByte)) == 0 {
				continue
			}
			idx := Bit((numBytes-1-byteIdx)*8 + bitInByte)
			s.setFromWireBit(idx)
		}
	}
	return s
}

// setFromWireBit interprets a raw wire bit index, recording it as an
// activated known feature when recognized, or as an opaque unknown bit
// otherwise.
func (s *Set) setFromWireBit(idx Bit) {
	feature := Feature(idx &^ 1)
	support := Optional
	if idx%2 == 0 {
		support = Mandatory
	}

	if _, known := featureNames[feature]; known {
		s.Set(feature, support)
		return
	}
	s.SetUnknown(idx)
}

// ValidateDependencies checks that every activated feature's declared
// dependencies are also activated, returning a human-readable error naming
// the first offending feature and its missing dependency, or nil.
func (s *Set) ValidateDependencies() error {
	for f := range dependenciesToCheck(s) {
		for _, dep := range dependencies[f] {
			if !s.HasFeature(dep, nil) {
				return fmt.Errorf("feature %s requires %s to "+
					"also be set", featureName(f),
					featureName(dep))
			}
		}
	}
	return nil
}

// dependenciesToCheck returns the set of features present in s that have a
// declared dependency list.
func dependenciesToCheck(s *Set) map[Feature]struct{} {
	out := make(map[Feature]struct{})
	for b := range s.activated {
		if _, ok := dependencies[b.feature]; ok {
			out[b.feature] = struct{}{}
		}
	}
	return out
}

func featureName(f Feature) string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("bit-%d", f)
}

// AreSupported reports whether s can be safely handled by this
// implementation: every unknown *even* (mandatory) bit must be absent, and
// every mandatory activated feature must be in the locally-implemented
// mandatory set.
func (s *Set) AreSupported() bool {
	for idx := range s.unknown {
		if idx%2 == 0 {
			return false
		}
	}
	for b := range s.activated {
		if b.support != Mandatory {
			continue
		}
		if _, ok := knownMandatory[b.feature]; !ok {
			return false
		}
	}
	return true
}

// CanUseFeature reports whether both local and remote have activated f, at
// either support level.
func CanUseFeature(local, remote *Set, f Feature) bool {
	return local.HasFeature(f, nil) && remote.HasFeature(f, nil)
}

// Intersect returns the set of features both local and remote activate,
// preserving the stricter (mandatory) support level when the two sides
// disagree on support level for the same feature.
func Intersect(local, remote *Set) *Set {
	out := New()
	for b := range local.activated {
		if !remote.HasFeature(b.feature, nil) {
			continue
		}
		support := Optional
		if b.support == Mandatory || remote.HasFeature(b.feature, supportPtr(Mandatory)) {
			support = Mandatory
		}
		out.Set(b.feature, support)
	}
	return out
}

func supportPtr(s Support) *Support { return &s }
