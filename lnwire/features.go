package lnwire

import "github.com/lightningnetwork/lnchannel/feature"

// FeatureVector is the on-the-wire representation of a feature.Set,
// carried in Init, OpenChannel and node_announcement messages.
type FeatureVector struct {
	set *feature.Set
}

// NewFeatureVector wraps an existing feature.Set for transmission.
func NewFeatureVector(set *feature.Set) *FeatureVector {
	if set == nil {
		set = feature.New()
	}
	return &FeatureVector{set: set}
}

// NewFeatureVectorFromBytes decodes a wire-serialized feature bit field.
func NewFeatureVectorFromBytes(raw []byte) *FeatureVector {
	return &FeatureVector{set: feature.FromBytes(raw)}
}

// FeatureSet returns the decoded feature.Set.
func (f *FeatureVector) FeatureSet() *feature.Set {
	if f == nil {
		return feature.New()
	}
	return f.set
}
