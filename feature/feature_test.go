package feature_test

import (
	"testing"

	"github.com/lightningnetwork/lnchannel/feature"
	"github.com/stretchr/testify/require"
)

// TestRoundTrip checks that every activated and unknown bit survives a
// ToBytes/FromBytes round trip.
func TestRoundTrip(t *testing.T) {
	s := feature.New()
	s.Set(feature.VariableLengthOnion, feature.Optional)
	s.Set(feature.PaymentSecret, feature.Mandatory)

	raw := s.ToBytes()
	require.Equal(t, []byte{0x42, 0x00}, raw)

	decoded := feature.FromBytes(raw)
	require.True(t, decoded.HasFeature(feature.VariableLengthOnion, nil))
	require.True(t, decoded.HasFeature(feature.PaymentSecret, nil))

	support := feature.Mandatory
	require.True(t, decoded.HasFeature(feature.PaymentSecret, &support))
}

func TestRoundTripUnknownBit(t *testing.T) {
	s := feature.New()
	s.SetUnknown(21)
	s.Set(feature.Wumbo, feature.Optional)

	decoded := feature.FromBytes(s.ToBytes())
	require.True(t, decoded.HasUnknown(21))
	require.True(t, decoded.HasFeature(feature.Wumbo, nil))
}

func TestEmptySetEncodesToNil(t *testing.T) {
	s := feature.New()
	require.Nil(t, s.ToBytes())
}

func TestValidateDependencies(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *feature.Set
		wantErr bool
		missing string
	}{
		{
			name: "mpp without payment secret",
			build: func() *feature.Set {
				s := feature.New()
				s.Set(feature.BasicMultiPartPayment, feature.Optional)
				return s
			},
			wantErr: true,
			missing: "payment-secret",
		},
		{
			name: "trampoline without payment secret",
			build: func() *feature.Set {
				s := feature.New()
				s.Set(feature.TrampolinePayment, feature.Optional)
				return s
			},
			wantErr: true,
			missing: "payment-secret",
		},
		{
			name: "extended queries without base queries",
			build: func() *feature.Set {
				s := feature.New()
				s.Set(feature.ChannelRangeQueriesExtended, feature.Optional)
				return s
			},
			wantErr: true,
			missing: "gossip-queries",
		},
		{
			name: "mpp with payment secret satisfied",
			build: func() *feature.Set {
				s := feature.New()
				s.Set(feature.PaymentSecret, feature.Mandatory)
				s.Set(feature.BasicMultiPartPayment, feature.Optional)
				return s
			},
			wantErr: false,
		},
		{
			name: "payment secret alone needs no var-onion",
			build: func() *feature.Set {
				s := feature.New()
				s.Set(feature.PaymentSecret, feature.Optional)
				return s
			},
			wantErr: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build().ValidateDependencies()
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.missing)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAreSupportedEmptySet(t *testing.T) {
	require.True(t, feature.New().AreSupported())
}

func TestAreSupportedUnknownEvenBit(t *testing.T) {
	s := feature.New()
	s.SetUnknown(20)
	require.False(t, s.AreSupported())
}

func TestAreSupportedUnknownOddBitOK(t *testing.T) {
	s := feature.New()
	s.SetUnknown(51)
	require.True(t, s.AreSupported())
}

func TestCanUseFeature(t *testing.T) {
	local := feature.New()
	local.Set(feature.StaticRemoteKey, feature.Optional)

	remote := feature.New()
	remote.Set(feature.StaticRemoteKey, feature.Mandatory)

	require.True(t, feature.CanUseFeature(local, remote, feature.StaticRemoteKey))
	require.False(t, feature.CanUseFeature(local, remote, feature.Wumbo))
}

func TestIntersect(t *testing.T) {
	local := feature.New()
	local.Set(feature.StaticRemoteKey, feature.Mandatory)
	local.Set(feature.Wumbo, feature.Optional)

	remote := feature.New()
	remote.Set(feature.StaticRemoteKey, feature.Optional)

	both := feature.Intersect(local, remote)
	require.True(t, both.HasFeature(feature.StaticRemoteKey, nil))
	require.False(t, both.HasFeature(feature.Wumbo, nil))
}
