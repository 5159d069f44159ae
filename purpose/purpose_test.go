package purpose

import (
	"testing"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/stretchr/testify/require"
)

func TestNewPreregistersStandardChannels(t *testing.T) {
	r := New(0)
	all := r.All()
	require.Len(t, all, len(StandardChannels))

	names := make(map[string]bool)
	for _, c := range all {
		names[c.Name] = true
	}
	for _, sc := range StandardChannels {
		require.True(t, names[sc.Name])
	}
}

func TestCreateRejectsOutOfRangeDiscount(t *testing.T) {
	r := New(0)
	_, err := r.Create("custom", "", 1.5, 0)
	require.Error(t, err)
}

func TestRegisterRecipientAndCanReceive(t *testing.T) {
	r := New(0)
	c, err := r.Create("mutual-aid", "", 0.02, 0)
	require.NoError(t, err)

	can, err := r.CanReceive(c.ID, "wallet-1")
	require.NoError(t, err)
	require.False(t, can)

	require.NoError(t, r.RegisterRecipient(c.ID, "wallet-1"))
	can, err = r.CanReceive(c.ID, "wallet-1")
	require.NoError(t, err)
	require.True(t, can)
}

func TestGetUnknownFails(t *testing.T) {
	r := New(0)
	_, err := r.Get("nope")
	require.True(t, ledgererr.Of(err, ledgererr.PurposeNotFound))
}

func TestConversionDiscountUnknown(t *testing.T) {
	r := New(0)
	_, err := r.ConversionDiscount("nope")
	require.Error(t, err)
}
