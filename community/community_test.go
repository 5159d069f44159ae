package community

import (
	"testing"

	"github.com/sovrn-protocol/sovrn/ledgererr"
	"github.com/stretchr/testify/require"
)

func TestCreateRejectsOutOfRangeBoundaryFee(t *testing.T) {
	r := New()
	_, err := r.Create("neighborly", 1.5, 0)
	require.Error(t, err)
	_, err = r.Create("neighborly", -0.1, 0)
	require.Error(t, err)
}

func TestCreateAndGet(t *testing.T) {
	r := New()
	c, err := r.Create("riverside", 0.05, 100)
	require.NoError(t, err)
	require.True(t, r.Exists(c.ID))

	got, err := r.Get(c.ID)
	require.NoError(t, err)
	require.Equal(t, "riverside", got.Name)
	require.Equal(t, 0.05, got.BoundaryFee)
}

func TestGetUnknownFails(t *testing.T) {
	r := New()
	_, err := r.Get("nope")
	require.True(t, ledgererr.Of(err, ledgererr.CommunityNotFound))
}

func TestIncrementMembersClampsAtZero(t *testing.T) {
	r := New()
	c, _ := r.Create("riverside", 0.05, 0)
	require.NoError(t, r.IncrementMembers(c.ID, 3))
	require.NoError(t, r.IncrementMembers(c.ID, -10))

	got, _ := r.Get(c.ID)
	require.Equal(t, 0, got.MemberCount)
}

func TestBoundaryFeeUnknown(t *testing.T) {
	r := New()
	_, err := r.BoundaryFee("nope")
	require.Error(t, err)
}
