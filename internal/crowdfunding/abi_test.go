package crowdfunding_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
)

func dispatch(t *testing.T, h *fakeHost, method string, args ...interface{}) []interface{} {
	t.Helper()
	input, err := crowdfunding.PackCall(method, args...)
	require.NoError(t, err)
	out, err := crowdfunding.Dispatch(h.contract(), input)
	require.NoError(t, err)
	values, err := crowdfunding.UnpackResult(method, out)
	require.NoError(t, err)
	return values
}

func assertBig(t *testing.T, want int64, got interface{}) {
	t.Helper()
	v, ok := got.(*big.Int)
	require.True(t, ok, "expected *big.Int, got %T", got)
	assert.Equal(t, big.NewInt(want).String(), v.String())
}

func TestABIMutability(t *testing.T) {
	contractABI := crowdfunding.ABI()

	for name, method := range contractABI.Methods {
		if name == crowdfunding.MethodFund {
			assert.True(t, method.IsPayable(), name)
		} else {
			assert.False(t, method.IsPayable(), name)
		}
	}
	for _, name := range []string{
		crowdfunding.MethodStatus,
		crowdfunding.MethodGetTarget,
		crowdfunding.MethodGetDeadline,
		crowdfunding.MethodGetCurrentFunds,
		crowdfunding.MethodGetDeposit,
	} {
		assert.True(t, contractABI.Methods[name].IsConstant(), name)
	}
	assert.False(t, contractABI.Methods[crowdfunding.MethodClaim].IsConstant())
	assert.False(t, contractABI.Constructor.IsPayable())
}

func TestConstructAndViews(t *testing.T) {
	input, err := crowdfunding.PackInit(big.NewInt(100), 50)
	require.NoError(t, err)

	h := newFakeHost()
	require.NoError(t, h.invoke(owner, 0, func(c *crowdfunding.Crowdfunding) error {
		return crowdfunding.Construct(c, input)
	}))

	h.now = 10
	fundInput, err := crowdfunding.PackCall(crowdfunding.MethodFund)
	require.NoError(t, err)
	require.NoError(t, h.invoke(alice, 40, func(c *crowdfunding.Crowdfunding) error {
		_, err := crowdfunding.Dispatch(c, fundInput)
		return err
	}))

	assertBig(t, 100, dispatch(t, h, crowdfunding.MethodGetTarget)[0])
	assert.Equal(t, uint64(50), dispatch(t, h, crowdfunding.MethodGetDeadline)[0])
	assertBig(t, 40, dispatch(t, h, crowdfunding.MethodGetCurrentFunds)[0])
	assertBig(t, 40, dispatch(t, h, crowdfunding.MethodGetDeposit, alice)[0])
	assertBig(t, 0, dispatch(t, h, crowdfunding.MethodGetDeposit, bob)[0])
	assert.Equal(t, uint8(crowdfunding.FundingPeriod), dispatch(t, h, crowdfunding.MethodStatus)[0])

	h.now = 51
	assert.Equal(t, uint8(crowdfunding.Failed), dispatch(t, h, crowdfunding.MethodStatus)[0])
}

func TestDispatchRejectsBadInput(t *testing.T) {
	h := deploy(t, 100, 50)

	_, err := crowdfunding.Dispatch(h.contract(), []byte{0x01})
	assert.ErrorIs(t, err, crowdfunding.ErrInvalidInput)

	_, err = crowdfunding.Dispatch(h.contract(), []byte{0xde, 0xad, 0xbe, 0xef})
	assert.ErrorIs(t, err, crowdfunding.ErrUnknownMethod)

	selector := crowdfunding.ABI().Methods[crowdfunding.MethodGetDeposit].ID
	_, err = crowdfunding.Dispatch(h.contract(), selector)
	assert.ErrorIs(t, err, crowdfunding.ErrInvalidInput)
}
