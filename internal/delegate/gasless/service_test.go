package gasless_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/gasless"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/session"
)

const (
	testProgram = "0x9d76a6b7e96449a3d73ec9f01c18ec53a7b6d83b2f87f0a6d2b0e94e75f0e1aa"
	testOwner   = "0x1f1b36b1a1e6889e4dd0d6a4f6c28e2b9c7c3e1d2a5b8c9d0e1f2a3b4c5d6e7f"

	// 18 VARA（12 位小数）
	testVoucherLimit = uint64(18_000_000_000_000)
)

func newTestService(t *testing.T, rpc chain.Client) (*gasless.Service, *keystore.Service) {
	t.Helper()

	keys, err := keystore.NewService(keystore.NewMemoryStorage(), "test-passphrase")
	require.NoError(t, err)

	svc, err := gasless.NewService(gasless.Config{
		TargetProgram: testProgram,
		VoucherLimit:  testVoucherLimit,
	}, keys, rpc)
	require.NoError(t, err)

	return svc, keys
}

func TestValidate(t *testing.T) {
	rpc := new(chain.MockClient)
	svc, _ := newTestService(t, rpc)

	// 凭证不限制动作集合，动作白名单留空合法
	require.NoError(t, svc.Validate(&session.CreateRequest{
		Owner:    testOwner,
		Duration: time.Hour,
	}))

	err := svc.Validate(&session.CreateRequest{Owner: testOwner})
	require.Error(t, err)
	assert.True(t, session.IsType(err, session.ErrTypeInvalidRequest))

	err = svc.Validate(&session.CreateRequest{Duration: time.Hour})
	require.Error(t, err)
	assert.True(t, session.IsType(err, session.ErrTypeInvalidRequest))

	rpc.AssertNotCalled(t, "SubmitAuthorization", mock.Anything, mock.Anything)
}

func TestCreateIssuesVoucherWithConfiguredLimit(t *testing.T) {
	ctx := context.Background()
	rpc := new(chain.MockClient)
	svc, keys := newTestService(t, rpc)

	rpc.On("SubmitAuthorization", mock.Anything, mock.MatchedBy(func(req *chain.AuthorizationRequest) bool {
		return req.Mode == chain.ModeVoucher &&
			req.Program == testProgram &&
			req.Balance == testVoucherLimit &&
			req.DelegatedAddress != ""
	})).Return(&chain.TxReceipt{TxHash: "0xdef"}, nil)

	expiresAt := time.Now().Add(time.Hour).UTC()
	rpc.On("QueryVoucherBalance", mock.Anything, testOwner, testProgram).
		Return(&chain.VoucherRecord{
			ID:               "v-1",
			Owner:            testOwner,
			Program:          testProgram,
			RemainingBalance: testVoucherLimit,
			ExpiresAt:        expiresAt,
		}, nil)

	auth, err := svc.Create(ctx, &session.CreateRequest{
		Owner:    testOwner,
		Duration: time.Hour,
	})
	require.NoError(t, err)
	require.NotNil(t, auth)
	assert.Equal(t, session.ModeGasless, auth.Mode)
	assert.Equal(t, testVoucherLimit, auth.RemainingBalance)
	assert.Equal(t, expiresAt, auth.ExpiresAt)

	pair, err := keys.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	assert.NotNil(t, pair)
}

func TestQueryZeroBalanceVoucherStaysQueryable(t *testing.T) {
	ctx := context.Background()
	rpc := new(chain.MockClient)
	svc, _ := newTestService(t, rpc)

	// 余额归零不等于过期：凭证仍可查询，后续动作由链上拒绝
	rpc.On("QueryVoucherBalance", mock.Anything, testOwner, testProgram).
		Return(&chain.VoucherRecord{
			ID:               "v-1",
			RemainingBalance: 0,
			ExpiresAt:        time.Now().Add(time.Hour),
		}, nil)

	auth, err := svc.Query(ctx, testOwner)
	require.NoError(t, err)
	require.NotNil(t, auth)
	assert.Zero(t, auth.RemainingBalance)
}

func TestQueryAbsent(t *testing.T) {
	ctx := context.Background()
	rpc := new(chain.MockClient)
	svc, _ := newTestService(t, rpc)

	rpc.On("QueryVoucherBalance", mock.Anything, testOwner, testProgram).Return(nil, nil)

	auth, err := svc.Query(ctx, testOwner)
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestRevokeIncludesVoucherID(t *testing.T) {
	ctx := context.Background()
	rpc := new(chain.MockClient)
	svc, keys := newTestService(t, rpc)

	pair, err := keys.Generate(testProgram)
	require.NoError(t, err)
	require.NoError(t, keys.Persist(ctx, testProgram, testOwner, pair))

	rpc.On("QueryVoucherBalance", mock.Anything, testOwner, testProgram).
		Return(&chain.VoucherRecord{ID: "v-7", RemainingBalance: 5}, nil)
	rpc.On("SubmitRevocation", mock.Anything, mock.MatchedBy(func(req *chain.RevocationRequest) bool {
		return req.Mode == chain.ModeVoucher && req.VoucherID == "v-7" && len(req.Signature) == 65
	})).Return(&chain.TxReceipt{}, nil)

	require.NoError(t, svc.Revoke(ctx, testOwner, pair))

	loaded, err := keys.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRevokeWithoutPair(t *testing.T) {
	rpc := new(chain.MockClient)
	svc, _ := newTestService(t, rpc)

	err := svc.Revoke(context.Background(), testOwner, nil)
	require.Error(t, err)
	assert.True(t, session.IsType(err, session.ErrTypeKeyLost))
}
