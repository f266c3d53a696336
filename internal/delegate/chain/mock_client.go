package chain

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockClient Client 的 testify mock 实现，供各包测试使用
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) SubmitAuthorization(ctx context.Context, req *AuthorizationRequest) (*TxReceipt, error) {
	args := m.Called(ctx, req)
	if receipt, ok := args.Get(0).(*TxReceipt); ok {
		return receipt, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) QueryAuthorization(ctx context.Context, owner, program string) (*AuthorizationRecord, error) {
	args := m.Called(ctx, owner, program)
	if record, ok := args.Get(0).(*AuthorizationRecord); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) SubmitRevocation(ctx context.Context, req *RevocationRequest) (*TxReceipt, error) {
	args := m.Called(ctx, req)
	if receipt, ok := args.Get(0).(*TxReceipt); ok {
		return receipt, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) QueryVoucherBalance(ctx context.Context, owner, program string) (*VoucherRecord, error) {
	args := m.Called(ctx, owner, program)
	if voucher, ok := args.Get(0).(*VoucherRecord); ok {
		return voucher, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) SubmitTransaction(ctx context.Context, tx *SignedTransaction) (*TxReceipt, error) {
	args := m.Called(ctx, tx)
	if receipt, ok := args.Get(0).(*TxReceipt); ok {
		return receipt, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) ChainTime(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	if t, ok := args.Get(0).(time.Time); ok {
		return t, args.Error(1)
	}
	return time.Time{}, args.Error(1)
}
