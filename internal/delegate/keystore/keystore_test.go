package keystore_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
)

const (
	testProgram = "0x9d76a6b7e96449a3d73ec9f01c18ec53a7b6d83b2f87f0a6d2b0e94e75f0e1aa"
	testOwner   = "0x1f1b36b1a1e6889e4dd0d6a4f6c28e2b9c7c3e1d2a5b8c9d0e1f2a3b4c5d6e7f"
)

func newTestService(t *testing.T) *keystore.Service {
	t.Helper()

	svc, err := keystore.NewService(keystore.NewMemoryStorage(), "test-passphrase")
	require.NoError(t, err)
	return svc
}

func TestGenerate(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.Generate(testProgram)
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.True(t, strings.HasPrefix(pair.Address, "0x"))
	assert.Len(t, pair.Address, 42)
	assert.Len(t, pair.Secret, 32)

	other, err := svc.Generate(testProgram)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Address, other.Address)
}

func TestPersistLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.Generate(testProgram)
	require.NoError(t, err)

	require.NoError(t, svc.Persist(ctx, testProgram, testOwner, pair))

	loaded, err := svc.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, pair.Address, loaded.Address)
	assert.Equal(t, pair.Secret, loaded.Secret)
}

func TestLoadAbsent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestPersistOverwrites(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.Generate(testProgram)
	require.NoError(t, err)
	require.NoError(t, svc.Persist(ctx, testProgram, testOwner, first))

	second, err := svc.Generate(testProgram)
	require.NoError(t, err)
	require.NoError(t, svc.Persist(ctx, testProgram, testOwner, second))

	loaded, err := svc.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, second.Address, loaded.Address)
}

func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	storage := keystore.NewMemoryStorage()

	svc, err := keystore.NewService(storage, "test-passphrase")
	require.NoError(t, err)

	pair, err := svc.Generate(testProgram)
	require.NoError(t, err)
	require.NoError(t, svc.Persist(ctx, testProgram, testOwner, pair))

	// 直接破坏底层存储里的密文
	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.NoError(t, storage.Set(ctx, keys[0], []byte("not-a-sealed-record")))

	loaded, err := svc.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestWrongEncryptionKeyTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	storage := keystore.NewMemoryStorage()

	svc, err := keystore.NewService(storage, "test-passphrase")
	require.NoError(t, err)

	pair, err := svc.Generate(testProgram)
	require.NoError(t, err)
	require.NoError(t, svc.Persist(ctx, testProgram, testOwner, pair))

	other, err := keystore.NewService(storage, "another-passphrase")
	require.NoError(t, err)

	loaded, err := other.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.Generate(testProgram)
	require.NoError(t, err)
	require.NoError(t, svc.Persist(ctx, testProgram, testOwner, pair))

	require.NoError(t, svc.Delete(ctx, testProgram, testOwner))
	require.NoError(t, svc.Delete(ctx, testProgram, testOwner))

	loaded, err := svc.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileSystemStorageRoundtrip(t *testing.T) {
	ctx := context.Background()

	storage, err := keystore.NewFileSystemStorage(filepath.Join(t.TempDir(), "keys"))
	require.NoError(t, err)

	svc, err := keystore.NewService(storage, "test-passphrase")
	require.NoError(t, err)

	pair, err := svc.Generate(testProgram)
	require.NoError(t, err)
	require.NoError(t, svc.Persist(ctx, testProgram, testOwner, pair))

	loaded, err := svc.Load(ctx, testProgram, testOwner)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, pair.Address, loaded.Address)
	assert.Equal(t, pair.Secret, loaded.Secret)
}
