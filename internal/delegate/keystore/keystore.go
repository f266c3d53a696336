package keystore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
)

// KeyPair 替代签名密钥对。Secret 不离开 keystore 边界，除非用于签名交易。
type KeyPair struct {
	Address string
	Secret  []byte
}

// storedRecord 持久化形式的密钥记录（加密前）
type storedRecord struct {
	Address   string    `json:"address"`
	Secret    string    `json:"secret"`
	Program   string    `json:"program"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Service 管理替代密钥的生成与加密持久化。
// 每个 (program, owner) 至多一条活跃记录；记录写入覆盖旧值且幂等。
type Service struct {
	storage       Storage
	encryptionKey []byte

	// 单条记录的读改写不与另一次写交错
	mu sync.Mutex
}

// NewService 创建密钥存储服务
func NewService(storage Storage, encryptionKey string) (*Service, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}
	if encryptionKey == "" {
		return nil, errors.New("encryption key is required")
	}

	key, err := deriveKey(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive encryption key")
	}

	return &Service{
		storage:       storage,
		encryptionKey: key,
	}, nil
}

// Generate 生成新的 secp256k1 密钥对；仅在熵源失败时报错
func (s *Service) Generate(program string) (*KeyPair, error) {
	if program == "" {
		return nil, errors.New("program is required")
	}

	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "entropy source failure")
	}

	address, err := chain.DeriveAddress(priv.PubKey().SerializeUncompressed())
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive address")
	}

	return &KeyPair{
		Address: address,
		Secret:  priv.Serialize(),
	}, nil
}

// Persist 写入密钥记录（覆盖同 (program, owner) 的已有记录；幂等）
func (s *Service) Persist(ctx context.Context, program, owner string, pair *KeyPair) error {
	if pair == nil {
		return errors.New("key pair is nil")
	}

	record := &storedRecord{
		Address:   pair.Address,
		Secret:    hex.EncodeToString(pair.Secret),
		Program:   program,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal key record")
	}

	sealed, err := s.encrypt(plaintext)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt key record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(ctx, recordKey(program, owner), sealed); err != nil {
		return errors.Wrap(err, "failed to persist key record")
	}

	return nil
}

// Load 读取密钥记录。记录不存在或损坏时返回 (nil, nil)：
// 损坏的记录按不存在处理，不让调用方崩溃。
func (s *Service) Load(ctx context.Context, program, owner string) (*KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := s.storage.Get(ctx, recordKey(program, owner))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read key record")
	}
	if sealed == nil {
		return nil, nil
	}

	plaintext, err := s.decrypt(sealed)
	if err != nil {
		log.Warn().
			Str("program", program).
			Str("owner", owner).
			Msg("Stored key record is corrupt, treating as absent")
		return nil, nil
	}

	var record storedRecord
	if err := json.Unmarshal(plaintext, &record); err != nil {
		log.Warn().
			Str("program", program).
			Str("owner", owner).
			Msg("Stored key record is malformed, treating as absent")
		return nil, nil
	}

	secret, err := hex.DecodeString(record.Secret)
	if err != nil || len(secret) == 0 {
		log.Warn().
			Str("program", program).
			Str("owner", owner).
			Msg("Stored key secret is malformed, treating as absent")
		return nil, nil
	}

	return &KeyPair{
		Address: record.Address,
		Secret:  secret,
	}, nil
}

// Delete 删除密钥记录；记录不存在时不报错
func (s *Service) Delete(ctx context.Context, program, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, recordKey(program, owner)); err != nil {
		return errors.Wrap(err, "failed to delete key record")
	}
	return nil
}

// recordKey 派生存储键 = hash(program, owner)
func recordKey(program, owner string) string {
	hash := ethcrypto.Keccak256([]byte(program), []byte(":"), []byte(owner))
	return hex.EncodeToString(hash)
}

func (s *Service) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Service) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt")
	}

	return plaintext, nil
}
