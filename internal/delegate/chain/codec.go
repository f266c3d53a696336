package chain

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// DeriveAddress 通过 Keccak256(pubKey[1:]) 生成被委托地址
func DeriveAddress(pubKey []byte) (string, error) {
	if len(pubKey) == 0 {
		return "", errors.New("public key is required")
	}

	var uncompressed64 []byte
	switch {
	case len(pubKey) == 65 && pubKey[0] == 0x04:
		uncompressed64 = pubKey[1:]
	case len(pubKey) == 33 && (pubKey[0] == 0x02 || pubKey[0] == 0x03):
		key, err := btcec.ParsePubKey(pubKey)
		if err != nil {
			return "", errors.Wrap(err, "failed to parse compressed secp256k1 pubkey")
		}
		u := key.SerializeUncompressed() // 65 bytes, 0x04 | X | Y
		uncompressed64 = u[1:]
	default:
		return "", errors.Errorf("unsupported public key format: len=%d", len(pubKey))
	}

	hash := crypto.Keccak256(uncompressed64)
	return fmt.Sprintf("0x%s", hex.EncodeToString(hash[12:])), nil
}

// encodeActionPayload 构建动作交易的 RLP 负载
func encodeActionPayload(program, action string, payload []byte, nonce uint64) ([]byte, error) {
	raw, err := rlp.EncodeToBytes([]interface{}{
		program,
		action,
		payload,
		nonce,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to RLP encode action payload")
	}
	return raw, nil
}

// SignAction 用被委托密钥签名一笔动作交易
func SignAction(secret []byte, program, action string, payload []byte, nonce uint64) (*SignedTransaction, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret key is required")
	}
	if program == "" || action == "" {
		return nil, errors.New("program and action are required")
	}

	priv, err := crypto.ToECDSA(secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse secret key")
	}

	raw, err := encodeActionPayload(program, action, payload, nonce)
	if err != nil {
		return nil, err
	}

	hash := crypto.Keccak256(raw)
	sig, err := crypto.Sign(hash, priv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign action")
	}

	signer, err := DeriveAddress(crypto.FromECDSAPub(&priv.PublicKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive signer address")
	}

	return &SignedTransaction{
		Program:   program,
		Action:    action,
		Payload:   payload,
		Nonce:     nonce,
		Signer:    signer,
		Signature: sig,
		Raw:       raw,
	}, nil
}

// SignRevocation 用被委托密钥签名撤销负载，证明调用方仍持有密钥
func SignRevocation(secret []byte, program, delegatedAddress string) ([]byte, error) {
	tx, err := SignAction(secret, program, "revoke-delegation", []byte(delegatedAddress), 0)
	if err != nil {
		return nil, err
	}
	return tx.Signature, nil
}

// VerifyAction 校验动作交易签名与声明的签名者一致
func VerifyAction(tx *SignedTransaction) error {
	if tx == nil {
		return errors.New("transaction is nil")
	}
	if len(tx.Signature) != 65 {
		return errors.Errorf("unexpected signature length: %d", len(tx.Signature))
	}

	raw, err := encodeActionPayload(tx.Program, tx.Action, tx.Payload, tx.Nonce)
	if err != nil {
		return err
	}
	if len(tx.Raw) > 0 && !bytes.Equal(tx.Raw, raw) {
		return errors.New("raw payload does not match transaction fields")
	}

	hash := crypto.Keccak256(raw)
	pub, err := crypto.SigToPub(hash, tx.Signature)
	if err != nil {
		return errors.Wrap(err, "failed to recover public key")
	}

	recovered, err := DeriveAddress(crypto.FromECDSAPub(pub))
	if err != nil {
		return errors.Wrap(err, "failed to derive recovered address")
	}
	if recovered != tx.Signer {
		return errors.Errorf("signer mismatch: %s != %s", recovered, tx.Signer)
	}

	return nil
}
