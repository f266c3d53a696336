package keystore

import (
	"golang.org/x/crypto/scrypt"
)

// deriveKey 从配置密钥派生 32 字节 AES 密钥
func deriveKey(password string) ([]byte, error) {
	salt := []byte("dapps-delegate-keystore-salt")
	return scrypt.Key([]byte(password), salt, 32768, 8, 1, 32)
}
