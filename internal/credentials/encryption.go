package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var (
	// ErrInvalidKeySize 密钥长度错误
	ErrInvalidKeySize = errors.New("invalid key size: must be 32 bytes for AES-256")
	// ErrInvalidCiphertext 密文格式错误
	ErrInvalidCiphertext = errors.New("invalid ciphertext: too short or corrupted")
	// ErrDecryptionFailed 解密失败
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag verification failed")
)

// EncryptCredential 使用 AES-256-GCM 加密云端 API 凭证
// 返回 Base64 编码的密文（Nonce 前置）
func EncryptCredential(plaintext string, key []byte) (string, error) {
	// 验证密钥长度
	if len(key) != 32 {
		return "", ErrInvalidKeySize
	}

	// 创建 AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	// 创建 GCM mode
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	// 生成随机 Nonce (12 字节)
	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// 加密：Seal 会自动附加认证标签
	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)

	// Base64 编码（nonce + ciphertext + tag）
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptCredential 使用 AES-256-GCM 解密凭证
// 输入是 Base64 编码的密文
func DecryptCredential(ciphertext string, key []byte) (string, error) {
	// 验证密钥长度
	if len(key) != 32 {
		return "", ErrInvalidKeySize
	}

	// Base64 解码
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.New("invalid base64 encoding: " + err.Error())
	}

	// 创建 AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	// 创建 GCM mode
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	// 验证数据长度（至少要有 nonce）
	nonceSize := aesGCM.NonceSize()
	if len(data) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	// 提取 Nonce 和密文
	nonce, ciphertextBytes := data[:nonceSize], data[nonceSize:]

	// 解密并验证认证标签
	plaintext, err := aesGCM.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
