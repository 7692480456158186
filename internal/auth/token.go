package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// SessionTokenBytes 会话 token 随机字节数
const SessionTokenBytes = 32

// GenerateSessionToken 生成不透明的会话 token
func GenerateSessionToken() (string, error) {
	return generateRandomToken(SessionTokenBytes)
}

// generateRandomToken 生成随机 token
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
