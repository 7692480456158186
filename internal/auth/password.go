package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// MaxPasswordBytes bcrypt 只处理前 72 字节
const MaxPasswordBytes = 72

// ErrPasswordTooLong 密码超过 bcrypt 上限
var ErrPasswordTooLong = errors.New("password must not exceed 72 bytes")

// 旧版 scrypt 摘要参数
const (
	legacyScryptN      = 16384
	legacyScryptR      = 8
	legacyScryptP      = 1
	legacyScryptKeyLen = 64
)

// PasswordHasher 密码摘要服务
type PasswordHasher interface {
	// Hash 生成加盐摘要
	Hash(password string) (string, error)
	// Verify 校验明文与摘要,摘要格式非法时返回 false
	Verify(password, digest string) bool
	// NeedsRehash 摘要是否为需要升级的旧格式
	NeedsRehash(digest string) bool
	// VerifyDummy 对不存在的账号执行一次等价耗时的校验
	VerifyDummy(password string)
}

// passwordHasher 基于 bcrypt 的实现,兼容旧版 scrypt 摘要
type passwordHasher struct {
	cost int

	dummyOnce   sync.Once
	dummyDigest []byte
}

// NewPasswordHasher 创建密码摘要服务
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &passwordHasher{cost: cost}
}

// Hash 生成 bcrypt 摘要
func (h *passwordHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify 校验密码
func (h *passwordHasher) Verify(password, digest string) bool {
	if digest == "" || len(password) > MaxPasswordBytes {
		return false
	}
	if isBcryptDigest(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	}
	return verifyLegacyScrypt(password, digest)
}

// NeedsRehash 旧版 scrypt 摘要登录成功后需要升级
func (h *passwordHasher) NeedsRehash(digest string) bool {
	if !isBcryptDigest(digest) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(digest))
	return err != nil || cost < h.cost
}

// VerifyDummy 抹平账号存在与否的耗时差异
func (h *passwordHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummyDigest, _ = bcrypt.GenerateFromPassword([]byte("uniod-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyDigest, []byte(password))
}

func isBcryptDigest(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}

// verifyLegacyScrypt 校验 "hex(scrypt).salt" 格式的旧摘要
func verifyLegacyScrypt(password, digest string) bool {
	hashed, salt, ok := strings.Cut(digest, ".")
	if !ok || hashed == "" || salt == "" {
		return false
	}
	expected, err := hex.DecodeString(hashed)
	if err != nil || len(expected) != legacyScryptKeyLen {
		return false
	}
	derived, err := scrypt.Key([]byte(password), []byte(salt), legacyScryptN, legacyScryptR, legacyScryptP, legacyScryptKeyLen)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1
}
