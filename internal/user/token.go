package user

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// secretKey 是一个全局变量，用于存储服务器在启动时生成的32字节密钥。
var secretKey []byte

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
// 密钥只存在于进程内存中，重启后所有会话作废。
func GenerateSecretKey() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = key
	fmt.Println("HMAC密钥已成功生成。")
}

// SignSession 为一个用户ID生成 "<id>.<签名>" 形式的会话值。
func SignSession(userID uint) string {
	payload := strconv.FormatUint(uint64(userID), 10)
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(payload))
	signature := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

// VerifySession 校验会话值并还原用户ID。
// 使用 hmac.Equal 进行时间恒定的比较，防止时序攻击。
func VerifySession(session string) (uint, bool) {
	payload, signatureB64, found := strings.Cut(session, ".")
	if !found {
		return 0, false
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	actual, err := base64.RawURLEncoding.DecodeString(signatureB64)
	if err != nil {
		return 0, false
	}
	if !hmac.Equal(expected, actual) {
		return 0, false
	}

	id, err := strconv.ParseUint(payload, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
