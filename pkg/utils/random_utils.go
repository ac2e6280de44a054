package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"math/big"
)

// RandomInt32 生成一个安全的随机32位整数
func RandomInt32() int32 {
	var num int32
	err := binary.Read(rand.Reader, binary.BigEndian, &num)
	if err != nil {
		panic("generate random int32 failed")
	}

	return num
}

// RandomIntRange 在闭区间 [min, max] 内生成一个均匀分布的安全随机整数
func RandomIntRange(min, max int64) int64 {
	if max < min {
		min, max = max, min
	}
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		panic("generate random int failed")
	}
	return min + n.Int64()
}

// RandomHex 生成 n 个随机字节并以十六进制字符串返回
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
