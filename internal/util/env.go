package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnv returns the value of the given environment variable or the provided
// default if it is unset or empty.
func GetEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetEnvAsInt 读取整型环境变量，解析失败时返回默认值
func GetEnvAsInt(key string, defaultVal int) int {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := strconv.Atoi(strVal)
	if err != nil {
		return defaultVal
	}

	return val
}

// GetEnvAsUint64 读取无符号整型环境变量
func GetEnvAsUint64(key string, defaultVal uint64) uint64 {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := strconv.ParseUint(strVal, 10, 64)
	if err != nil {
		return defaultVal
	}

	return val
}

// GetEnvAsBool 读取布尔环境变量
func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := strconv.ParseBool(strVal)
	if err != nil {
		return defaultVal
	}

	return val
}

// GetEnvAsDuration 读取 time.Duration 环境变量（如 "10m", "24h"）
func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := time.ParseDuration(strVal)
	if err != nil {
		return defaultVal
	}

	return val
}

// GetEnvAsStringArr 读取逗号分隔的字符串数组环境变量
func GetEnvAsStringArr(key string, defaultVal []string) []string {
	strVal, ok := os.LookupEnv(key)
	if !ok || strVal == "" {
		return defaultVal
	}

	parts := strings.Split(strVal, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			res = append(res, trimmed)
		}
	}

	if len(res) == 0 {
		return defaultVal
	}

	return res
}
