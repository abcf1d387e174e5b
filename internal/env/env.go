// Package env reads typed values from the process environment.
//
// Every reader falls back to its default when the variable is unset or
// cannot be parsed, except RequireString which panics on a missing key.
package env

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

func RequireString(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		panic(fmt.Sprintf("environment variable %q is required", key))
	}

	return val
}

func String(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}

	return val
}

func Int(key string, def int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}

	return n
}

func Int64(key string, def int64) int64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return def
	}

	return n
}

func Bool(key string, def bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}

	return def
}

func Duration(key string, def time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}

	return d
}

func URL(key string, def *url.URL) *url.URL {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	u, err := url.Parse(val)
	if err != nil || u.Scheme == "" {
		return def
	}

	return u
}
