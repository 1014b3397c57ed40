package service

import "bytes"

func containsBytes(b []byte, s string) bool {
	return bytes.Contains(b, []byte(s))
}
