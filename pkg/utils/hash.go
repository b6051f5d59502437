package utils

import (
	"crypto/md5"
	"fmt"
)

// HashString returns the hex md5 of input. Used for cache key components
// that may contain characters unsafe for key syntax; not for security.
func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
