package allocate

import "hash/fnv"

// hashString is FNV-1a over the UTF-8 bytes of s.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
