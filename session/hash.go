package session

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
)

// stateHash deterministically flattens data's keys (sorted) and returns an
// MD5 digest for quick equality comparison between two state snapshots.
// Never used for anything security-sensitive.
func stateHash(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := md5.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, data[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
