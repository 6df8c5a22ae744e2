package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/aisavvy/aisavvy/internal/types"
)

// CacheKey fingerprints a conversation against a schema version. Identical
// conversation and schema always produce the same key; any change to either
// produces a different one.
func CacheKey(turns []types.Turn, schemaHash string) string {
	payload, err := json.Marshal(turns)
	if err != nil {
		payload = nil
	}

	hasher := sha256.New()
	hasher.Write(payload)
	hasher.Write([]byte(schemaHash))

	return hex.EncodeToString(hasher.Sum(nil))
}
