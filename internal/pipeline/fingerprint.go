package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/platformbuilds/prognos-core/internal/models"
)

// stageFingerprint derives a deterministic cache key from a stage's
// exact input: the series (or segment) plus the stage configuration.
// Two invocations with byte-identical inputs hash identically, so a
// cached stage result can stand in for the remote call.
func stageFingerprint(stage models.StageName, inputs ...interface{}) string {
	h := sha256.New()
	h.Write([]byte(stage))
	for _, in := range inputs {
		// Deterministic for our model types: struct fields marshal in
		// declaration order and maps are not used in stage inputs.
		b, err := json.Marshal(in)
		if err != nil {
			// Unmarshalable input means no caching for this call, not a
			// pipeline failure. An empty fingerprint is never stored.
			return ""
		}
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}
