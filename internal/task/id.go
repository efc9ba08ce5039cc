package task

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// newID produces a debug identifier in the teacher's GenerateID shape
// (internal/model/id.go: "<type>_<unix10>_<hex8>"), substituting "task"
// for the teacher's command/phase/plan id types. Tasks are otherwise
// referenced by pointer (§3), so collisions here cost nothing but a
// confusing log line, not correctness.
func newID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("task_%010d_%s", time.Now().UnixNano()%1e10, hex.EncodeToString(b[:]))
}
