// Package schema exposes the embedded canonical case-record schema for
// runtime use.
package schema

import (
	_ "embed"
	"encoding/json"
	"sync"
)

type versionDoc struct {
	Version string `json:"version"`
}

// Canonical case-record schema JSON embedded for runtime metadata exposure.
// Regenerate with cmd/schema-dump when the form schema changes.
//
//go:embed case-record.schema.json
var caseRecordSchema []byte

var (
	verOnce sync.Once
	ver     string
	verErr  error
)

// CaseRecordSchemaJSON returns the embedded canonical schema document.
func CaseRecordSchemaJSON() []byte {
	out := make([]byte, len(caseRecordSchema))
	copy(out, caseRecordSchema)
	return out
}

// CaseRecordSchemaVersion returns the version declared in the canonical
// schema document (source of truth: docs/schema/case-record.schema.json).
func CaseRecordSchemaVersion() (string, error) {
	verOnce.Do(func() {
		var doc versionDoc
		verErr = json.Unmarshal(caseRecordSchema, &doc)
		if verErr == nil {
			ver = doc.Version
		}
	})
	return ver, verErr
}
