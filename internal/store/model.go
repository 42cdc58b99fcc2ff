package store

import (
	"time"

	"gorm.io/datatypes"
)

// cachedCodeBlock is the gorm model backing one cached
// internal/compiler.CodeBlock, keyed by its source's SHA-256. SourceMap
// (pc -> source-byte-offset, used only for stack traces and the
// `disasm` CLI) is stored as its own JSON column rather than folded
// into Payload, mirroring the teacher's models.Match.ScopeAST /
// ClientInfo `datatypes.JSON` columns for structured-but-schemaless
// side data next to a primary binary/text payload.
type cachedCodeBlock struct {
	Hash       string `gorm:"primaryKey;size:64"`
	Name       string
	Encrypted  bool
	Payload    []byte             `gorm:"type:blob"`
	SourceMap  datatypes.JSON     `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (cachedCodeBlock) TableName() string { return "code_blocks" }
