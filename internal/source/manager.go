package source

import (
	"os"
	"sort"
)

// FileID identifies a file registered with a Manager.
type FileID uint32

// fileEntry holds the content of one registered file plus its line index.
type fileEntry struct {
	filename    string
	content     string
	lineOffsets []uint32 // byte offset of the start of each line
}

// Manager owns the content of all source files for one compilation.
// Files are registered once and referenced by FileID; positions are
// recovered from byte offsets via a precomputed line-start index.
type Manager struct {
	files []fileEntry
}

// NewManager creates an empty source manager.
func NewManager() *Manager {
	return &Manager{}
}

// LoadFile reads the file at path and registers its content.
func (m *Manager) LoadFile(path string) (FileID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return m.LoadString(path, string(data)), nil
}

// LoadString registers an in-memory named string as a source file.
func (m *Manager) LoadString(name, content string) FileID {
	entry := fileEntry{filename: name, content: content}
	entry.lineOffsets = computeLineOffsets(content)
	m.files = append(m.files, entry)
	return FileID(len(m.files) - 1)
}

// Content returns the content of the file with the given id.
// Returns "" for an unknown id.
func (m *Manager) Content(id FileID) string {
	if int(id) >= len(m.files) {
		return ""
	}
	return m.files[id].content
}

// Filename returns the name of the file with the given id.
// Returns "" for an unknown id.
func (m *Manager) Filename(id FileID) string {
	if int(id) >= len(m.files) {
		return ""
	}
	return m.files[id].filename
}

// Location converts a (file id, byte offset) pair to a full position using
// binary search on the line-start index. An offset equal to the content
// length maps to the end-of-file position; offsets beyond that are invalid.
func (m *Manager) Location(id FileID, offset uint32) Pos {
	if int(id) >= len(m.files) {
		return NoPos
	}
	entry := &m.files[id]
	if offset > uint32(len(entry.content)) {
		return NoPos
	}

	// Find the last line start <= offset.
	offsets := entry.lineOffsets
	line := sort.Search(len(offsets), func(i int) bool {
		return offsets[i] > offset
	}) - 1

	col := offset - offsets[line] + 1
	return NewPos(entry.filename, uint32(line)+1, col, offset)
}

// computeLineOffsets returns the byte offset of the start of each line.
func computeLineOffsets(content string) []uint32 {
	offsets := []uint32{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, uint32(i)+1)
		}
	}
	return offsets
}
