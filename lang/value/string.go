package value

// ObjString is an immutable interned byte string. Two ObjStrings with equal
// contents are always the same object: construction always goes through the
// heap's intern table.
type ObjString struct {
	header
	Chars string
	Hash  uint32
}

var _ Obj = (*ObjString)(nil)

func (s *ObjString) size() uintptr { return uintptr(16 + len(s.Chars)) }

// hashString computes the FNV-1a hash used to key the intern table, matching
// the constants clox's table.h uses for its string hashing.
func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
