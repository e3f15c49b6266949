package value

const tableMaxLoad = 0.6

type tableEntry struct {
	key   *ObjString // nil key marks an empty slot or, combined with a true boolean value, a tombstone
	value Value
}

// Table is an open-addressed hash table with linear probing, power-of-two
// capacities, and tombstone-marked deletions, keyed exclusively by interned
// strings (so key equality is pointer identity). It backs globals, object
// fields, class method tables, and the heap's string intern set.
type Table struct {
	count   int // live entries plus tombstones
	entries []tableEntry
}

// Count returns the number of live (non-tombstone) entries.
func (t *Table) Count() int {
	live := 0
	for _, e := range t.entries {
		if e.key != nil {
			live++
		}
	}
	return live
}

func (t *Table) findEntry(entries []tableEntry, key *ObjString) int {
	capacity := len(entries)
	index := int(key.Hash) & (capacity - 1)
	var tombstone = -1
	for {
		e := &entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				// truly empty slot
				if tombstone != -1 {
					return tombstone
				}
				return index
			}
			// tombstone
			if tombstone == -1 {
				tombstone = index
			}
		} else if e.key == key {
			return index
		}
		index = (index + 1) & (capacity - 1)
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]tableEntry, capacity)
	for i := range entries {
		entries[i] = tableEntry{key: nil, value: Nil}
	}

	liveCount := 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dest := t.findEntry(entries, e.key)
		entries[dest] = e
		liveCount++
	}
	t.entries = entries
	t.count = liveCount
}

// Get looks up key and reports whether it was found.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set inserts or updates key's value, growing the table first if the load
// factor would exceed tableMaxLoad. It reports whether key was not already
// present.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		capacity := growCapacity(len(t.entries))
		t.adjustCapacity(capacity)
	}

	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	isNew := e.key == nil
	if isNew && e.value.IsNil() {
		t.count++
	}
	e.key = key
	e.value = value
	return isNew
}

// Delete removes key, leaving a tombstone behind so existing probe chains
// stay intact.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true)
	return true
}

// AddAll copies every live entry of src into t, used to implement class
// inheritance (copying a superclass's method table into the subclass).
func (t *Table) AddAll(src *Table) {
	for _, e := range src.entries {
		if e.key != nil {
			t.Set(e.key, e.value)
		}
	}
}

// FindString searches for an interned string with the given contents and
// hash without allocating a new ObjString, so that Heap.InternString can
// return the canonical interned instance.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := len(t.entries)
	index := int(hash) & (capacity - 1)
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) & (capacity - 1)
	}
}

// ForEach calls fn for every live entry in the table. It is used by the VM
// to mark the globals table and by class method/instance field tables when
// a caller outside this package needs to walk live entries (the collector's
// own markTable has direct field access and does not use this).
func (t *Table) ForEach(fn func(key *ObjString, v Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}

// removeWhite deletes every key from the table whose mark bit is clear. It
// is used exactly once per collection cycle, on the heap's string intern
// table, so that the collector cannot resurrect a dead string by finding it
// still present in the global intern set.
func (t *Table) removeWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked() {
			e.key = nil
			e.value = Bool(true)
		}
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
