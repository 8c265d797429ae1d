package entity

import "sync"

// Dictionary interns time-series and attribute key names to small integer
// ids so per-entity maps stay compact and comparisons stay cheap. One
// dictionary is shared by all tenant repositories of a registry; ids are
// never reused within a process.
type Dictionary struct {
	mu    sync.RWMutex
	ids   map[string]int32
	names []string
}

// NewDictionary returns an empty dictionary. Ids start at 1; 0 means
// "not interned".
func NewDictionary() *Dictionary {
	return &Dictionary{ids: make(map[string]int32)}
}

// Intern returns the id for name, assigning a new one on first use.
func (d *Dictionary) Intern(name string) int32 {
	d.mu.RLock()
	id, ok := d.ids[name]
	d.mu.RUnlock()
	if ok {
		return id
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.ids[name]; ok {
		return id
	}
	d.names = append(d.names, name)
	id = int32(len(d.names))
	d.ids[name] = id
	return id
}

// Lookup returns the id for name without assigning one.
func (d *Dictionary) Lookup(name string) (int32, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.ids[name]
	return id, ok
}

// Name resolves an id back to its key name.
func (d *Dictionary) Name(id int32) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id < 1 || int(id) > len(d.names) {
		return "", false
	}
	return d.names[id-1], true
}

// Len returns the number of interned keys.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}
