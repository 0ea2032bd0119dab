package entity

import "sort"

// Diff counts what a Reconcile call did.
type Diff struct {
	Added, Updated, Removed int
}

// Changed reports whether membership changed.
func (d Diff) Changed() bool { return d.Added > 0 || d.Removed > 0 }

// Add accumulates another diff.
func (d *Diff) Add(o Diff) {
	d.Added += o.Added
	d.Updated += o.Updated
	d.Removed += o.Removed
}

// Store maps (kind, id) to records. It is not safe for concurrent use.
type Store struct {
	kinds map[Kind]map[string]*Record
}

func NewStore() *Store {
	return &Store{kinds: make(map[Kind]map[string]*Record)}
}

// Reconcile makes the records of kind match payload exactly. Records whose
// id is in both keep their identity and cache and have every field replaced;
// new ids are inserted; ids missing from payload are removed. Other kinds
// are untouched.
func (s *Store) Reconcile(kind Kind, payload map[string]Fields) Diff {
	var d Diff
	cur := s.kinds[kind]
	if cur == nil {
		cur = make(map[string]*Record, len(payload))
		s.kinds[kind] = cur
	}
	for id := range cur {
		if _, ok := payload[id]; !ok {
			delete(cur, id)
			d.Removed++
		}
	}
	for id, f := range payload {
		if rec, ok := cur[id]; ok {
			rec.Fields = f
			d.Updated++
			continue
		}
		cur[id] = &Record{ID: id, Kind: kind, Fields: f, cache: &Cache{}}
		d.Added++
	}
	return d
}

// Get returns a copy of the record with the given kind and id.
func (s *Store) Get(kind Kind, id string) (Record, bool) {
	rec, ok := s.kinds[kind][id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Len is the total number of records.
func (s *Store) Len() int {
	n := 0
	for _, m := range s.kinds {
		n += len(m)
	}
	return n
}

// LenKind is the number of records of one kind.
func (s *Store) LenKind(kind Kind) int { return len(s.kinds[kind]) }

// IDs returns the sorted ids of one kind.
func (s *Store) IDs(kind Kind) []string {
	ids := make([]string, 0, len(s.kinds[kind]))
	for id := range s.kinds[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records copies every record in AllKinds order; order within a kind is
// unspecified.
func (s *Store) Records() []Record {
	out := make([]Record, 0, s.Len())
	for _, k := range AllKinds {
		for _, rec := range s.kinds[k] {
			out = append(out, *rec)
		}
	}
	return out
}

// Kinds lists the kinds that have ever been reconciled.
func (s *Store) Kinds() []Kind {
	var out []Kind
	for _, k := range AllKinds {
		if _, ok := s.kinds[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
