package model

// KnownSet is the ordered, id-unique collection of listings already notified
// about. Construct it with NewKnownSet; the zero value is not usable.
type KnownSet struct {
	items []Listing
	index map[string]struct{}
}

// NewKnownSet builds a set from persisted items. Later duplicates of an id
// are dropped so a set is always unique even if the stored data is not.
func NewKnownSet(items []Listing) *KnownSet {
	ks := &KnownSet{
		items: make([]Listing, 0, len(items)),
		index: make(map[string]struct{}, len(items)),
	}
	for _, item := range items {
		ks.Add(item)
	}
	return ks
}

func (k *KnownSet) Has(id string) bool {
	_, ok := k.index[id]
	return ok
}

// Add appends the listing unless its id is already present.
func (k *KnownSet) Add(item Listing) bool {
	if k.Has(item.ID) {
		return false
	}
	k.index[item.ID] = struct{}{}
	k.items = append(k.items, item)
	return true
}

// Merge adds every listing in items and returns how many were new.
func (k *KnownSet) Merge(items []Listing) int {
	added := 0
	for _, item := range items {
		if k.Add(item) {
			added++
		}
	}
	return added
}

func (k *KnownSet) Len() int {
	return len(k.items)
}

// Items returns a copy of the listings in insertion order.
func (k *KnownSet) Items() []Listing {
	out := make([]Listing, len(k.items))
	copy(out, k.items)
	return out
}

// DiffNew returns the listings of current whose id is not in known, in the
// order they appear in current. When current repeats an id, the first
// occurrence wins. known is not modified.
func DiffNew(current []Listing, known *KnownSet) []Listing {
	seen := make(map[string]struct{})
	var out []Listing
	for _, item := range current {
		if known != nil && known.Has(item.ID) {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
