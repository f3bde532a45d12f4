package dedupe

import (
	"sort"

	"github.com/google/uuid"

	"github.com/winnerlabs/leadminer/internal/model"
)

// Collection accumulates unique leads keyed by identity. It is owned by a
// single extraction run and never shared; merge order alone determines the
// outcome, so results are reproducible for the same candidate sequence.
type Collection struct {
	rescore func(model.Lead) int
	index   map[string]int
	leads   []model.Lead
}

// NewCollection creates an empty collection. rescore recomputes a lead's
// score after field-level enrichment.
func NewCollection(rescore func(model.Lead) int) *Collection {
	return &Collection{
		rescore: rescore,
		index:   make(map[string]int),
	}
}

// Add merges one scored candidate into the collection.
//
// On first observation of an identity key the candidate is inserted with a
// freshly generated identifier. On a key collision a strictly higher-scoring
// candidate replaces the record's fields (the generated identifier survives
// so UI references stay stable); otherwise the candidate only fills fields
// the record is missing, and the record is rescored.
func (c *Collection) Add(cand model.Lead) {
	key := Key(cand)

	i, seen := c.index[key]
	if !seen {
		cand.ID = uuid.NewString()
		c.index[key] = len(c.leads)
		c.leads = append(c.leads, cand)
		return
	}

	existing := &c.leads[i]
	if cand.Score > existing.Score {
		id := existing.ID
		*existing = cand
		existing.ID = id
		return
	}

	if enrich(existing, cand) {
		existing.Score = c.rescore(*existing)
	}
}

// AddAll merges candidates in order.
func (c *Collection) AddAll(cands []model.Lead) {
	for _, cand := range cands {
		c.Add(cand)
	}
}

// Len returns the number of unique leads.
func (c *Collection) Len() int {
	return len(c.leads)
}

// Leads returns the unique leads sorted by descending score. Ties keep
// insertion order (stable sort), so partial renders and the final list
// agree on equal-score ordering.
func (c *Collection) Leads() []model.Lead {
	out := make([]model.Lead, len(c.leads))
	copy(out, c.leads)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// enrich copies candidate values into fields where the existing record
// holds the sentinel. Populated fields are never overwritten. Reports
// whether anything changed.
func enrich(dst *model.Lead, src model.Lead) bool {
	pairs := []struct {
		dst *string
		src string
	}{
		{&dst.CNPJ, src.CNPJ},
		{&dst.Phone, src.Phone},
		{&dst.Email, src.Email},
		{&dst.Address, src.Address},
		{&dst.Rating, src.Rating},
		{&dst.Website, src.Website},
		{&dst.Instagram, src.Instagram},
		{&dst.Facebook, src.Facebook},
	}

	changed := false
	for _, p := range pairs {
		if !model.Has(*p.dst) && model.Has(p.src) {
			*p.dst = p.src
			changed = true
		}
	}
	return changed
}
