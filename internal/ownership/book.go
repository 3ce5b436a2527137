// Package ownership derives billing views from the full taxpayer graph.
//
// A Book indexes every tax object by NOP to find parcels shared between
// taxpayers, summarizes what each taxpayer and household group owes, and
// serves the search, payment and statistics views. Group membership is
// read from the taxpayer's optional group id; there is no separate group
// record.
package ownership

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/models"
)

var (
	ErrTaxpayerNotFound  = errors.New("taxpayer not found")
	ErrTaxObjectNotFound = errors.New("tax object not found")
)

// Owner is one taxpayer's claim on a NOP.
type Owner struct {
	Name        string               `json:"name"`
	Address     string               `json:"address"`
	Status      models.PaymentStatus `json:"status"`
	Amount      int64                `json:"amount"`
	TaxpayerID  uuid.UUID            `json:"taxpayer_id"`
	TaxObjectID uuid.UUID            `json:"tax_object_id"`
}

// Summary is the billing total of one taxpayer. Amounts of shared NOPs are
// counted in full for every owner.
type Summary struct {
	SharedNOPs  []string `json:"shared_nops"`
	TotalDue    int64    `json:"total_due"`
	TotalUnpaid int64    `json:"total_unpaid"`
	ObjectCount int      `json:"object_count"`
	FullyPaid   bool     `json:"fully_paid"`
}

// GroupSummary is the billing total of a household group.
type GroupSummary struct {
	GroupID     string      `json:"group_id"`
	Members     []uuid.UUID `json:"-"`
	TotalDue    int64       `json:"total_due"`
	TotalUnpaid int64       `json:"total_unpaid"`
	MemberCount int         `json:"member_count"`
}

type objectRef struct {
	taxpayer int
	object   int
}

// Book is an indexed snapshot of all taxpayers and their tax objects.
// It is safe for concurrent use.
type Book struct {
	builtAt   time.Time
	taxpayers []models.Taxpayer
	positions map[uuid.UUID]int
	objects   map[uuid.UUID]objectRef
	owners    map[string][]Owner
	summaries map[uuid.UUID]Summary
	groups    map[string]*GroupSummary
	mu        sync.RWMutex
	// writeMu serializes Toggle and Remove.
	writeMu sync.Mutex
}

// Build indexes taxpayers. The slice is copied; list order is preserved
// wherever a view has no ordering of its own.
func Build(taxpayers []models.Taxpayer) *Book {
	b := &Book{
		builtAt:   time.Now(),
		taxpayers: make([]models.Taxpayer, len(taxpayers)),
	}
	for i := range taxpayers {
		b.taxpayers[i] = taxpayers[i].Clone()
	}
	b.reindex()
	return b
}

// reindex rebuilds every derived structure. Callers hold the write lock.
func (b *Book) reindex() {
	b.positions = make(map[uuid.UUID]int, len(b.taxpayers))
	b.objects = make(map[uuid.UUID]objectRef)
	b.owners = make(map[string][]Owner)
	b.summaries = make(map[uuid.UUID]Summary, len(b.taxpayers))
	b.groups = make(map[string]*GroupSummary)

	for i := range b.taxpayers {
		tp := &b.taxpayers[i]
		b.positions[tp.ID] = i
		for j := range tp.TaxObjects {
			obj := &tp.TaxObjects[j]
			b.objects[obj.ID] = objectRef{taxpayer: i, object: j}
			b.owners[obj.NOP] = append(b.owners[obj.NOP], ownerOf(tp, obj))
		}
		if g := tp.Group(); g != "" {
			gs, ok := b.groups[g]
			if !ok {
				gs = &GroupSummary{GroupID: g}
				b.groups[g] = gs
			}
			gs.Members = append(gs.Members, tp.ID)
		}
	}

	for i := range b.taxpayers {
		b.summaries[b.taxpayers[i].ID] = b.summarize(&b.taxpayers[i])
	}
	for g := range b.groups {
		b.summarizeGroup(g)
	}
}

// refresh recomputes the totals touched by a change to one taxpayer's
// tax object statuses or amounts. Callers hold the write lock.
func (b *Book) refresh(pos int) {
	tp := &b.taxpayers[pos]
	for j := range tp.TaxObjects {
		obj := &tp.TaxObjects[j]
		owners := b.owners[obj.NOP]
		for k := range owners {
			if owners[k].TaxObjectID == obj.ID {
				owners[k] = ownerOf(tp, obj)
			}
		}
	}
	b.summaries[tp.ID] = b.summarize(tp)
	if g := tp.Group(); g != "" {
		b.summarizeGroup(g)
	}
}

func (b *Book) summarize(tp *models.Taxpayer) Summary {
	s := Summary{
		ObjectCount: len(tp.TaxObjects),
		FullyPaid:   tp.FullyPaid(),
		SharedNOPs:  []string{},
	}
	seen := make(map[string]bool)
	for i := range tp.TaxObjects {
		obj := &tp.TaxObjects[i]
		s.TotalDue += obj.AmountDue
		if !obj.Status.IsPaid() {
			s.TotalUnpaid += obj.AmountDue
		}
		if len(b.owners[obj.NOP]) > 1 && !seen[obj.NOP] {
			seen[obj.NOP] = true
			s.SharedNOPs = append(s.SharedNOPs, obj.NOP)
		}
	}
	sort.Strings(s.SharedNOPs)
	return s
}

func (b *Book) summarizeGroup(g string) {
	gs := b.groups[g]
	gs.TotalDue, gs.TotalUnpaid = 0, 0
	gs.MemberCount = len(gs.Members)
	for _, id := range gs.Members {
		s := b.summaries[id]
		gs.TotalDue += s.TotalDue
		gs.TotalUnpaid += s.TotalUnpaid
	}
}

func ownerOf(tp *models.Taxpayer, obj *models.TaxObject) Owner {
	return Owner{
		TaxpayerID:  tp.ID,
		TaxObjectID: obj.ID,
		Name:        tp.Name,
		Address:     tp.Address,
		Amount:      obj.AmountDue,
		Status:      obj.Status,
	}
}

// BuiltAt returns when the book was built.
func (b *Book) BuiltAt() time.Time {
	return b.builtAt
}

// Len returns the number of taxpayers.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.taxpayers)
}

// Taxpayer returns a copy of the taxpayer with id.
func (b *Book) Taxpayer(id uuid.UUID) (models.Taxpayer, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.positions[id]
	if !ok {
		return models.Taxpayer{}, false
	}
	return b.taxpayers[pos].Clone(), true
}

// TaxObject returns a copy of the tax object with id.
func (b *Book) TaxObject(id uuid.UUID) (models.TaxObject, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ref, ok := b.objects[id]
	if !ok {
		return models.TaxObject{}, false
	}
	return b.taxpayers[ref.taxpayer].TaxObjects[ref.object].Clone(), true
}

// Summary returns the billing summary of a taxpayer.
func (b *Book) Summary(id uuid.UUID) (Summary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.summaries[id]
	return s, ok
}

// Group returns the summary of a household group.
func (b *Book) Group(groupID string) (GroupSummary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	gs, ok := b.groups[groupID]
	if !ok {
		return GroupSummary{}, false
	}
	out := *gs
	out.Members = append([]uuid.UUID(nil), gs.Members...)
	return out, true
}

// Owners returns every owner of a NOP in list order.
func (b *Book) Owners(nop string) []Owner {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Owner(nil), b.owners[nop]...)
}

// Shared reports whether more than one taxpayer owns the NOP.
func (b *Book) Shared(nop string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.owners[nop]) > 1
}

// SharedNOPs returns every shared NOP in ascending order.
func (b *Book) SharedNOPs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []string{}
	for n, owners := range b.owners {
		if len(owners) > 1 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// CoOwners returns the owners of a NOP other than the given taxpayer.
func (b *Book) CoOwners(nop string, exclude uuid.UUID) []Owner {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.coOwners(nop, exclude)
}

func (b *Book) coOwners(nop string, exclude uuid.UUID) []Owner {
	out := []Owner{}
	for _, o := range b.owners[nop] {
		if o.TaxpayerID != exclude {
			out = append(out, o)
		}
	}
	return out
}

// CombinedAmount sums the amount every owner of a NOP is billed.
func (b *Book) CombinedAmount(nop string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total int64
	for _, o := range b.owners[nop] {
		total += o.Amount
	}
	return total
}
