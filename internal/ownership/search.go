package ownership

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/nop"
	"golang.org/x/text/cases"
)

const (
	// MinPublicQuery is the shortest term accepted by the public search.
	MinPublicQuery = 3
	// PublicLimit caps the taxpayers returned by the public search.
	PublicLimit = 20
	// UnnamedTaxpayer labels bills whose owner has no name.
	UnnamedTaxpayer = "Tanpa Nama"
)

var (
	ErrQueryTooShort = fmt.Errorf("query must be at least %d characters", MinPublicQuery)
	ErrInvalidStatus = errors.New("status filter must be all, paid or unpaid")
)

// StatusFilter restricts search results by taxpayer payment state.
type StatusFilter string

const (
	FilterAll    StatusFilter = "all"
	FilterPaid   StatusFilter = "paid"
	FilterUnpaid StatusFilter = "unpaid"
)

// ParseStatusFilter parses a query parameter. Empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPaid, FilterUnpaid:
		return f, nil
	default:
		return "", ErrInvalidStatus
	}
}

// accepts reports whether a taxpayer passes the filter. A taxpayer is paid
// only when it owns objects and all of them are paid.
func (f StatusFilter) accepts(tp *models.Taxpayer) bool {
	switch f {
	case FilterPaid:
		return tp.FullyPaid()
	case FilterUnpaid:
		return !tp.FullyPaid()
	default:
		return true
	}
}

// Query selects taxpayers for the admin list.
type Query struct {
	Term   string
	Status StatusFilter
}

// Member is one taxpayer row of a search result.
type Member struct {
	MatchReasons []string        `json:"match_reasons"`
	WhatsAppLink string          `json:"whatsapp_link,omitempty"`
	Taxpayer     models.Taxpayer `json:"taxpayer"`
	Summary      Summary         `json:"summary"`
	// Direct is false for members shown only because a relative matched.
	Direct bool `json:"direct"`
}

// GroupResult is a household group with the members that passed the
// status filter. Totals cover the whole group.
type GroupResult struct {
	Members []Member `json:"members"`
	GroupSummary
}

// SearchResult is the admin list: groups first, then ungrouped taxpayers.
type SearchResult struct {
	Groups  []GroupResult `json:"groups"`
	Orphans []Member      `json:"orphans"`
	Matches int           `json:"matches"`
}

// matcher tests taxpayers against a search term. It is not safe for
// concurrent use.
type matcher struct {
	fold   cases.Caser
	term   string
	digits string
}

func newMatcher(term string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.term = m.fold.String(strings.TrimSpace(term))
	m.digits = nopDigits(term)
	return m
}

func (m *matcher) empty() bool {
	return m.term == ""
}

func (m *matcher) contains(s string) bool {
	return strings.Contains(m.fold.String(s), m.term)
}

func (m *matcher) containsPtr(s *string) bool {
	return s != nil && m.contains(*s)
}

// match reports whether the taxpayer matches the term and why. Name hits
// carry no reason; tax object hits name the field that matched.
func (m *matcher) match(tp *models.Taxpayer) ([]string, bool) {
	reasons := []string{}
	if m.empty() {
		return reasons, true
	}
	hit := m.contains(tp.Name)
	for i := range tp.TaxObjects {
		obj := &tp.TaxObjects[i]
		if m.digits != "" && strings.Contains(obj.NOP, m.digits) {
			reasons = append(reasons, "NOP: "+nop.Format(obj.NOP))
		}
		if m.containsPtr(obj.OriginalName) {
			reasons = append(reasons, "Ex: "+*obj.OriginalName)
		}
		if m.containsPtr(obj.Blok) {
			reasons = append(reasons, "Blok "+*obj.Blok)
		}
		if m.containsPtr(obj.Persil) {
			reasons = append(reasons, "Persil "+*obj.Persil)
		}
	}
	return reasons, hit || len(reasons) > 0
}

// nopDigits returns the digits of a term that looks like a NOP fragment:
// digits with optional dots, dashes and spaces. Anything else yields "".
func nopDigits(term string) string {
	term = strings.TrimSpace(term)
	for _, r := range term {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != ' ' {
			return ""
		}
	}
	return nop.Clean(term)
}

// Search returns the admin list view. A group is shown when any member
// matches; its other members are included as context when they pass the
// status filter.
func (b *Book) Search(q Query) SearchResult {
	if q.Status == "" {
		q.Status = FilterAll
	}
	m := newMatcher(q.Term)

	b.mu.RLock()
	defer b.mu.RUnlock()

	result := SearchResult{Groups: []GroupResult{}, Orphans: []Member{}}
	direct := make(map[uuid.UUID][]string)
	matchedGroups := make(map[string]bool)

	for i := range b.taxpayers {
		tp := &b.taxpayers[i]
		if !q.Status.accepts(tp) {
			continue
		}
		reasons, ok := m.match(tp)
		if !ok {
			continue
		}
		direct[tp.ID] = reasons
		result.Matches++
		if g := tp.Group(); g != "" {
			matchedGroups[g] = true
		} else {
			result.Orphans = append(result.Orphans, b.member(tp, reasons, true))
		}
	}

	ids := make([]string, 0, len(matchedGroups))
	for g := range matchedGroups {
		ids = append(ids, g)
	}
	sort.Slice(ids, func(i, j int) bool { return groupLess(ids[i], ids[j]) })

	for _, g := range ids {
		gs := b.groups[g]
		group := GroupResult{GroupSummary: *gs, Members: []Member{}}
		group.GroupSummary.Members = nil
		var related []Member
		for _, id := range gs.Members {
			tp := &b.taxpayers[b.positions[id]]
			if reasons, ok := direct[id]; ok {
				group.Members = append(group.Members, b.member(tp, reasons, true))
				continue
			}
			if q.Status.accepts(tp) {
				related = append(related, b.member(tp, []string{}, false))
			}
		}
		group.Members = append(group.Members, related...)
		result.Groups = append(result.Groups, group)
	}

	return result
}

func (b *Book) member(tp *models.Taxpayer, reasons []string, direct bool) Member {
	mem := Member{
		Taxpayer:     tp.Clone(),
		Summary:      b.summaries[tp.ID],
		MatchReasons: reasons,
		Direct:       direct,
	}
	if tp.WhatsApp != nil {
		mem.WhatsAppLink = WhatsAppLink(*tp.WhatsApp)
	}
	return mem
}

// groupLess orders group ids by their leading number, then lexically.
// Ids without a leading number sort after numbered ones.
func groupLess(a, b string) bool {
	na, okA := leadingNumber(a)
	nb, okB := leadingNumber(b)
	switch {
	case okA && okB && na != nb:
		return na < nb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

func leadingNumber(s string) (uint64, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PublicResult is one tax object row of the public lookup.
type PublicResult struct {
	OriginalName *string              `json:"original_name,omitempty"`
	Blok         *string              `json:"blok,omitempty"`
	Persil       *string              `json:"persil,omitempty"`
	Name         string               `json:"name"`
	Address      string               `json:"address"`
	NOP          string               `json:"nop"`
	Location     string               `json:"loc"`
	AmountLabel  string               `json:"amount_label"`
	Status       models.PaymentStatus `json:"status"`
	OtherOwners  []Owner              `json:"other_owners,omitempty"`
	Amount       int64                `json:"amount"`
	Year         int                  `json:"year"`
	ID           uuid.UUID            `json:"id"`
	TaxObjectID  uuid.UUID            `json:"tax_object_id"`
}

// PublicResults flattens the tax objects of up to PublicLimit matching
// taxpayers. Each row lists the other owners of a shared NOP.
func (b *Book) PublicResults(term string) ([]PublicResult, error) {
	if len([]rune(strings.TrimSpace(term))) < MinPublicQuery {
		return nil, ErrQueryTooShort
	}
	m := newMatcher(term)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []PublicResult{}
	found := 0
	for i := range b.taxpayers {
		if found == PublicLimit {
			break
		}
		tp := &b.taxpayers[i]
		if _, ok := m.match(tp); !ok {
			continue
		}
		found++
		for j := range tp.TaxObjects {
			obj := &tp.TaxObjects[j]
			row := PublicResult{
				ID:           tp.ID,
				TaxObjectID:  obj.ID,
				Name:         tp.Name,
				Address:      tp.Address,
				NOP:          obj.NOP,
				Location:     obj.LocationName,
				Year:         obj.Year,
				Amount:       obj.AmountDue,
				AmountLabel:  Rupiah(obj.AmountDue),
				Status:       obj.Status,
				OriginalName: obj.OriginalName,
				Blok:         obj.Blok,
				Persil:       obj.Persil,
			}
			if others := b.coOwners(obj.NOP, tp.ID); len(others) > 0 {
				for k := range others {
					if strings.TrimSpace(others[k].Address) == "" {
						others[k].Address = "-"
					}
				}
				row.OtherOwners = others
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// Bill is one row of the payment list.
type Bill struct {
	PaidAt      *time.Time           `json:"paid_at"`
	NOP         string               `json:"nop"`
	Name        string               `json:"name"`
	Location    string               `json:"location"`
	AmountLabel string               `json:"amount_label"`
	Status      models.PaymentStatus `json:"status"`
	Amount      int64                `json:"amount"`
	Year        int                  `json:"year"`
	CoOwners    int                  `json:"co_owners"`
	TaxObjectID uuid.UUID            `json:"id"`
	TaxpayerID  uuid.UUID            `json:"taxpayer_id"`
}

// Bills lists tax objects ordered by NOP. A non-empty term keeps rows whose
// owner name or NOP contains it.
func (b *Book) Bills(term string) []Bill {
	m := newMatcher(term)
	raw := strings.TrimSpace(term)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []Bill{}
	for i := range b.taxpayers {
		tp := &b.taxpayers[i]
		for j := range tp.TaxObjects {
			obj := &tp.TaxObjects[j]
			if !m.empty() && !m.contains(tp.Name) && !strings.Contains(obj.NOP, raw) &&
				(m.digits == "" || !strings.Contains(obj.NOP, m.digits)) {
				continue
			}
			name := tp.Name
			if strings.TrimSpace(name) == "" {
				name = UnnamedTaxpayer
			}
			var paidAt *time.Time
			if obj.PaidAt != nil {
				at := *obj.PaidAt
				paidAt = &at
			}
			out = append(out, Bill{
				TaxObjectID: obj.ID,
				TaxpayerID:  tp.ID,
				NOP:         obj.NOP,
				Name:        name,
				Location:    obj.LocationName,
				Year:        obj.Year,
				Amount:      obj.AmountDue,
				AmountLabel: Rupiah(obj.AmountDue),
				Status:      obj.Status,
				PaidAt:      paidAt,
				CoOwners:    len(b.owners[obj.NOP]) - 1,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NOP != out[j].NOP {
			return out[i].NOP < out[j].NOP
		}
		return out[i].Name < out[j].Name
	})
	return out
}
