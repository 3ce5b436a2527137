package ownership

import "math"

// DashboardStats aggregates the whole book for the admin dashboard.
type DashboardStats struct {
	TotalTarget    int64 `json:"total_target"`
	AmountPaid     int64 `json:"amount_paid"`
	AmountUnpaid   int64 `json:"amount_unpaid"`
	TaxpayerTotal  int   `json:"taxpayer_total"`
	TaxpayerPaid   int   `json:"taxpayer_paid"`
	TaxpayerUnpaid int   `json:"taxpayer_unpaid"`
	ObjectTotal    int   `json:"object_total"`
	ObjectPaid     int   `json:"object_paid"`
	ObjectUnpaid   int   `json:"object_unpaid"`
	SharedNOPs     int   `json:"shared_nops"`
	Groups         int   `json:"groups"`
	Percentage     int   `json:"percentage"`
}

// PublicStats is the collection progress shown on the public page.
type PublicStats struct {
	PaidLabel    string `json:"paid_label"`
	UnpaidLabel  string `json:"unpaid_label"`
	PaidAmount   int64  `json:"paid"`
	UnpaidAmount int64  `json:"unpaid"`
	PaidCount    int    `json:"paid_count"`
	Percentage   int    `json:"pct"`
}

// Stats computes dashboard totals. A taxpayer without tax objects counts
// as unpaid.
func (b *Book) Stats() DashboardStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var s DashboardStats
	s.TaxpayerTotal = len(b.taxpayers)
	s.Groups = len(b.groups)
	for i := range b.taxpayers {
		tp := &b.taxpayers[i]
		if tp.FullyPaid() {
			s.TaxpayerPaid++
		} else {
			s.TaxpayerUnpaid++
		}
		for j := range tp.TaxObjects {
			obj := &tp.TaxObjects[j]
			s.ObjectTotal++
			s.TotalTarget += obj.AmountDue
			if obj.Status.IsPaid() {
				s.ObjectPaid++
				s.AmountPaid += obj.AmountDue
			} else {
				s.ObjectUnpaid++
				s.AmountUnpaid += obj.AmountDue
			}
		}
	}
	for _, owners := range b.owners {
		if len(owners) > 1 {
			s.SharedNOPs++
		}
	}
	s.Percentage = percentage(s.AmountPaid, s.TotalTarget)
	return s
}

// PublicStats computes the public collection summary.
func (b *Book) PublicStats() PublicStats {
	s := b.Stats()
	return PublicStats{
		PaidLabel:    Rupiah(s.AmountPaid),
		UnpaidLabel:  Rupiah(s.AmountUnpaid),
		PaidAmount:   s.AmountPaid,
		UnpaidAmount: s.AmountUnpaid,
		PaidCount:    s.ObjectPaid,
		Percentage:   s.Percentage,
	}
}

// percentage returns paid as a rounded share of total, or 0 for an empty total.
func percentage(paid, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(paid) / float64(total) * 100))
}
