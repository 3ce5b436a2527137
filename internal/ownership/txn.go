package ownership

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/models"
)

// Apply mutates target under lock, then runs commit with the lock
// released so readers see the new state while it is persisted. When
// commit fails target is restored to the snapshot taken before mutate ran.
// settle runs under lock after the mutation and again after a restore.
// Callers must serialize Apply calls on the same target.
func Apply[T any](
	lock sync.Locker,
	target *T,
	snapshot func(T) T,
	mutate func(*T),
	settle func(),
	commit func() error,
) error {
	lock.Lock()
	saved := snapshot(*target)
	mutate(target)
	settle()
	lock.Unlock()

	if err := commit(); err != nil {
		lock.Lock()
		*target = saved
		settle()
		lock.Unlock()
		return err
	}
	return nil
}

// Toggle flips the payment status of a tax object and persists it with
// write. The book shows the new status immediately; if write fails the
// previous status and totals are restored and the error is returned.
// Toggles and removals run one at a time; views stay readable meanwhile.
func (b *Book) Toggle(
	ctx context.Context,
	objectID uuid.UUID,
	now time.Time,
	write func(context.Context, models.TaxObject) error,
) (models.TaxObject, error) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.RLock()
	ref, ok := b.objects[objectID]
	b.mu.RUnlock()
	if !ok {
		return models.TaxObject{}, ErrTaxObjectNotFound
	}

	var updated models.TaxObject
	err := Apply(&b.mu, &b.taxpayers[ref.taxpayer], models.Taxpayer.Clone,
		func(tp *models.Taxpayer) {
			tp.TaxObjects[ref.object].Toggle(now)
			updated = tp.TaxObjects[ref.object].Clone()
		},
		func() { b.refresh(ref.taxpayer) },
		func() error { return write(ctx, updated) },
	)
	if err != nil {
		return models.TaxObject{}, err
	}
	return updated, nil
}

// Remove deletes a taxpayer and its tax objects from the book, persisting
// with write. Shared NOPs lose the removed owner. On failure the book is
// restored.
func (b *Book) Remove(ctx context.Context, taxpayerID uuid.UUID, write func(context.Context) error) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.RLock()
	pos, ok := b.positions[taxpayerID]
	b.mu.RUnlock()
	if !ok {
		return ErrTaxpayerNotFound
	}

	return Apply(&b.mu, &b.taxpayers, cloneTaxpayers,
		func(list *[]models.Taxpayer) {
			*list = append((*list)[:pos:pos], (*list)[pos+1:]...)
		},
		b.reindex,
		func() error { return write(ctx) },
	)
}

func cloneTaxpayers(list []models.Taxpayer) []models.Taxpayer {
	return append([]models.Taxpayer(nil), list...)
}
