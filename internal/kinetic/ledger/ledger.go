package ledger

import (
	"fmt"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

// Clinic returns a copy of the clinic's current state.
func (b *Book) Clinic(id string) (types.Clinic, bool) {
	c, ok := b.clinics[id]
	if !ok {
		return types.Clinic{}, false
	}
	return *c, true
}

// Clinics returns copies of all clinics in directory order.
func (b *Book) Clinics() []types.Clinic {
	ids := b.dir.ClinicIDs()
	out := make([]types.Clinic, 0, len(ids))
	for _, id := range ids {
		if c, ok := b.clinics[id]; ok {
			out = append(out, *c)
		}
	}
	return out
}

// Transfer moves amount credits from one clinic to another. Both sides are
// updated before it returns. Callers must have checked that from can afford
// the amount: a violated precondition leaves the book untouched and returns
// an error wrapping ErrInvariantViolation.
func (b *Book) Transfer(fromID, toID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: transfer amount %d must be positive", ErrInvariantViolation, amount)
	}
	if fromID == toID {
		return fmt.Errorf("%w: transfer from %s to itself", ErrInvariantViolation, fromID)
	}
	from, ok := b.clinics[fromID]
	if !ok {
		return fmt.Errorf("%w: transfer from unknown clinic %s", ErrInvariantViolation, fromID)
	}
	to, ok := b.clinics[toID]
	if !ok {
		return fmt.Errorf("%w: transfer to unknown clinic %s", ErrInvariantViolation, toID)
	}
	if from.Credits < amount {
		return fmt.Errorf("%w: %s has %d credits, transfer needs %d",
			ErrInvariantViolation, fromID, from.Credits, amount)
	}

	from.Credits -= amount
	to.Credits += amount
	return nil
}

// SetOptIn sets a clinic's participation flag. The OPT audit entry belongs
// to the caller.
func (b *Book) SetOptIn(clinicID string, v bool) error {
	c, ok := b.clinics[clinicID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClinic, clinicID)
	}
	c.OptedIn = v
	return nil
}

func (b *Book) NoteShared(clinicID string) error {
	c, ok := b.clinics[clinicID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClinic, clinicID)
	}
	c.ReportsShared++
	return nil
}

func (b *Book) NoteViewed(clinicID string) error {
	c, ok := b.clinics[clinicID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClinic, clinicID)
	}
	c.ReportsViewed++
	return nil
}

// TotalCredits sums all balances. Transfers never change it.
func (b *Book) TotalCredits() int {
	total := 0
	for _, c := range b.clinics {
		total += c.Credits
	}
	return total
}
