package ledger

import "github.com/BrandonDHaskell/kinetic/internal/kinetic/types"

func (b *Book) IsUnlocked(viewerID, reportID string) bool {
	_, ok := b.unlocks[unlockKey{viewer: viewerID, report: reportID}]
	return ok
}

// Unlock records that viewerID has paid for reportID. It reports whether a
// new record was inserted; repeating a pair is a no-op.
func (b *Book) Unlock(viewerID, reportID string) bool {
	k := unlockKey{viewer: viewerID, report: reportID}
	if _, ok := b.unlocks[k]; ok {
		return false
	}
	b.unlocks[k] = struct{}{}
	b.unlockOrder = append(b.unlockOrder, types.UnlockRecord{ViewerClinicID: viewerID, ReportID: reportID})
	return true
}

func (b *Book) Unlocks() []types.UnlockRecord {
	out := make([]types.UnlockRecord, len(b.unlockOrder))
	copy(out, b.unlockOrder)
	return out
}
