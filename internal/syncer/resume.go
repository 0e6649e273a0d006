package syncer

// SplitNew partitions candidate ids into new vs already-stored, given the
// existence set reported by storage. Order of candidates is preserved in the
// new slice so upserts happen in the order received.
func SplitNew(candidates []string, existing map[string]bool) (newIDs, duplicateIDs []string) {
	for _, id := range candidates {
		if existing[id] {
			duplicateIDs = append(duplicateIDs, id)
		} else {
			newIDs = append(newIDs, id)
		}
	}
	return newIDs, duplicateIDs
}

// ComputeResumePage estimates the first page a restarted run should fetch
// from the stored row count. The estimate is approximate: partial pages and
// out-of-order writes can make it revisit or skip records, so the dedup
// check remains the real guard against duplicate writes.
func ComputeResumePage(storedCount, pageSize int) int {
	if pageSize <= 0 || storedCount <= 0 {
		return 1
	}
	return storedCount/pageSize + 1
}

// resumeStart picks the start page for a resumed run: the count-derived
// estimate, clamped down to the last checkpointed page so a crash between
// checkpoint and write never skips territory.
func resumeStart(storedCount, pageSize, lastPageProcessed int) int {
	estimate := ComputeResumePage(storedCount, pageSize)
	if lastPageProcessed > 0 && lastPageProcessed+1 < estimate {
		return lastPageProcessed + 1
	}
	return estimate
}
