package clouddns

// diffRecords computes the minimal additions/deletions between the records
// a caller wants present and the records it wants gone. Any record that
// appears (by full structural equality) in both sets cancels out and is
// dropped from both, so re-submitting an unchanged record is a no-op.
// Order of the survivors is preserved. Cancellation is pairwise: a record
// listed twice on one side needs two matches on the other to vanish.
//
// Both result slices empty means "no change"; callers treat that as a
// terminal success with no submission, never as an error.
func diffRecords(toAdd, toRemove []Record) (additions, deletions []Record) {
	addCanceled := make([]bool, len(toAdd))
	removeCanceled := make([]bool, len(toRemove))
	for i, a := range toAdd {
		for j, r := range toRemove {
			if !removeCanceled[j] && a.Equal(r) {
				addCanceled[i] = true
				removeCanceled[j] = true
				break
			}
		}
	}
	for i, a := range toAdd {
		if !addCanceled[i] {
			additions = append(additions, a)
		}
	}
	for j, r := range toRemove {
		if !removeCanceled[j] {
			deletions = append(deletions, r)
		}
	}
	return additions, deletions
}
