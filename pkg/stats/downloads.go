package stats

// ApplyDownloadTotal folds a lifetime release-download total into the
// accumulated downloads counter. The releases API reports lifetime
// totals rather than deltas, so only growth over the previously
// recorded baseline accumulates; a shrinking total (a deleted release)
// moves the baseline without subtracting anything. Returns the delta
// applied.
func (d *Document) ApplyDownloadTotal(total int) int {
	delta := max(0, total-d.PreviousTotalDownloads)

	d.addTotal(MetricDownloads, delta)
	d.PreviousTotalDownloads = total

	return delta
}
