package cardcsv

// DefaultPreviewRows is the sample size shown before an import.
const DefaultPreviewRows = 5

// Preview returns the first n rows. The returned slice shares backing
// storage with rows and must not be appended to.
func Preview(rows []Row, n int) []Row {
	if n <= 0 {
		return []Row{}
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n:n]
}
