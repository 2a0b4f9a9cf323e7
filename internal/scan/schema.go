package scan

// Separator is the field delimiter of all supported log formats.
const Separator = '|'

// Schema maps a log kind to the zero-based field indices of the source IP
// and domain columns in a pipe-delimited record. The native indices are a
// data-shape assumption about the upstream log format, not derived from
// any documentation.
type Schema struct {
	Name        string
	IPField     int
	DomainField int
}

var (
	// Aggregated is the consolidated log population: IP first, domain
	// second.
	Aggregated = Schema{Name: "aggregated", IPField: 0, DomainField: 1}

	// Native is the upstream raw log population.
	Native = Schema{Name: "native", IPField: 4, DomainField: 7}
)
