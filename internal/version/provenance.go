package version

// Provenance records where a version string came from. Ordering is only
// reliable between versions of the same provenance; a commit-hash-derived
// version has no meaningful order against a release tag or header version.
type Provenance string

const (
	ProvenanceUnknown Provenance = ""
	ProvenanceRelease Provenance = "release"
	ProvenanceHeader  Provenance = "header"
	ProvenanceCommit  Provenance = "commit"
)

// Tagged is a version string together with its provenance.
type Tagged struct {
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// Comparable reports whether ordering a against b is meaningful. Comparisons
// across provenances are fine as long as neither side is a commit hash;
// hash-derived versions only ever order against nothing (the sentinel).
func Comparable(a, b Tagged) bool {
	if a.Value == "" || b.Value == "" {
		return true
	}

	if a.Provenance == ProvenanceCommit || b.Provenance == ProvenanceCommit {
		return a.Provenance == b.Provenance
	}

	return true
}

// IsCommitHash reports whether s looks like an abbreviated or full commit SHA:
// 7 to 40 lowercase hex characters with no dots.
func IsCommitHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}

	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}

// Classify guesses the provenance of a bare version string. Used when reading
// versions persisted before provenance tracking existed.
func Classify(s string) Provenance {
	switch {
	case s == "":
		return ProvenanceUnknown
	case IsCommitHash(s) && !isAllDigits(s):
		return ProvenanceCommit
	default:
		return ProvenanceHeader
	}
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}
