package version

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want Result
	}{
		{"1.0.0", "1.0.0", Equal},
		{"1.0", "1.0.0", Equal},
		{"1", "1.0.0", Equal},
		{"1.0.1", "1.0.0", Greater},
		{"1.0.0", "1.0.1", Less},
		{"2.0.0", "1.9.9", Greater},
		// numeric, not lexical, segment comparison
		{"1.9.0", "1.10.0", Less},
		{"1.10.0", "1.9.0", Greater},
		{"0.10", "0.2", Greater},
		// empty string is the lowest version
		{"", "", Equal},
		{"", "0.0.1", Less},
		{"1.0.0", "", Greater},
		// non-numeric segments compare lexically
		{"1.0.beta", "1.0.alpha", Greater},
		{"1.0.alpha", "1.0.1", Greater}, // "alpha" vs "1" is lexical
		// sentinel is lower than any real version
		{"0.0.0", "0.0.1", Less},
	}

	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareAntisymmetric(t *testing.T) {
	versions := []string{"", "0.0.0", "1.0", "1.0.0", "1.2.3", "1.10.0", "1.9.0", "2", "2.0.0-rc1", "abc1234"}

	for _, a := range versions {
		for _, b := range versions {
			ab := Compare(a, b)
			ba := Compare(b, a)

			if ab != -ba {
				t.Errorf("Compare(%q, %q) = %v but Compare(%q, %q) = %v", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestCompareTransitive(t *testing.T) {
	versions := []string{"", "0.0.0", "0.1", "1.0.0", "1.2", "1.2.3", "1.10.0", "2.0.0", "3"}

	for _, a := range versions {
		for _, b := range versions {
			for _, c := range versions {
				if Compare(a, b) == Less && Compare(b, c) == Less && Compare(a, c) != Less {
					t.Errorf("transitivity violated: %q < %q < %q but Compare(%q, %q) = %v",
						a, b, c, a, c, Compare(a, c))
				}
			}
		}
	}
}

func TestIsUpdateAvailable(t *testing.T) {
	if !IsUpdateAvailable("1.1.0", "1.0.0") {
		t.Error("expected update for 1.1.0 over 1.0.0")
	}

	if IsUpdateAvailable("1.0.0", "1.0.0") {
		t.Error("equal versions must never report an update")
	}

	if IsUpdateAvailable("1.0.0", "1.1.0") {
		t.Error("older remote must never report an update")
	}
}

func TestIsCommitHash(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"abc1234", true},
		{"deadbeefcafe", true},
		{"0123456789abcdef0123456789abcdef01234567", true},
		{"1.2.3", false},
		{"abc123", false},  // too short
		{"ABC1234", false}, // uppercase is not a git abbreviation
		{"xyz1234", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCommitHash(tt.s); got != tt.want {
			t.Errorf("IsCommitHash(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestComparable(t *testing.T) {
	release := Tagged{Value: "2.0.0", Provenance: ProvenanceRelease}
	header := Tagged{Value: "1.2.3", Provenance: ProvenanceHeader}
	commit := Tagged{Value: "abc1234", Provenance: ProvenanceCommit}
	commit2 := Tagged{Value: "def5678", Provenance: ProvenanceCommit}
	empty := Tagged{}

	if !Comparable(release, header) {
		t.Error("release vs header should be comparable")
	}

	if Comparable(release, commit) {
		t.Error("release vs commit hash must not be comparable")
	}

	if !Comparable(commit, commit2) {
		t.Error("commit vs commit is comparable (equality only, but not refused)")
	}

	if !Comparable(commit, empty) {
		t.Error("anything is comparable against the empty version")
	}
}
