package aggregate

import "survey/pkg/records"

// Spec configures a grouped aggregation.
type Spec struct {
	// Key is the grouping column, e.g. "Country".
	Key string
	// KeyLabel is the output header for Key; defaults to Key.
	KeyLabel string
	// Companion is an optional numeric column averaged per key, e.g. "Age".
	Companion string
	// AverageLabel is the header of the mean column; defaults to
	// "Average " + Companion.
	AverageLabel string
	// CompanionLabel is the header of the companion frequency table; defaults
	// to Companion.
	CompanionLabel string

	// GroupOutput names the count (or joined) table; default "countries_age"
	// with a companion, "countries" without.
	GroupOutput string
	// CompanionOutput names the companion frequency table; default "dev_age".
	CompanionOutput string
}

// Summary is the result of Summarize.
type Summary struct {
	Counts          CountTable
	Joined          []Joined
	CompanionCounts CountTable
	// Tables holds the output views: the joined table when a companion is
	// configured (else the plain count table), then the companion table.
	Tables []records.Table
}

// Summarize computes the per-key count table, and, when a companion column is
// configured, the joined {key, Count, Average} table and the companion's own
// frequency table.
func Summarize(rs records.RecordSet, s Spec) (Summary, error) {
	keyLabel := s.KeyLabel
	if keyLabel == "" {
		keyLabel = s.Key
	}

	counts, err := CountBy(rs, s.Key)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Counts: counts}

	if s.Companion == "" {
		name := s.GroupOutput
		if name == "" {
			name = "countries"
		}
		sum.Tables = append(sum.Tables, counts.Table(name, keyLabel))
		return sum, nil
	}

	means, err := MeanBy(rs, s.Key, s.Companion)
	if err != nil {
		return Summary{}, err
	}
	joined, err := JoinCountMean(counts, means)
	if err != nil {
		return Summary{}, err
	}
	sum.Joined = joined

	avgLabel := s.AverageLabel
	if avgLabel == "" {
		avgLabel = "Average " + s.Companion
	}
	name := s.GroupOutput
	if name == "" {
		name = "countries_age"
	}
	jt := records.Table{Name: name, Columns: []string{keyLabel, "Count", avgLabel}, Rows: make([][]any, 0, len(joined))}
	for _, j := range joined {
		jt.Rows = append(jt.Rows, []any{j.Key, j.Count, j.Average})
	}
	sum.Tables = append(sum.Tables, jt)

	compCounts, err := CountBy(rs, s.Companion)
	if err != nil {
		return Summary{}, err
	}
	sum.CompanionCounts = compCounts
	compLabel := s.CompanionLabel
	if compLabel == "" {
		compLabel = s.Companion
	}
	compName := s.CompanionOutput
	if compName == "" {
		compName = "dev_age"
	}
	sum.Tables = append(sum.Tables, compCounts.Table(compName, compLabel))
	return sum, nil
}
