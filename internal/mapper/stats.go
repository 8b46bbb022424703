package mapper

// Statistics summarizes one mapping run for reporting.
type Statistics struct {
	TotalSections       int     `json:"total_sections"`
	TotalMappings       int     `json:"total_mappings"`
	SectionsWithSources int     `json:"sections_with_sources"`
	AverageScore        float64 `json:"average_score"`
	MaxScore            float64 `json:"max_score"`
	MinScore            float64 `json:"min_score"`
	MappingCoverage     float64 `json:"mapping_coverage"`
}

// MappingStatistics computes summary statistics across all assignments in a
// mapping. With no assignments all score fields are zero.
func MappingStatistics(mapping Mapping) Statistics {
	stats := Statistics{TotalSections: len(mapping.Sections)}

	var sum float64
	first := true
	for _, sm := range mapping.Sections {
		if len(sm.Assignments) > 0 {
			stats.SectionsWithSources++
		}
		for _, a := range sm.Assignments {
			stats.TotalMappings++
			sum += a.Combined
			if first || a.Combined > stats.MaxScore {
				stats.MaxScore = a.Combined
			}
			if first || a.Combined < stats.MinScore {
				stats.MinScore = a.Combined
			}
			first = false
		}
	}

	if stats.TotalMappings > 0 {
		stats.AverageScore = sum / float64(stats.TotalMappings)
	}
	if stats.TotalSections > 0 {
		stats.MappingCoverage = float64(stats.SectionsWithSources) / float64(stats.TotalSections)
	}
	return stats
}
