package services

import (
	"vps-tracker/store"
	"vps-tracker/system"
)

// EnrichLocations backfills missing or unresolved locations for every
// record that has an IP. A location counts as resolved once it carries
// the 2-letter ISO prefix; legacy free-text values are re-resolved too.
// Runs on each list view; a failed lookup is left for the next view to
// retry. Returns the number of records updated.
func EnrichLocations(s *store.VPSStore, resolver LocationResolver) int {
	records, err := s.ListWithIP()
	if err != nil {
		system.Warn("Location enrichment skipped, store query failed: %v", err)
		return 0
	}

	updated := 0
	for _, v := range records {
		if v.IP == nil || *v.IP == "" {
			continue
		}
		if v.Location != nil && HasISOPrefix(*v.Location) {
			continue
		}
		loc, ok := resolver.Resolve(*v.IP)
		if !ok {
			continue
		}
		if v.Location != nil && *v.Location == loc {
			continue
		}
		if err := s.UpdateLocation(v.ID, &loc); err != nil {
			system.Warn("Failed to store location for record %d: %v", v.ID, err)
			continue
		}
		updated++
	}
	return updated
}
