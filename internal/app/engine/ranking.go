// internal/app/engine/ranking.go
package engine

import (
	"sort"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/geo"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/blood"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// rankCandidates scores the geospatially-filtered candidate pool against the
// requested blood type and returns the top matches.
//
// Incompatible donors are rejected outright. Survivors are ordered by
// descending compatibility score, then ascending distance (donors with no
// known distance sort last among equals), then by incoming search order,
// and truncated to maxMatches.
func rankCandidates(requestType string, target *models.GeoPoint, candidates []models.User, maxMatches int) []models.Match {
	matches := make([]models.Match, 0, len(candidates))
	for _, donor := range candidates {
		if !blood.IsCompatible(donor.BloodType, requestType) {
			continue
		}
		m := models.Match{
			DonorID: donor.ID,
			Score:   blood.Score(donor.BloodType, requestType),
			Status:  models.MatchNotified,
		}
		if target.Valid() && donor.Location.Valid() {
			km := geo.HaversineKm(target.Lng(), target.Lat(), donor.Location.Lng(), donor.Location.Lat())
			m.DistanceKm = &km
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		di, dj := matches[i].DistanceKm, matches[j].DistanceKm
		switch {
		case di != nil && dj != nil:
			return *di < *dj
		case di != nil:
			return true // known distance outranks unknown
		default:
			return false
		}
	})

	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}
