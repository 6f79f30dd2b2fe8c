// Package catalog filters the account snapshot's mission lists into the
// subsets the driver works on.
package catalog

import (
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/prognt/TapSwapBot/internal/model"
)

// CinemaMissions returns the missions from the server catalog whose derived
// ordinal marks them as cinema missions.
func CinemaMissions(data *model.AccountData) []model.Mission {
	cut := viper.GetInt("missions.cinemaMinOrdinal")

	var missions []model.Mission
	for _, m := range data.Conf.Missions {
		if m.Num() >= cut {
			missions = append(missions, m)
		}
	}
	return missions
}

// VisibleCinemaMissions returns the cinema missions the account has not yet
// completed, most recent first, capped to the configured count. Undated
// missions key as a single captured "now", sorting as most recent.
func VisibleCinemaMissions(data *model.AccountData) []model.Mission {
	completed := make(map[string]struct{}, len(data.Account.Missions.Completed))
	for _, id := range data.Account.Missions.Completed {
		completed[id] = struct{}{}
	}

	var actual []model.Mission
	for _, m := range CinemaMissions(data) {
		if _, done := completed[m.ID]; !done {
			actual = append(actual, m)
		}
	}

	now := time.Now()
	slices.SortStableFunc(actual, func(a, b model.Mission) int {
		return b.StartOr(now).Compare(a.StartOr(now))
	})

	if limit := viper.GetInt("missions.maxVisible"); len(actual) > limit {
		actual = actual[:limit]
	}
	return actual
}

// ActiveMissions maps the account's joined missions by id.
func ActiveMissions(data *model.AccountData) map[string]model.ActiveMission {
	active := make(map[string]model.ActiveMission, len(data.Account.Missions.Active))
	for _, m := range data.Account.Missions.Active {
		active[m.ID] = m
	}
	return active
}
