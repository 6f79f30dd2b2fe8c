package model

import (
	"strconv"
	"strings"
	"time"
)

/////////////////////
// WIRE STRUCTURES //
/////////////////////

// MissionItem is the static definition of one step inside a mission.
type MissionItem struct {
	Name          string `json:"name"`
	RequireAnswer bool   `json:"require_answer"`
	Title         string `json:"title,omitempty"`
	// WaitDuration is the cooldown in seconds the server enforces between
	// starting the item and accepting its verification.
	WaitDuration int `json:"wait_duration_s,omitempty"`
}

// Mission is a static, server-defined task composed of ordered items.
type Mission struct {
	ID      string        `json:"id"`
	Title   string        `json:"title,omitempty"`
	Reward  int           `json:"reward,omitempty"`
	Items   []MissionItem `json:"items"`
	StartAt Timestamp     `json:"start_at,omitempty"`
}

// Num derives the numeric ordinal from the "M<number>" mission id.
// Malformed ids yield 0, which no category cut matches.
func (m Mission) Num() int {
	n, err := strconv.Atoi(strings.TrimPrefix(m.ID, "M"))
	if err != nil {
		return 0
	}
	return n
}

// StartOr returns the mission start time, or fallback when the mission is
// undated. Callers sorting several missions must capture the fallback once
// and reuse it so undated entries share a single sort key.
func (m Mission) StartOr(fallback time.Time) time.Time {
	if m.StartAt.IsZero() {
		return fallback
	}
	return m.StartAt.Time
}

// ActiveMissionItem is the account's live progress for one mission item.
type ActiveMissionItem struct {
	Type       string    `json:"type"`
	Verified   bool      `json:"verified"`
	VerifiedAt Timestamp `json:"verified_at,omitempty"`
}

// Started reports whether the verification attempt has begun.
func (it ActiveMissionItem) Started() bool {
	return !it.VerifiedAt.IsZero()
}

// Elapsed returns whole seconds since the verification attempt began.
// Only meaningful when Started is true.
func (it ActiveMissionItem) Elapsed(now time.Time) int {
	return int(now.Sub(it.VerifiedAt.Time).Seconds())
}

// ActiveMission is the account's live progress for a joined mission. Items
// are index-aligned with the parent Mission's item list; the driver checks
// that alignment before touching either list.
type ActiveMission struct {
	ID    string              `json:"id"`
	Items []ActiveMissionItem `json:"items"`
}

//////////////////////
// ACCOUNT SNAPSHOT //
//////////////////////

// AccountData is the typed view over the account snapshot every API call
// returns. Snapshots are reconstructed fresh from each response; nothing in
// them is persisted locally.
type AccountData struct {
	Conf    Conf    `json:"conf"`
	Account Account `json:"account"`
	Player  Player  `json:"player"`
}

// Conf carries the server-defined mission catalog.
type Conf struct {
	Missions []Mission `json:"missions"`
}

// Account carries the per-account mission state.
type Account struct {
	Missions AccountMissions `json:"missions"`
}

// AccountMissions splits missions into completed ids and active progress.
type AccountMissions struct {
	Completed []string        `json:"completed"`
	Active    []ActiveMission `json:"active"`
}

// Player is the reward summary reported after finishing a mission.
type Player struct {
	Videos int `json:"videos"`
	Shares int `json:"shares"`
}
