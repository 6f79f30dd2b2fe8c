package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMission_Num(t *testing.T) {
	cases := []struct {
		id   string
		want int
	}{
		{"M1500", 1500},
		{"M999", 999},
		{"M1000", 1000},
		{"M0", 0},
		{"1500", 1500},
		{"bogus", 0},
		{"", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Mission{ID: tc.id}.Num(), "id %q", tc.id)
	}
}

func TestMission_StartOr(t *testing.T) {
	now := time.Now()
	dated := Mission{ID: "M1001", StartAt: NewTimestamp(time.UnixMilli(1700000000000))}
	undated := Mission{ID: "M1002"}

	assert.Equal(t, time.UnixMilli(1700000000000), dated.StartOr(now))
	assert.Equal(t, now, undated.StartOr(now))
}

func TestActiveMissionItem_StartedAndElapsed(t *testing.T) {
	fresh := ActiveMissionItem{Type: "video"}
	assert.False(t, fresh.Started())

	startedAt := time.Now().Add(-70 * time.Second)
	started := ActiveMissionItem{Type: "video", VerifiedAt: NewTimestamp(startedAt)}
	assert.True(t, started.Started())
	assert.Equal(t, 70, started.Elapsed(startedAt.Add(70*time.Second)))
}

func TestAccountData_DecodeSnapshot(t *testing.T) {
	raw := `{
		"conf": {
			"missions": [
				{
					"id": "M1500",
					"title": "Watch trailer",
					"reward": 100000,
					"items": [
						{"name": "watch", "require_answer": false, "wait_duration_s": 30},
						{"name": "code", "require_answer": true, "title": "Enter the code"}
					],
					"start_at": 1700000000000
				}
			]
		},
		"account": {
			"missions": {
				"completed": ["M1400"],
				"active": [
					{
						"id": "M1500",
						"items": [
							{"type": "watch", "verified": false, "verified_at": 1700000100000},
							{"type": "code", "verified": false}
						]
					}
				]
			}
		},
		"player": {"videos": 3, "shares": 250000}
	}`

	var data AccountData
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	require.Len(t, data.Conf.Missions, 1)
	mission := data.Conf.Missions[0]
	assert.Equal(t, 1500, mission.Num())
	require.Len(t, mission.Items, 2)
	assert.Equal(t, 30, mission.Items[0].WaitDuration)
	assert.True(t, mission.Items[1].RequireAnswer)

	assert.Equal(t, []string{"M1400"}, data.Account.Missions.Completed)
	require.Len(t, data.Account.Missions.Active, 1)
	active := data.Account.Missions.Active[0]
	assert.True(t, active.Items[0].Started())
	assert.False(t, active.Items[1].Started())

	assert.Equal(t, 3, data.Player.Videos)
}
