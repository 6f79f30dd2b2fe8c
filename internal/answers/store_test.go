package answers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prognt/TapSwapBot/internal/model"
)

func testMission(id, title string, itemCount int, startAt time.Time) model.Mission {
	items := make([]model.MissionItem, itemCount)
	for i := range items {
		items[i] = model.MissionItem{Name: "watch"}
	}
	m := model.Mission{ID: id, Title: title, Items: items}
	if !startAt.IsZero() {
		m.StartAt = model.NewTimestamp(startAt)
	}
	return m
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missions.csv"))
	_, err := store.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_LoadMalformedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.csv")
	require.NoError(t, os.WriteFile(path, []byte("M1500;only-two-fields\n"), 0644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestStore_LoadStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.csv")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbfM1500;Trailer;42\n"), 0644))

	answers, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, answers["M1500"])
}

func TestStore_SaveCreatesRowPerItem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.csv")
	store := NewStore(path)

	mission := testMission("M1500", "Trailer", 2, time.UnixMilli(1700000000000))
	require.NoError(t, store.Save([]model.Mission{mission}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(raw), "\xef\xbb\xbf")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "M1500;Trailer;", lines[0])
	assert.Equal(t, "M1500;Trailer;", lines[1])
}

func TestStore_SaveRoundTripPreservesAnswers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.csv")
	store := NewStore(path)

	mission := testMission("M1500", "Trailer", 2, time.UnixMilli(1700000000000))
	require.NoError(t, store.Save([]model.Mission{mission}))

	// Operator fills in the answers by hand.
	require.NoError(t, os.WriteFile(path, []byte("M1500;Trailer;\nM1500;Trailer;42\n"), 0644))

	// A later save with an additional mission keeps the stored answers.
	newer := testMission("M1501", "Sequel", 1, time.UnixMilli(1700010000000))
	require.NoError(t, store.Save([]model.Mission{mission, newer}))

	answers, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"", "42"}, answers["M1500"])
	assert.Equal(t, []string{""}, answers["M1501"])
}

func TestStore_SaveSortsByStartTimeUndatedLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.csv")
	store := NewStore(path)

	missions := []model.Mission{
		testMission("M1502", "Undated", 1, time.Time{}),
		testMission("M1500", "Oldest", 1, time.UnixMilli(1700000000000)),
		testMission("M1501", "Newer", 1, time.UnixMilli(1700010000000)),
	}
	require.NoError(t, store.Save(missions))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(raw), "\xef\xbb\xbf")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	// Dated missions ascend; the undated one keys as "now" and lands last.
	assert.True(t, strings.HasPrefix(lines[0], "M1500;"))
	assert.True(t, strings.HasPrefix(lines[1], "M1501;"))
	assert.True(t, strings.HasPrefix(lines[2], "M1502;"))
}

func TestStore_SaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "missions.csv"))

	mission := testMission("M1500", "Trailer", 1, time.UnixMilli(1700000000000))
	require.NoError(t, store.Save([]model.Mission{mission}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "missions.csv", entries[0].Name())
}
