// Package driver orchestrates one cinema mission at a time: join if needed,
// drive each item through start, cooldown wait, and verification, then
// submit the final completion call once every item verifies.
//
// The driver is idempotent per call. It re-derives what still needs doing
// from the server-reported verification state instead of tracking its own
// progress, so repeated invocations converge toward completion without
// duplicate side effects.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/prognt/TapSwapBot/internal/catalog"
	"github.com/prognt/TapSwapBot/internal/model"
)

// ErrItemMismatch reports that the account's active item list does not line
// up with the mission's static item list. Item answers and waits are
// positional, so the driver refuses to index across misaligned lists.
var ErrItemMismatch = errors.New("active item list does not match mission items")

// defaultCourtesyDelay is the rate-limit courtesy pause before each
// state-changing call.
const defaultCourtesyDelay = 5 * time.Second

// Actions is the subset of the API client the driver needs.
type Actions interface {
	JoinMission(ctx context.Context, missionID string) (*model.AccountData, error)
	FinishMissionItem(ctx context.Context, missionID string, itemIndex int, userInput string) (*model.AccountData, error)
	FinishMission(ctx context.Context, missionID string) (*model.AccountData, error)
}

// Dependencies holds everything the driver needs.
type Dependencies struct {
	Actions Actions
	// Answers maps mission id to the ordered answers for its items.
	Answers map[string][]string
	Logger  zerolog.Logger
	// CourtesyDelay overrides the pause before state-changing calls.
	CourtesyDelay time.Duration
	// Sleep and Now are injectable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Driver completes cinema missions for a single account.
type Driver struct {
	actions  Actions
	answers  map[string][]string
	log      zerolog.Logger
	courtesy time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	missionsCompleted metric.Int64Counter
	itemsVerified     metric.Int64Counter
	requestsFailed    metric.Int64Counter
}

// New creates a driver from its dependencies, filling in defaults for the
// optional fields.
func New(deps Dependencies) *Driver {
	d := &Driver{
		actions:  deps.Actions,
		answers:  deps.Answers,
		log:      deps.Logger,
		courtesy: deps.CourtesyDelay,
		sleep:    deps.Sleep,
		now:      deps.Now,
	}
	if d.answers == nil {
		d.answers = make(map[string][]string)
	}
	if d.courtesy == 0 {
		d.courtesy = defaultCourtesyDelay
	}
	if d.sleep == nil {
		d.sleep = sleepContext
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.initMetrics()
	return d
}

func (d *Driver) initMetrics() {
	m := meter()
	var err error

	d.missionsCompleted, err = m.Int64Counter(
		"tapswap.missions.completed",
		metric.WithDescription("Total missions finished"),
	)
	if err != nil {
		d.log.Warn().Err(err).Msg("Failed to create missions counter")
	}
	d.itemsVerified, err = m.Int64Counter(
		"tapswap.items.verified",
		metric.WithDescription("Total mission items verified"),
	)
	if err != nil {
		d.log.Warn().Err(err).Msg("Failed to create items counter")
	}
	d.requestsFailed, err = m.Int64Counter(
		"tapswap.requests.failed",
		metric.WithDescription("Total failed mission API calls"),
	)
	if err != nil {
		d.log.Warn().Err(err).Msg("Failed to create failures counter")
	}
}

// CompleteMission drives one mission as far as the server state allows and
// returns the latest account snapshot obtained, which is the input snapshot
// when nothing progressed. Errors are reserved for structural problems and
// canceled contexts; a call that made no progress is not an error.
func (d *Driver) CompleteMission(ctx context.Context, mission model.Mission, data *model.AccountData) (*model.AccountData, error) {
	log := d.log.With().Str("mission", mission.ID).Logger()
	log.Info().Str("title", mission.Title).Msg("Processing cinema mission")

	missionAttr := metric.WithAttributes(attribute.String("mission", mission.ID))

	active := catalog.ActiveMissions(data)
	activeMission, joined := active[mission.ID]
	if !joined {
		log.Info().Dur("delay", d.courtesy).Msg("Sleeping before joining mission")
		if err := d.sleep(ctx, d.courtesy); err != nil {
			return data, err
		}

		snapshot, err := d.actions.JoinMission(ctx, mission.ID)
		if err != nil {
			d.countFailure(ctx, missionAttr)
			return data, nil
		}
		data = snapshot

		activeMission, joined = catalog.ActiveMissions(data)[mission.ID]
		if !joined {
			log.Warn().Msg("Mission not active after join, skipping")
			return data, nil
		}
		log.Info().Msg("Successfully joined mission")
	}

	if err := checkAlignment(mission, activeMission); err != nil {
		return data, err
	}

	for i, item := range mission.Items {
		activeItem := activeMission.Items[i]
		var waitSeconds int

		if !activeItem.Verified && !activeItem.Started() {
			log.Info().Int("item", i).Dur("delay", d.courtesy).Msg("Sleeping before starting mission item")
			if err := d.sleep(ctx, d.courtesy); err != nil {
				return data, err
			}

			snapshot, err := d.actions.FinishMissionItem(ctx, mission.ID, i, "")
			if err != nil {
				// Leave this item unresolved for a future pass.
				d.countFailure(ctx, missionAttr)
				continue
			}
			waitSeconds = item.WaitDuration
			log.Info().Int("item", i).Msg("Started mission item")

			data = snapshot
			activeMission, err = refreshActive(mission, data)
			if err != nil {
				return data, err
			}
			activeItem = activeMission.Items[i]
		} else {
			waitSeconds = item.WaitDuration - activeItem.Elapsed(d.now())
		}

		var answer string
		if item.RequireAnswer {
			if codes := d.answers[mission.ID]; i < len(codes) {
				answer = codes[i]
			}
			if answer == "" {
				log.Warn().Int("item", i).Msg("Missing answer for mission item")
				continue
			}
		}

		if waitSeconds > 0 {
			log.Info().Int("item", i).Int("seconds", waitSeconds).Msg("Waiting for mission item cooldown")
			if err := d.sleep(ctx, time.Duration(waitSeconds)*time.Second); err != nil {
				return data, err
			}
		}

		if !activeItem.Verified {
			snapshot, err := d.actions.FinishMissionItem(ctx, mission.ID, i, answer)
			if err != nil {
				d.countFailure(ctx, missionAttr)
				continue
			}
			log.Info().Int("item", i).Msg("Finished mission item")
			d.countVerified(ctx, missionAttr)

			data = snapshot
			activeMission, err = refreshActive(mission, data)
			if err != nil {
				return data, err
			}
		}
	}

	if allVerified(activeMission) {
		log.Info().Dur("delay", d.courtesy).Msg("Sleeping before finishing mission")
		if err := d.sleep(ctx, d.courtesy); err != nil {
			return data, err
		}

		snapshot, err := d.actions.FinishMission(ctx, mission.ID)
		if err != nil {
			d.countFailure(ctx, missionAttr)
			return data, nil
		}
		data = snapshot
		d.countCompleted(ctx, missionAttr)
		log.Info().Int("videos", data.Player.Videos).Msg("Successfully finished mission")
	}

	return data, nil
}

// refreshActive re-reads the mission's active record from a fresh snapshot,
// re-checking presence and item alignment.
func refreshActive(mission model.Mission, data *model.AccountData) (model.ActiveMission, error) {
	activeMission, ok := catalog.ActiveMissions(data)[mission.ID]
	if !ok {
		return model.ActiveMission{}, fmt.Errorf("mission %s missing from active list after update", mission.ID)
	}
	if err := checkAlignment(mission, activeMission); err != nil {
		return model.ActiveMission{}, err
	}
	return activeMission, nil
}

func checkAlignment(mission model.Mission, active model.ActiveMission) error {
	if len(active.Items) != len(mission.Items) {
		return fmt.Errorf("mission %s: %w: %d active vs %d defined",
			mission.ID, ErrItemMismatch, len(active.Items), len(mission.Items))
	}
	return nil
}

func allVerified(active model.ActiveMission) bool {
	for _, item := range active.Items {
		if !item.Verified {
			return false
		}
	}
	return true
}

func (d *Driver) countCompleted(ctx context.Context, opts ...metric.AddOption) {
	if d.missionsCompleted != nil {
		d.missionsCompleted.Add(ctx, 1, opts...)
	}
}

func (d *Driver) countVerified(ctx context.Context, opts ...metric.AddOption) {
	if d.itemsVerified != nil {
		d.itemsVerified.Add(ctx, 1, opts...)
	}
}

func (d *Driver) countFailure(ctx context.Context, opts ...metric.AddOption) {
	if d.requestsFailed != nil {
		d.requestsFailed.Add(ctx, 1, opts...)
	}
}

// sleepContext pauses for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
