package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/prognt/TapSwapBot/internal/answers"
	"github.com/prognt/TapSwapBot/internal/api"
	"github.com/prognt/TapSwapBot/internal/catalog"
	"github.com/prognt/TapSwapBot/internal/config"
	"github.com/prognt/TapSwapBot/internal/driver"
	"github.com/prognt/TapSwapBot/internal/influx"
	"github.com/prognt/TapSwapBot/internal/logging"
)

func main() {
	configDir := "."
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	if err := config.Load(configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sessionStart := time.Now()
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logs directory: %v\n", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(
		logging.LogFilePath(logsDir, config.GetString("sessionName"), sessionStart),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := logging.Setup(logFile)
	log.Info().Str("configDir", configDir).Msg("Starting up...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := api.New(config.GetString("api.baseUrl"), log)
	client.SetAuthToken(config.GetString("api.authToken"))

	data, err := client.Login(ctx, config.GetString("api.initData"))
	if err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}

	// Refresh the answer template so new cinema missions get blank rows the
	// operator can fill in.
	store := answers.NewStore(config.GetString("answersFile"))
	if err := store.Save(catalog.CinemaMissions(data)); err != nil {
		log.Warn().Err(err).Msg("Failed to refresh answer file")
	}
	stored, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Answer file unavailable, continuing without answers")
		stored = make(map[string][]string)
	}

	metrics := influx.NewManager(log)
	if err := metrics.Connect(); err != nil {
		log.Debug().Err(err).Msg("InfluxDB metrics disabled")
	}
	defer metrics.Close()

	d := driver.New(driver.Dependencies{
		Actions:       client,
		Answers:       stored,
		Logger:        log,
		CourtesyDelay: config.GetDuration("delays.courtesy"),
	})

	for _, mission := range catalog.VisibleCinemaMissions(data) {
		if ctx.Err() != nil {
			log.Info().Msg("Interrupted, stopping mission processing")
			break
		}

		snapshot, err := d.CompleteMission(ctx, mission, data)
		if err != nil {
			log.Warn().Err(err).Str("mission", mission.ID).Msg("Skipping mission")
			continue
		}
		data = snapshot

		if slices.Contains(data.Account.Missions.Completed, mission.ID) {
			metrics.WriteMissionCompletion(mission.ID, mission.Reward, data.Player.Videos)
		}
	}

	log.Info().Int("videos", data.Player.Videos).Msg("Cinema mission pass complete")
}
