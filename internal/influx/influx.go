// Package influx ships optional mission-completion metrics to InfluxDB.
// The manager is a no-op unless influx.enabled is set and the server is
// reachable at startup.
package influx

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// missionBucket receives mission completion points.
const missionBucket = "mission_data"

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	Client  influxdb2.Client
	Writer  influxdb2_api.WriteAPI
	IsValid bool
	Logger  zerolog.Logger
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		IsValid: false,
		Logger:  log,
	}
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(100).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(context.Background())
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Msg("InfluxDB client failed to initialize, metrics disabled")
		return fmt.Errorf("influxdb ping failed: %v", err)
	}

	m.IsValid = true
	m.Writer = m.Client.WriteAPI(viper.GetString("influx.org"), missionBucket)
	m.Logger.Info().Msg("InfluxDB client initialized")
	return nil
}

// WriteMissionCompletion records one finished mission with its reward and
// the account's running video count.
func (m *Manager) WriteMissionCompletion(missionID string, reward, videos int) {
	if !m.IsValid {
		return
	}

	point := influxdb2.NewPointWithMeasurement("mission_completion").
		AddTag("mission_id", missionID).
		AddField("reward", reward).
		AddField("videos", videos).
		SetTime(time.Now())
	m.Writer.WritePoint(point)
}

// Close flushes pending points and shuts the client down.
func (m *Manager) Close() {
	if m.Client == nil {
		return
	}
	if m.Writer != nil {
		m.Writer.Flush()
	}
	m.Client.Close()
}
