// ewelinkd bridges eWeLink cloud devices onto local surfaces.
//
// It keeps a persistent realtime channel to the eWeLink cloud, mirrors
// every device's state into an in-memory store, and exposes that state
// over a local HTTP API and an optional MQTT republisher. Commands flow
// the other way: HTTP or MQTT in, cloud acknowledgement out.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/ewelink-core/migrations"

	"github.com/nerrad567/ewelink-core/internal/api"
	"github.com/nerrad567/ewelink-core/internal/cloud"
	"github.com/nerrad567/ewelink-core/internal/coordinator"
	"github.com/nerrad567/ewelink-core/internal/device"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/config"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/database"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/logging"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/ewelink-core/internal/storage"
	"github.com/nerrad567/ewelink-core/internal/uiid"
	"github.com/nerrad567/ewelink-core/internal/ws"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	issueToken := flag.Bool("issue-token", false,
		"print a bearer token for the local API and exit")
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *issueToken); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context, issueToken bool) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ewelinkd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Token minting is a one-shot operation; no infrastructure needed.
	if issueToken {
		token, tokenErr := api.IssueToken(cfg.API.Auth.JWTSecret,
			time.Duration(cfg.API.Auth.AccessTokenTTL)*time.Minute)
		if tokenErr != nil {
			return fmt.Errorf("issuing token: %w", tokenErr)
		}
		fmt.Println(token)
		return nil
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	sessions := storage.NewSessions(db)
	snapshots := storage.NewSnapshots(db)

	// Cloud REST client
	cloudClient := cloud.New(cloud.Config{
		BaseURL:     cloud.APIBaseURL(cfg.Cloud.Region),
		Email:       cfg.Account.Email,
		Password:    cfg.Account.Password,
		CountryCode: cfg.Account.CountryCode,
		AppID:       cfg.Account.AppID,
		AppSecret:   cfg.Account.AppSecret,
		Timeout:     cfg.GetRequestTimeout(),
		Logger:      log.With("component", "cloud"),
	})

	// Reuse the persisted session when it is still valid; log in otherwise.
	restored := false
	if s, loadErr := sessions.Load(ctx); loadErr == nil {
		restored = cloudClient.RestoreSession(s)
	}
	if restored {
		log.Info("cloud session restored")
	} else {
		if loginErr := cloudClient.Login(ctx); loginErr != nil {
			return fmt.Errorf("cloud login: %w", loginErr)
		}
		if saveErr := sessions.Save(ctx, cloudClient.Session()); saveErr != nil {
			log.Warn("persisting cloud session failed", "error", saveErr)
		}
		log.Info("logged in to cloud")
	}

	// Device store, seeded from the cloud or from persisted snapshots when
	// the cloud is unreachable.
	store := device.NewStore(log.With("component", "store"))
	devices, fetchErr := cloudClient.Devices(ctx)
	if fetchErr != nil {
		log.Warn("cloud device fetch failed, loading snapshots", "error", fetchErr)
		devices, err = snapshots.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("loading device snapshots: %w", err)
		}
		if len(devices) == 0 {
			return fmt.Errorf("no devices available: cloud unreachable and no snapshots: %w", fetchErr)
		}
	}
	store.Replace(devices)
	log.Info("device store initialised", "devices", store.Len())

	if fetchErr == nil {
		if saveErr := snapshots.SaveAll(ctx, store.List()); saveErr != nil {
			log.Warn("persisting device snapshots failed", "error", saveErr)
		}
	}

	registry := uiid.NewRegistry()

	// Realtime channel
	session := cloudClient.Session()
	wsClient := ws.New(ws.Config{
		DispatchURL:    cloud.DispatchBaseURL(cfg.Cloud.Region),
		APIKey:         session.UserAPIKey,
		AppID:          cfg.Account.AppID,
		AccessToken:    session.AccessToken,
		CommandTimeout: cfg.GetCommandTimeout(),
		Logger:         log.With("component", "ws"),
	})

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	var publisher coordinator.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		publisher = coordinator.NewMQTTPublisher(mqttClient, log.With("component", "publisher"))
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	var telemetry coordinator.TelemetryWriter
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		telemetry = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Coordinator: inbound state pipeline and outbound command facade
	coord := coordinator.New(coordinator.Options{
		Store:           store,
		Registry:        registry,
		Commander:       commandSender{client: wsClient},
		Fetcher:         cloudClient,
		Snapshots:       snapshots,
		Publisher:       publisher,
		Telemetry:       telemetry,
		RefreshInterval: cfg.GetRefreshInterval(),
		Logger:          log.With("component", "coordinator"),
	})

	// Route inbound frames: acknowledgements to the correlator, state
	// pushes and availability flips to the coordinator.
	router := ws.NewRouter(ws.RouterOptions{
		Correlator:     wsClient.Correlator(),
		OnUpdate:       coord.HandleUpdate,
		OnAvailability: coord.HandleAvailability,
		Logger:         log.With("component", "router"),
	})
	wsClient.SetHandler(router.Route)

	wsClient.Start(ctx)
	defer func() {
		log.Info("stopping realtime channel")
		wsClient.Stop()
	}()

	coord.Start(ctx)
	defer func() {
		log.Info("stopping coordinator")
		coord.Stop()
	}()

	// Publish the initial view and accept inbound MQTT commands.
	if mqttClient != nil {
		for _, dev := range store.List() {
			publisher.PublishState(dev.ID(), dev.Params())
			publisher.PublishAvailability(dev.ID(), dev.Online())
		}
		if subErr := subscribeCommands(mqttClient, cfg, coord, log); subErr != nil {
			return fmt.Errorf("subscribing to command topics: %w", subErr)
		}
	}

	// Local HTTP API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			Logger:     log.With("component", "api"),
			Store:      store,
			Registry:   registry,
			Controller: coord,
			Version:    version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API server, coordinator,
	// realtime channel, InfluxDB, MQTT, database.

	log.Info("ewelinkd stopped")
	return nil
}

// commandTimeout bounds a single MQTT-initiated command, dispatch included.
const commandTimeout = 30 * time.Second

// subscribeCommands wires inbound MQTT command topics to the coordinator.
// Payloads are raw parameter documents; the device id comes from the topic.
func subscribeCommands(mqttClient *mqtt.Client, cfg *config.Config, coord *coordinator.Coordinator, log *logging.Logger) error {
	topics := mqtt.Topics{}
	return mqttClient.Subscribe(topics.AllDeviceCommands(), byte(cfg.MQTT.QoS), func(topic string, payload []byte) error {
		deviceID := mqtt.CommandDeviceID(topic)
		if deviceID == "" {
			log.Warn("command on unexpected topic dropped", "topic", topic)
			return nil
		}

		var params map[string]any
		if err := json.Unmarshal(payload, &params); err != nil {
			log.Warn("malformed command payload dropped", "device", deviceID, "error", err)
			return nil
		}
		if len(params) == 0 {
			log.Warn("empty command payload dropped", "device", deviceID)
			return nil
		}

		// Commands block on the cloud acknowledgement; keep the MQTT
		// receive path free.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			ack, err := coord.Control(ctx, deviceID, params)
			if err != nil {
				log.Warn("MQTT command failed", "device", deviceID, "error", err)
				return
			}
			if !ack.OK() {
				log.Warn("MQTT command rejected",
					"device", deviceID, "code", ack.Error, "msg", ack.Msg)
			}
		}()
		return nil
	})
}

// commandSender adapts the realtime client's pointer acknowledgement to the
// coordinator's value interface.
type commandSender struct {
	client *ws.Client
}

func (s commandSender) Do(ctx context.Context, deviceID, deviceKey string, params map[string]any) (ws.Ack, error) {
	ack, err := s.client.Do(ctx, deviceID, deviceKey, params)
	if err != nil {
		return ws.Ack{}, err
	}
	return *ack, nil
}

// getConfigPath returns the configuration file path.
// Uses EWELINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("EWELINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// MQTT and InfluxDB are optional; nil clients are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
