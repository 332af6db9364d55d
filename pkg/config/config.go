package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Camera modes
const (
	CameraModeSimulated = "simulated"
	CameraModeMQTT      = "mqtt"
	CameraModeNone      = "none"
)

type Config struct {
	// Classroom
	Room             string
	RoomProfilesFile string
	DataDir          string
	EnvironmentLog   string
	SignInLog        string

	// Sensor simulator baselines
	BaseTemperature float64
	BaseLight       float64

	// Loop cadence and camera caps
	MonitorInterval   time.Duration
	OccupancyInterval time.Duration
	OccupancyWindow   time.Duration
	RecognizeWindow   time.Duration
	QRTimeout         time.Duration
	HistoryCapacity   int

	// Camera
	CameraMode          string
	FaceDataDir         string
	ConfidenceThreshold float64
	CameraResponseGrace time.Duration

	// MQTT Configuration
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// Telemetry topics, {room} is replaced with the room id
	MQTTTopicEnvironment string
	MQTTTopicControl     string
	MQTTTopicSignIn      string

	// Vision worker topics
	MQTTTopicRecognizeRequest  string
	MQTTTopicRecognizeResponse string
	MQTTTopicQRRequest         string
	MQTTTopicQRResponse        string

	// ClickHouse Configuration
	ClickHouseEnabled bool
	ClickHouseAddr    string
	ClickHouseDB      string
	ClickHouseUser    string
	ClickHousePass    string

	// Local SQLite mirror, disabled when empty
	SQLitePath string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// Presentation
	Headless bool
}

// Load reads configuration from the environment. envFile is loaded first
// when non-empty, otherwise a .env in the working directory is tried.
func Load(envFile string) *Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("failed to load env file", "path", envFile, "error", err)
		}
	} else {
		_ = godotenv.Load()
	}

	return &Config{
		Room:             getEnv("ROOM_ID", "A-101"),
		RoomProfilesFile: getEnv("ROOM_PROFILES_FILE", ""),
		DataDir:          getEnv("DATA_DIR", "."),
		EnvironmentLog:   getEnv("ENVIRONMENT_LOG", "classroom_data.csv"),
		SignInLog:        getEnv("SIGNIN_LOG", "sign_records.csv"),

		BaseTemperature: getEnvFloat("SENSOR_BASE_TEMPERATURE", 24.0),
		BaseLight:       getEnvFloat("SENSOR_BASE_LIGHT", 400),

		MonitorInterval:   getEnvDuration("MONITOR_INTERVAL", 2*time.Second),
		OccupancyInterval: getEnvDuration("OCCUPANCY_INTERVAL", 2*time.Second),
		OccupancyWindow:   getEnvDuration("OCCUPANCY_WINDOW", 1*time.Second),
		RecognizeWindow:   getEnvDuration("RECOGNIZE_WINDOW", 10*time.Second),
		QRTimeout:         getEnvDuration("QR_TIMEOUT", 8*time.Second),
		HistoryCapacity:   getEnvInt("HISTORY_CAPACITY", 50),

		CameraMode:          getEnv("CAMERA_MODE", CameraModeSimulated),
		FaceDataDir:         getEnv("FACE_DATA_DIR", "face_data"),
		ConfidenceThreshold: getEnvFloat("FACE_CONFIDENCE_THRESHOLD", 100),
		CameraResponseGrace: getEnvDuration("CAMERA_RESPONSE_GRACE", 3*time.Second),

		MQTTEnabled:  getEnvBool("MQTT_ENABLED", false),
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "smart-classroom"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		MQTTTopicEnvironment: getEnv("MQTT_TOPIC_ENVIRONMENT", "classroom/{room}/environment"),
		MQTTTopicControl:     getEnv("MQTT_TOPIC_CONTROL", "classroom/{room}/control"),
		MQTTTopicSignIn:      getEnv("MQTT_TOPIC_SIGNIN", "classroom/{room}/signin"),

		MQTTTopicRecognizeRequest:  getEnv("MQTT_TOPIC_RECOGNIZE_REQUEST", "camera/{room}/recognize/request"),
		MQTTTopicRecognizeResponse: getEnv("MQTT_TOPIC_RECOGNIZE_RESPONSE", "camera/{room}/recognize/response"),
		MQTTTopicQRRequest:         getEnv("MQTT_TOPIC_QR_REQUEST", "camera/{room}/qr/request"),
		MQTTTopicQRResponse:        getEnv("MQTT_TOPIC_QR_RESPONSE", "camera/{room}/qr/response"),

		ClickHouseEnabled: getEnvBool("CLICKHOUSE_ENABLED", false),
		ClickHouseAddr:    getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:      getEnv("CLICKHOUSE_DB", "classroom"),
		ClickHouseUser:    getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass:    getEnv("CLICKHOUSE_PASS", ""),

		SQLitePath: getEnv("SQLITE_PATH", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", "classroom.log"),
	}
}

// BindFlags registers command-line overrides for the most common settings.
// Flag defaults are the values already loaded from the environment.
func (c *Config) BindFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.Room, "room", c.Room, "room identifier used for profile lookup and log rows")
	flagSet.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory holding the CSV logs")
	flagSet.StringVar(&c.CameraMode, "camera", c.CameraMode, "camera mode: simulated, mqtt or none")
	flagSet.StringVar(&c.RoomProfilesFile, "profiles", c.RoomProfilesFile, "YAML file with room profiles")
	flagSet.BoolVar(&c.Headless, "headless", c.Headless, "run without the dashboard, start both loops and log events")
}

// EnvironmentLogPath returns the environment CSV path inside DataDir
func (c *Config) EnvironmentLogPath() string {
	return resolve(c.DataDir, c.EnvironmentLog)
}

// SignInLogPath returns the sign-in CSV path inside DataDir
func (c *Config) SignInLogPath() string {
	return resolve(c.DataDir, c.SignInLog)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("failed to parse float, using default", "key", key, "error", err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("failed to parse int, using default", "key", key, "error", err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("failed to parse bool, using default", "key", key, "error", err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("failed to parse duration, using default", "key", key, "error", err)
		return defaultValue
	}
	return duration
}
