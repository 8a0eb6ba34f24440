package config

import (
	"os"

	"github.com/spf13/cast"
)

type Config struct {
	AppPort       string
	AppBaseURL    string
	AppVersion    string
	Environment   string
	CORSOrigins   string
	DBDSN         string
	JWTSecret     string
	JWTExpiresMin int

	RedisAddr     string
	RedisPassword string

	UploadDir              string
	MaxUploadBytes         int64
	DriverDocumentsBucket  string
	VehicleDocumentsBucket string
	VehicleImagesBucket    string

	// Interval pushed to websocket clients as their resync hint.
	PollingIntervalMS int
}

func Load() Config {
	return Config{
		AppPort:       get("APP_PORT", "8080"),
		AppBaseURL:    get("APP_BASE_URL", ""),
		AppVersion:    get("APP_VERSION", "1.0.0"),
		Environment:   get("APP_ENV", "development"),
		CORSOrigins:   get("CORS_ORIGINS", "http://localhost:3000, http://127.0.0.1:3000"),
		DBDSN:         must("DB_DSN"),
		JWTSecret:     must("JWT_SECRET"),
		JWTExpiresMin: cast.ToInt(get("JWT_EXPIRES_MIN", "10080")),

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),

		UploadDir:              get("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes:         cast.ToInt64(get("MAX_UPLOAD_BYTES", "5242880")),
		DriverDocumentsBucket:  get("BUCKET_DRIVER_DOCUMENTS", "driver-documents"),
		VehicleDocumentsBucket: get("BUCKET_VEHICLE_DOCUMENTS", "vehicle-documents"),
		VehicleImagesBucket:    get("BUCKET_VEHICLE_IMAGES", "vehicle-images"),

		PollingIntervalMS: cast.ToInt(get("POLLING_INTERVAL", "5000")),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
