package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	RegionsSourceFile   = "file"
	RegionsSourceObject = "object"
	RegionsSourceDB     = "db"

	OCRBackendRekognition = "rekognition"
	OCRBackendTesseract   = "tesseract"
)

type HTTPConfig struct {
	Host           string
	Port           int
	UploadMaxBytes int64
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type RegionsConfig struct {
	Source    string
	Path      string
	ObjectKey string
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	MaxObjectBytes int64
}

type DetectionConfig struct {
	Enabled              bool
	AWSRegion            string
	VehicleMinConfidence float64
	PlateModelARN        string
	PlateMinConfidence   float64
	MinPlateWidth        int
	OCRBackend           string
	TesseractLanguage    string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Regions     RegionsConfig
	Storage     StorageConfig
	Detection   DetectionConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("DETECTION_ENABLED", true)

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Regions: RegionsConfig{
			Source:    strings.ToLower(strings.TrimSpace(v.GetString("REGIONS_SOURCE"))),
			Path:      v.GetString("REGIONS_PATH"),
			ObjectKey: v.GetString("REGIONS_OBJECT_KEY"),
		},
		Storage: StorageConfig{
			Endpoint:       strings.TrimSpace(v.GetString("R2_ENDPOINT")),
			AccessKey:      strings.TrimSpace(v.GetString("R2_ACCESS_KEY_ID")),
			SecretKey:      strings.TrimSpace(v.GetString("R2_SECRET_ACCESS_KEY")),
			Bucket:         strings.TrimSpace(v.GetString("R2_BUCKET")),
			Region:         strings.TrimSpace(v.GetString("R2_REGION")),
			MaxObjectBytes: v.GetInt64("R2_MAX_OBJECT_BYTES"),
		},
		Detection: DetectionConfig{
			Enabled:              v.GetBool("DETECTION_ENABLED"),
			AWSRegion:            v.GetString("AWS_REGION"),
			VehicleMinConfidence: v.GetFloat64("VEHICLE_MIN_CONFIDENCE"),
			PlateModelARN:        v.GetString("PLATE_MODEL_ARN"),
			PlateMinConfidence:   v.GetFloat64("PLATE_MIN_CONFIDENCE"),
			MinPlateWidth:        v.GetInt("MIN_PLATE_WIDTH"),
			OCRBackend:           strings.ToLower(strings.TrimSpace(v.GetString("OCR_BACKEND"))),
			TesseractLanguage:    v.GetString("TESSERACT_LANGUAGE"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.UploadMaxBytes == 0 {
		cfg.HTTP.UploadMaxBytes = 10 << 20
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Regions.Source == "" {
		cfg.Regions.Source = RegionsSourceFile
	}
	if cfg.Regions.Path == "" {
		cfg.Regions.Path = "data.json"
	}
	if cfg.Storage.MaxObjectBytes == 0 {
		cfg.Storage.MaxObjectBytes = cfg.HTTP.UploadMaxBytes
	}
	if cfg.Detection.AWSRegion == "" {
		cfg.Detection.AWSRegion = "us-east-1"
	}
	if cfg.Detection.VehicleMinConfidence == 0 {
		cfg.Detection.VehicleMinConfidence = 50
	}
	if cfg.Detection.PlateMinConfidence == 0 {
		cfg.Detection.PlateMinConfidence = 50
	}
	if cfg.Detection.MinPlateWidth == 0 {
		cfg.Detection.MinPlateWidth = 90
	}
	if cfg.Detection.OCRBackend == "" {
		cfg.Detection.OCRBackend = OCRBackendRekognition
	}
	if cfg.Detection.TesseractLanguage == "" {
		cfg.Detection.TesseractLanguage = "eng"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AuthEnabled reports whether recognition endpoints require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.Auth.AccessSecret != ""
}

// UsesDB reports whether the service needs a database connection.
func (c *Config) UsesDB() bool {
	return c.Regions.Source == RegionsSourceDB
}

func validate(cfg *Config) error {
	switch cfg.Regions.Source {
	case RegionsSourceFile:
	case RegionsSourceObject:
		if cfg.Regions.ObjectKey == "" {
			return fmt.Errorf("REGIONS_OBJECT_KEY is required for REGIONS_SOURCE=object")
		}
	case RegionsSourceDB:
		if cfg.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required for REGIONS_SOURCE=db")
		}
	default:
		return fmt.Errorf("unknown REGIONS_SOURCE %q", cfg.Regions.Source)
	}

	switch cfg.Detection.OCRBackend {
	case OCRBackendRekognition, OCRBackendTesseract:
	default:
		return fmt.Errorf("unknown OCR_BACKEND %q", cfg.Detection.OCRBackend)
	}
	if cfg.Detection.Enabled && cfg.Detection.PlateModelARN == "" {
		return fmt.Errorf("PLATE_MODEL_ARN is required when DETECTION_ENABLED is set")
	}
	if cfg.Environment == "production" && cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required in production")
	}
	return nil
}
