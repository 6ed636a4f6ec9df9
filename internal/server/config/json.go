package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/lifecycle/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "10s" and integer nanoseconds are accepted.
// Absent or zero fields leave the current value untouched.
type JsonConfig struct {
	HTTPAddr           string `json:"http_addr"`
	GRPCAddr           string `json:"grpc_addr"`
	ProfileServiceAddr string `json:"profile_service_addr"`
	DatabaseDSN        string `json:"database_dsn"`
	SecretKey          string `json:"secret_key"`

	S3RootUser     string         `json:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	PresignExpiry  timex.Duration `json:"presign_expiry"`

	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
	AlarmStream   string `json:"alarm_stream"`

	GracePeriod          timex.Duration `json:"grace_period"`
	AttachmentCaps       map[string]int `json:"attachment_caps"`
	DefaultAttachmentCap int            `json:"default_attachment_cap"`

	CascadeSchedule      string         `json:"cascade_schedule"`
	AlarmSchedule        string         `json:"alarm_schedule"`
	WorkerPoolSize       int            `json:"worker_pool_size"`
	JobTimeout           timex.Duration `json:"job_timeout"`
	CascadePageSize      int            `json:"cascade_page_size"`
	CascadeConcurrency   int            `json:"cascade_concurrency"`
	PurgeStepMaxAttempts int            `json:"purge_step_max_attempts"`

	RemoteCallTimeout  timex.Duration `json:"remote_call_timeout"`
	RemoteCallAttempts uint64         `json:"remote_call_attempts"`
	RemoteCallBackoff  timex.Duration `json:"remote_call_backoff"`

	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	LogLevel        string         `json:"log_level"`
}

// parseJSON overlays the JSON file at path onto config. An empty path is
// not an error; an unreadable or malformed file is.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setNonZero(&config.HTTPAddr, c.HTTPAddr)
	setNonZero(&config.GRPCAddr, c.GRPCAddr)
	setNonZero(&config.ProfileServiceAddr, c.ProfileServiceAddr)
	setNonZero(&config.DatabaseDSN, c.DatabaseDSN)
	setNonZero(&config.SecretKey, c.SecretKey)

	setNonZero(&config.S3RootUser, c.S3RootUser)
	setNonZero(&config.S3RootPassword, c.S3RootPassword)
	setNonZero(&config.S3Bucket, c.S3Bucket)
	setNonZero(&config.S3Region, c.S3Region)
	setNonZero(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setNonZero(&config.PresignExpiry, c.PresignExpiry.Duration)

	setNonZero(&config.RedisAddr, c.RedisAddr)
	setNonZero(&config.RedisPassword, c.RedisPassword)
	setNonZero(&config.RedisDB, c.RedisDB)
	setNonZero(&config.AlarmStream, c.AlarmStream)

	setNonZero(&config.GracePeriod, c.GracePeriod.Duration)
	if c.AttachmentCaps != nil {
		config.AttachmentCaps = c.AttachmentCaps
	}
	setNonZero(&config.DefaultAttachmentCap, c.DefaultAttachmentCap)

	setNonZero(&config.CascadeSchedule, c.CascadeSchedule)
	setNonZero(&config.AlarmSchedule, c.AlarmSchedule)
	setNonZero(&config.WorkerPoolSize, c.WorkerPoolSize)
	setNonZero(&config.JobTimeout, c.JobTimeout.Duration)
	setNonZero(&config.CascadePageSize, c.CascadePageSize)
	setNonZero(&config.CascadeConcurrency, c.CascadeConcurrency)
	setNonZero(&config.PurgeStepMaxAttempts, c.PurgeStepMaxAttempts)

	setNonZero(&config.RemoteCallTimeout, c.RemoteCallTimeout.Duration)
	setNonZero(&config.RemoteCallAttempts, c.RemoteCallAttempts)
	setNonZero(&config.RemoteCallBackoff, c.RemoteCallBackoff.Duration)

	setNonZero(&config.ShutdownTimeout, c.ShutdownTimeout.Duration)
	setNonZero(&config.LogLevel, c.LogLevel)

	return nil
}

func setNonZero[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
