package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Custom tracking domain re-verification, every 10 minutes
	CronScheduleVerifyTrackingDomains string `env:"CRON_SCHEDULE_VERIFY_TRACKING_DOMAINS" envDefault:"0 */10 * * * *"`
}
