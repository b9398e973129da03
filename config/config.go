package config

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"13121"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`

	// the service's own domain; besides naming the singleton app it is the
	// default host for tracking links
	CuttlefishDomain string `env:"CUTTLEFISH_DOMAIN" envDefault:"cuttlefish.io"`
	// canonical hostname customer CNAME records must resolve to, with the
	// trailing dot per DNS convention
	CanonicalHostname string `env:"CUTTLEFISH_CANONICAL_HOSTNAME"`

	TrackingProtocol string `env:"TRACKING_PROTOCOL" envDefault:"https"`
	// server-side secret for the keyed hash embedded in tracking URLs
	TrackingSecret string `env:"TRACKING_SECRET,required"`
}

type DatabaseConfig struct {
	Host            string `env:"CUTTLEFISH_POSTGRES_HOST,required"`
	Port            string `env:"CUTTLEFISH_POSTGRES_PORT,required"`
	User            string `env:"CUTTLEFISH_POSTGRES_USER,required"`
	DBName          string `env:"CUTTLEFISH_POSTGRES_DB_NAME,required"`
	Password        string `env:"CUTTLEFISH_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"CUTTLEFISH_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"CUTTLEFISH_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"CUTTLEFISH_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"CUTTLEFISH_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"CUTTLEFISH_POSTGRES_SSL_MODE" envDefault:"require"`
}

type StorageConfig struct {
	Region        string `env:"AWS_REGION" envDefault:"us-east-1"`
	Endpoint      string `env:"S3_ENDPOINT"`
	MessageBucket string `env:"BUCKET_NAME_RAW_MESSAGES" envDefault:"cuttlefish-messages"`
}

type DNSConfig struct {
	LookupTimeoutSeconds int `env:"DNS_LOOKUP_TIMEOUT_SECONDS" envDefault:"5"`
}
