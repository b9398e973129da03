package cron

import (
	"os"
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"k8s.io/client-go/kubernetes"

	"github.com/cuttlefish/cuttlefish/config"
	cron_config "github.com/cuttlefish/cuttlefish/internal/cron/config"
	"github.com/cuttlefish/cuttlefish/internal/logger"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	// Act
	cm := NewCronManager(cfg, log, k8s, nil, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_StartCron(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_VERIFY_TRACKING_DOMAINS", "0 */10 * * * *")
	defer os.Unsetenv("CRON_SCHEDULE_VERIFY_TRACKING_DOMAINS")

	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}
	cm := NewCronManager(cfg, log, k8s, nil, nil)

	mockCron := cronv3.New(cronv3.WithSeconds())

	var cronConfig cron_config.Config
	cronConfig.CronScheduleHeartbeat = "0 * * * * *"
	cronConfig.CronScheduleVerifyTrackingDomains = "0 */10 * * * *"

	// Act - register jobs manually
	id, err := mockCron.AddFunc(cronConfig.CronScheduleHeartbeat, func() {})
	assert.NoError(t, err)
	cm.jobIDs["heartbeat"] = id

	verifyId, err := mockCron.AddFunc(cronConfig.CronScheduleVerifyTrackingDomains, func() {})
	assert.NoError(t, err)
	cm.jobIDs["verify_tracking_domains"] = verifyId

	cm.cron = mockCron

	// Assert
	assert.NotNil(t, cm.cron)
	assert.Equal(t, 2, len(cm.jobIDs))
}

func TestCronManager_Stop(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}
	cm := NewCronManager(cfg, log, k8s, nil, nil)

	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	// Act
	cm.Stop()

	// Assert
	select {
	case <-cm.stopCh:
		// Channel is closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}
