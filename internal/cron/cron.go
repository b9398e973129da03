package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/cuttlefish/cuttlefish/config"
	"github.com/cuttlefish/cuttlefish/interfaces"
	cron_config "github.com/cuttlefish/cuttlefish/internal/cron/config"
	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/repository"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
)

// CONSTANTS
const (
	// GroupCuttlefish is the group for cuttlefish related jobs
	GroupCuttlefish = "cuttlefish"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupCuttlefish: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg    *config.Config
	log    logger.Logger
	cron   *cronv3.Cron
	k8s    kubernetes.Interface
	stopCh chan struct{}
	jobIDs map[string]cronv3.EntryID
	repos  *repository.Repositories
	dns    interfaces.DNSVerifier
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, repos *repository.Repositories, dns interfaces.DNSVerifier) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		k8s:    k8s,
		stopCh: make(chan struct{}),
		jobIDs: make(map[string]cronv3.EntryID),
		repos:  repos,
		dns:    dns,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	// If k8s client is nil or we're in local development, start in local mode
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	// Create the leader election lock
	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "cuttlefish-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	// Channel to track leader election errors
	errCh := make(chan error, 1)

	// Start leader election
	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		ctx := context.Background()
		le.Run(ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
		// Leader election seems to be working, continue normally
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Add tracking domain verification job
	if cronConfig.CronScheduleVerifyTrackingDomains != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleVerifyTrackingDomains, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupCuttlefish].Lock()
			defer jobLocks.locks[GroupCuttlefish].Unlock()
			cm.verifyTrackingDomains()
		})
		if err != nil {
			cm.log.Fatalf("Could not add tracking domain verification cron job: %v", err)
		}
		cm.jobIDs["verify_tracking_domains"] = id
		cm.log.Infof("Registered tracking domain verification job with schedule: %s", cronConfig.CronScheduleVerifyTrackingDomains)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// verifyTrackingDomains re-checks the CNAME of every app with a custom
// tracking domain. Domains whose delegation was removed lose their
// verified status and fall back to the default tracking host on the next
// send.
func (cm *CronManager) verifyTrackingDomains() {
	cm.log.Info("Running tracking domain verification")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.verifyTrackingDomains")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	apps, err := cm.repos.AppRepository.GetAppsWithCustomTrackingDomain(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list apps with custom tracking domains: %v", err)
		return
	}

	for _, app := range apps {
		verified := cm.dns.VerifyTrackingCNAME(ctx, app.CustomTrackingDomain)
		if verified == app.CustomTrackingDomainVerified {
			continue
		}
		if err := cm.repos.AppRepository.SetCustomTrackingDomainVerified(ctx, app.ID, verified); err != nil {
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to update tracking domain verification for app %d: %v", app.ID, err)
			continue
		}
		cm.log.Infof("Tracking domain %s for app %d verification changed to %t", app.CustomTrackingDomain, app.ID, verified)
	}

	cm.log.Info("Completed tracking domain verification")
}
