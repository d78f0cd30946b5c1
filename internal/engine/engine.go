// Package engine wires the recording services together and runs them until
// an interrupt arrives.
package engine

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/diskmanager"
	"github.com/camsentry/camsentry/internal/logging"
	"github.com/camsentry/camsentry/internal/observability"
	"github.com/camsentry/camsentry/internal/recorder"
	"github.com/camsentry/camsentry/internal/storagepool"
	"github.com/camsentry/camsentry/internal/supervisor"
)

// Run starts every service of the recording engine and blocks until SIGINT
// or SIGTERM. Teardown order matters: the supervisor stops first so every
// open segment is finalized before the background loops and the datastore
// go away.
func Run(settings *conf.Settings) error {
	logging.Init()
	log := logging.ForService("engine")

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer closeDataStore(store)

	registry := storagepool.NewRegistry(store)
	diskManager := diskmanager.NewManager(store)
	recorderManager := recorder.NewManager(store, registry)
	sup := supervisor.New(store, recorderManager)

	// every cleanup pass covers pool paths too, not just the recordings root
	diskManager.SetPoolCleanup(func(quit <-chan struct{}) []diskmanager.CleanupResult {
		results, err := registry.CleanupPools(quit, store)
		if err != nil {
			log.Error("pool cleanup failed", "error", err)
		}
		return results
	})

	// quitChan is closed on SIGINT/SIGTERM to stop all loops
	quitChan := make(chan struct{})
	var wg sync.WaitGroup

	if settings.Metrics.Enabled {
		obs, err := observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		registry.SetMetrics(obs.StoragePool)
		diskManager.SetMetrics(obs.DiskManager)
		recorderManager.SetMetrics(obs.Recorder)
		sup.SetMetrics(obs.Supervisor)

		endpoint, err := observability.NewEndpoint(settings, obs)
		if err != nil {
			return fmt.Errorf("failed to create metrics endpoint: %w", err)
		}
		endpoint.Start(&wg, quitChan)
	}

	// make sure the default recordings location exists before anything writes
	if settings.Storage.Path != "" {
		if err := os.MkdirAll(settings.Storage.Path, 0o755); err != nil {
			return fmt.Errorf("failed to create recordings directory: %w", err)
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.RefreshLoop(settings, quitChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		diskManager.CleanupLoop(quitChan)
	}()

	sup.Start()

	log.Info("engine started",
		"node", settings.Main.Name,
		"storage_path", settings.Storage.Path,
		"metrics", settings.Metrics.Enabled)

	monitorSignals(quitChan)
	<-quitChan

	log.Info("shutting down")
	sup.Stop()
	wg.Wait()
	log.Info("engine stopped")
	return nil
}

// monitorSignals closes quitChan on the first SIGINT or SIGTERM.
func monitorSignals(quitChan chan struct{}) {
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		fmt.Println("\nReceived shutdown signal, stopping services...")
		close(quitChan)
	}()
}

func closeDataStore(store datastore.Interface) {
	if err := store.Close(); err != nil {
		logging.Error("failed to close datastore", "error", err)
	} else {
		logging.Info("datastore closed")
	}
}
