package cleanup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/diskmanager"
	"github.com/camsentry/camsentry/internal/logging"
	"github.com/camsentry/camsentry/internal/storagepool"
)

// Command creates the cleanup command for one-shot retention passes.
func Command(settings *conf.Settings) *cobra.Command {
	var cameraID uint

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run retention policies once",
		Long:  "Apply the age and size retention policies to the recordings directory and exit. With --camera, delete all unlocked recordings of one camera instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(settings, cameraID)
		},
	}

	cmd.Flags().UintVar(&cameraID, "camera", 0, "Delete all unlocked recordings of this camera instead of running the retention policies")

	return cmd
}

func runCleanup(settings *conf.Settings, cameraID uint) error {
	logging.Init()

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	manager := diskmanager.NewManager(store)
	quit := make(chan struct{})

	if cameraID > 0 {
		result, err := manager.CleanupCamera(cameraID, quit)
		if err != nil {
			return err
		}
		fmt.Printf("Camera %d: deleted %d files, freed %d bytes, skipped %d locked\n",
			cameraID, result.FilesDeleted, result.BytesFreed, result.Skipped)
		return nil
	}

	registry := storagepool.NewRegistry(store)
	manager.SetPoolCleanup(func(quit <-chan struct{}) []diskmanager.CleanupResult {
		results, err := registry.CleanupPools(quit, store)
		if err != nil {
			fmt.Printf("Pool cleanup failed: %v\n", err)
		}
		return results
	})

	for _, result := range manager.RunCleanup(quit) {
		fmt.Printf("Policy %s: deleted %d files, freed %d bytes, skipped %d, %d files (%d bytes) remaining\n",
			result.Policy, result.FilesDeleted, result.BytesFreed, result.Skipped,
			result.RemainingFiles, result.RemainingBytes)
	}

	info := manager.StorageInfo()
	fmt.Printf("Storage: %d recordings totaling %d bytes, %d of %d bytes free on volume\n",
		info.RecordingsCount, info.RecordingsBytes, info.FreeBytes, info.TotalBytes)
	return nil
}
