package pool

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/logging"
	"github.com/camsentry/camsentry/internal/storagepool"
)

// Command creates the pool command group for storage pool administration.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Manage storage pools",
	}

	cmd.AddCommand(
		createCommand(settings),
		listCommand(settings),
		setDefaultCommand(settings),
		deleteCommand(settings),
		assignCommand(settings),
	)

	return cmd
}

// withRegistry opens the datastore, builds a registry and runs fn against it.
func withRegistry(settings *conf.Settings, fn func(*storagepool.Registry) error) error {
	logging.Init()

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	return fn(storagepool.NewRegistry(store))
}

func createCommand(settings *conf.Settings) *cobra.Command {
	var (
		path        string
		priority    int
		maxSizeGB   float64
		minFreeGB   float64
		retention   string
		makeDefault bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a new storage pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			retentionHours, err := conf.ParseRetentionPeriod(retention)
			if err != nil {
				return err
			}
			return withRegistry(settings, func(registry *storagepool.Registry) error {
				pool := &datastore.StoragePool{
					Name:          args[0],
					Path:          path,
					Enabled:       true,
					Priority:      priority,
					MaxSizeGB:     maxSizeGB,
					MinFreeGB:     minFreeGB,
					RetentionDays: retentionHours / 24,
				}
				if err := registry.CreatePool(pool, makeDefault); err != nil {
					return err
				}
				fmt.Printf("Created pool %q at %s\n", pool.Name, pool.Path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Directory recordings are written to (required)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Selection priority, lower is preferred")
	cmd.Flags().Float64Var(&maxSizeGB, "maxsize", 0, "Recordings size budget in GB, 0 for unbounded")
	cmd.Flags().Float64Var(&minFreeGB, "minfree", 5, "Minimum free space in GB before the pool counts as full")
	cmd.Flags().StringVar(&retention, "retention", "", "Per-pool retention period such as 30d or 2w, empty inherits the global policy")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this the default pool")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered storage pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(settings, func(registry *storagepool.Registry) error {
				pools, err := registry.GetAllPools()
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tPATH\tSTATUS\tPRIORITY\tFREE GB\tDEFAULT")
				for i := range pools {
					p := &pools[i]
					def := ""
					if p.Default {
						def = "*"
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%.1f\t%s\n",
						p.ID, p.Name, p.Path, p.Status, p.Priority, p.FreeGB, def)
				}
				return w.Flush()
			})
		},
	}
}

func setDefaultCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <name>",
		Short: "Make a pool the default recording target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(settings, func(registry *storagepool.Registry) error {
				pool, err := registry.GetPoolByName(args[0])
				if err != nil {
					return err
				}
				if err := registry.SetDefaultPool(pool.ID); err != nil {
					return err
				}
				fmt.Printf("Pool %q is now the default\n", pool.Name)
				return nil
			})
		},
	}
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a pool from the registry",
		Long:  "Remove a pool from the registry. Recordings on disk are not touched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(settings, func(registry *storagepool.Registry) error {
				pool, err := registry.GetPoolByName(args[0])
				if err != nil {
					return err
				}
				if err := registry.DeletePool(pool.ID); err != nil {
					return err
				}
				fmt.Printf("Deleted pool %q\n", pool.Name)
				return nil
			})
		},
	}
}

func assignCommand(settings *conf.Settings) *cobra.Command {
	var primary bool

	cmd := &cobra.Command{
		Use:   "assign <pool-name> <camera-id>",
		Short: "Assign a camera to a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(settings, func(registry *storagepool.Registry) error {
				pool, err := registry.GetPoolByName(args[0])
				if err != nil {
					return err
				}
				var cameraID uint
				if _, err := fmt.Sscanf(args[1], "%d", &cameraID); err != nil {
					return fmt.Errorf("invalid camera id %q: %w", args[1], err)
				}
				if err := registry.AssignCameraToPool(cameraID, pool.ID, primary); err != nil {
					return err
				}
				fmt.Printf("Assigned camera %d to pool %q\n", cameraID, pool.Name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&primary, "primary", false, "Make this the camera's primary pool")

	return cmd
}
