package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"cwmon/internal/cache"
	"cwmon/internal/cloud"
	"cwmon/internal/config"
	"cwmon/internal/infrastructure/logger"
	"cwmon/internal/metrics"
	"cwmon/internal/request"
	"cwmon/internal/sysstat"
)

const version = "2.0.0"

// Scheduled runs sleep a random number of seconds below this bound before
// doing any work, so a fleet cronned at the same minute does not hit the
// API simultaneously.
const cronJitterMaxSeconds = 20

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "cwmon",
		Usage:   "collects memory, swap, and disk space utilization on an EC2 instance and sends the data as custom metrics to CloudWatch",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "mem-util", Category: "memory metrics", Usage: "Reports memory utilization in percentages."},
			&cli.BoolFlag{Name: "mem-used", Category: "memory metrics", Usage: "Reports memory used in memory units."},
			&cli.BoolFlag{Name: "mem-avail", Category: "memory metrics", Usage: "Reports available memory in memory units."},
			&cli.BoolFlag{Name: "swap-util", Category: "memory metrics", Usage: "Reports swap utilization in percentages."},
			&cli.BoolFlag{Name: "swap-used", Category: "memory metrics", Usage: "Reports allocated swap space in memory units."},
			&cli.BoolFlag{Name: "mem-used-incl-cache-buff", Category: "memory metrics", Usage: "Count memory that is cached and in buffers as used."},
			&cli.StringFlag{Name: "memory-units", Category: "memory metrics", Value: "megabytes", Usage: "Specifies units for memory metrics (bytes, kilobytes, megabytes, gigabytes)."},
			&cli.StringSliceFlag{Name: "disk-path", Category: "disk metrics", Usage: "Selects the disk by the path on which to report. Can be repeated."},
			&cli.BoolFlag{Name: "disk-space-util", Category: "disk metrics", Usage: "Reports disk space utilization in percentages."},
			&cli.BoolFlag{Name: "disk-space-used", Category: "disk metrics", Usage: "Reports allocated disk space in disk space units."},
			&cli.BoolFlag{Name: "disk-space-avail", Category: "disk metrics", Usage: "Reports available disk space in disk space units."},
			&cli.StringFlag{Name: "disk-space-units", Category: "disk metrics", Value: "gigabytes", Usage: "Specifies units for disk space metrics (bytes, kilobytes, megabytes, gigabytes)."},
			&cli.StringFlag{Name: "aggregated", Usage: "Adds aggregated metrics for instance type, AMI id, and overall; MODE is additional or only."},
			&cli.StringFlag{Name: "auto-scaling", Usage: "Adds aggregated metrics for the Auto Scaling group; MODE is additional or only."},
			&cli.BoolFlag{Name: "verify", Usage: "Checks configuration and prepares a remote call without sending metrics."},
			&cli.BoolFlag{Name: "verbose", Usage: "Displays details of what the program is doing."},
			&cli.BoolFlag{Name: "from-cron", Usage: "Specifies that the program runs from cron: output is suppressed and errors go to the system log."},
			&cli.StringFlag{Name: "env-file", Usage: "Loads environment variables from the given file instead of ./.env."},
		},
		Action: func(c *cli.Context) error {
			if c.NumFlags() == 0 {
				cli.ShowAppHelp(c)
				return cli.Exit("", 1)
			}
			if err := run(c); err != nil {
				logError(err, c.Bool("from-cron"))
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// logError routes a fatal error to the channel appropriate for the
// invocation mode: syslog when scheduled, plain stderr when interactive.
// No stack traces on the operator channel either way.
func logError(err error, fromCron bool) {
	if fromCron {
		logger.NewLogger("ERROR", "text", "syslog").Error(err.Error())
		return
	}
	fmt.Fprintln(os.Stderr, "ERROR: "+err.Error())
}

func buildRequest(c *cli.Context) (*request.MetricRequest, error) {
	problems := make(map[string]string, 2)

	aggregated, err := metrics.ParseAggregationMode(c.String("aggregated"))
	if err != nil {
		problems["aggregated"] = err.Error()
	}
	autoScaling, err := metrics.ParseAggregationMode(c.String("auto-scaling"))
	if err != nil {
		problems["auto-scaling"] = err.Error()
	}
	if c.Bool("verbose") && c.Bool("from-cron") {
		problems["from-cron"] = "cannot be combined with --verbose"
	}
	if len(problems) > 0 {
		return nil, request.NewValidationError(problems)
	}

	return &request.MetricRequest{
		MemUtil:              c.Bool("mem-util"),
		MemUsed:              c.Bool("mem-used"),
		MemAvail:             c.Bool("mem-avail"),
		SwapUtil:             c.Bool("swap-util"),
		SwapUsed:             c.Bool("swap-used"),
		MemUsedInclCacheBuff: c.Bool("mem-used-incl-cache-buff"),
		MemoryUnits:          c.String("memory-units"),
		DiskPaths:            c.StringSlice("disk-path"),
		DiskSpaceUtil:        c.Bool("disk-space-util"),
		DiskSpaceUsed:        c.Bool("disk-space-used"),
		DiskSpaceAvail:       c.Bool("disk-space-avail"),
		DiskSpaceUnits:       c.String("disk-space-units"),
		Aggregated:           aggregated,
		AutoScaling:          autoScaling,
	}, nil
}

func run(c *cli.Context) error {
	req, err := buildRequest(c)
	if err != nil {
		return err
	}

	// Validation gates everything: no sampling and no network call happens
	// for a request that cannot be submitted.
	needs, err := req.Validate()
	if err != nil {
		return err
	}

	fromCron := c.Bool("from-cron")
	verbose := c.Bool("verbose")
	interactive := !fromCron

	appLogger := logger.DefaultLogger()
	config.LoadEnvFile(appLogger, c.String("env-file"))
	cfg := config.LoadRuntimeConfig()

	logLevel := cfg.LogLevel
	if verbose {
		logLevel = "DEBUG"
	}
	logOutput := cfg.LogOutput
	if fromCron {
		logOutput = "syslog"
	}
	appLogger = logger.NewLogger(logLevel, cfg.LogFormat, logOutput)
	logger.SetDefaultLogger(appLogger)

	if fromCron {
		// avoid a storm of calls at the beginning of a minute
		time.Sleep(time.Duration(rand.IntN(cronJitterMaxSeconds)) * time.Second)
	}

	appLogger.Debug("Validated request", "needs_memory", needs.Memory, "needs_disk", needs.Disk)

	metadataCache, err := cache.New(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		return err
	}

	ctx := context.Background()

	instance, err := cloud.FetchInstanceContext(ctx, metadataCache)
	if err != nil {
		return err
	}
	appLogger.Debug("Instance metadata",
		"instance_id", instance.InstanceID,
		"instance_type", instance.InstanceType,
		"image_id", instance.ImageID,
		"region", instance.Region)

	if req.AutoScaling != metrics.AggregationNone {
		group, err := cloud.FetchAutoScalingGroup(ctx, metadataCache, instance.Region, instance.InstanceID)
		if err != nil {
			return err
		}
		instance.AutoScalingGroup = group
		appLogger.Debug("Auto Scaling group", "name", group)
	}

	expander := &metrics.Expander{
		InstanceID:       instance.InstanceID,
		InstanceType:     instance.InstanceType,
		ImageID:          instance.ImageID,
		AutoScalingGroup: instance.AutoScalingGroup,
		Aggregated:       req.Aggregated,
	}

	batch := &metrics.Batch{}
	if needs.Memory {
		if err := addMemoryMetrics(ctx, req, expander, batch); err != nil {
			return err
		}
	}
	if needs.Disk {
		if err := addDiskMetrics(ctx, req, expander, batch); err != nil {
			return err
		}
	}

	if verbose {
		fmt.Print("Request:\n" + batch.String())
	}

	if c.Bool("verify") {
		if interactive {
			fmt.Println("Verification completed successfully. No actual metrics sent to CloudWatch.")
		}
		return nil
	}

	submitter, err := cloud.NewSubmitter(ctx, instance.Region, cfg.Namespace)
	if err != nil {
		return err
	}
	if err := submitter.Submit(ctx, batch); err != nil {
		return err
	}
	if interactive {
		fmt.Println("Successfully reported metrics to CloudWatch.")
	}
	return nil
}

func addMemoryMetrics(ctx context.Context, req *request.MetricRequest, expander *metrics.Expander, batch *metrics.Batch) error {
	snap, err := sysstat.ReadMemory(ctx, req.MemUsedInclCacheBuff)
	if err != nil {
		return err
	}
	unit, _ := metrics.UnitByName(req.MemoryUnits)

	if req.MemUtil {
		batch.Add(expander.Expand("MemoryUtilization", metrics.UnitPercent, snap.Util())...)
	}
	if req.MemUsed {
		batch.Add(expander.Expand("MemoryUsed", unit.Name, unit.Convert(snap.Used()))...)
	}
	if req.MemAvail {
		batch.Add(expander.Expand("MemoryAvailable", unit.Name, unit.Convert(snap.Avail()))...)
	}
	if req.SwapUtil {
		batch.Add(expander.Expand("SwapUtilization", metrics.UnitPercent, snap.SwapUtil())...)
	}
	if req.SwapUsed {
		batch.Add(expander.Expand("SwapUsed", unit.Name, unit.Convert(snap.SwapUsed()))...)
	}
	return nil
}

func addDiskMetrics(ctx context.Context, req *request.MetricRequest, expander *metrics.Expander, batch *metrics.Batch) error {
	disks, err := sysstat.ReadDisks(ctx, req.DiskPaths)
	if err != nil {
		return err
	}
	unit, _ := metrics.UnitByName(req.DiskSpaceUnits)

	for _, disk := range disks {
		common := []metrics.Dimension{{Name: "MountPath", Value: disk.Path}}
		if disk.Filesystem != "" {
			common = append(common, metrics.Dimension{Name: "Filesystem", Value: disk.Filesystem})
		}
		if req.DiskSpaceUtil {
			batch.Add(expander.Expand("DiskSpaceUtilization", metrics.UnitPercent, disk.Util(), common...)...)
		}
		if req.DiskSpaceUsed {
			batch.Add(expander.Expand("DiskSpaceUsed", unit.Name, unit.Convert(disk.Used), common...)...)
		}
		if req.DiskSpaceAvail {
			batch.Add(expander.Expand("DiskSpaceAvailable", unit.Name, unit.Convert(disk.Avail), common...)...)
		}
	}
	return nil
}
