package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/cache"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/checkpoint"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/checkpointsource"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/committer"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/hub"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/metrics"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/query"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/router"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/rpc"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/schema"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/submit"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/vm"
)

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP/RPC ingress listen address")
}

// serveCmd wires every component in spec §2's data-flow diagram together
// and runs until a shutdown signal arrives, the same
// cobra-subcommand-as-a-long-running-server shape as the teacher's
// `warren manager start`/`warren worker start` commands.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Index the checkpoint stream and serve the query/submission/RPC surface",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.WithComponent("serve")

	if err := cfg.Validate(); err != nil {
		return err
	}

	schemaJSON, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		return err
	}
	sch, err := schema.Load(schemaJSON)
	if err != nil {
		return err
	}
	if cfg.PackageID != "" {
		sch.SetPackageID(cfg.PackageID)
	}

	store, err := committer.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Force {
		if !cfg.IsLocalDatabase() {
			logger.Fatal().Msg("--force is refused against a non-local --database-url")
		}
		for _, t := range sch.Tables {
			if _, err := store.DB().ExecContext(cmd.Context(), "DROP TABLE IF EXISTS store_"+t.Name+";"); err != nil {
				return err
			}
		}
	}
	if err := store.Migrate(cmd.Context(), sch.DDL()); err != nil {
		return err
	}

	remote := cache.NewJSONRPCRemote(cfg.SuiRPCURL)
	objectCache := cache.New(remote, cfg.WorkerPoolNumber)
	defer objectCache.Close()

	if cfg.DubheObjectID != "" && cfg.DubhePackageID != "" {
		hubID, err := cache.ParseObjectId(cfg.DubheObjectID)
		if err != nil {
			return err
		}
		dubhePkg, err := cache.ParseObjectId(cfg.DubhePackageID)
		if err != nil {
			return err
		}
		appPkg, err := cache.ParseObjectId(sch.PackageID)
		if err != nil {
			return err
		}
		primeCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		err = cache.InitializeCache(primeCtx, objectCache, remote, hubID, dubhePkg, appPkg)
		cancel()
		if err != nil {
			return err
		}
	}

	h := hub.New()
	processor := checkpoint.NewProcessor(sch, h)
	commit := committer.NewCommitter(store)

	// The linked Move VM is an explicit external collaborator (spec §1);
	// see pkg/vm.UnlinkedMoveVM. Replace this with a real binding to run
	// actual simulations.
	driver := vm.NewDriver(vm.UnlinkedMoveVM{ProtocolVersion: 1})

	collector := metrics.NewCollector(objectCache, h)
	collector.Start()
	defer collector.Stop()

	submitHandler := submit.NewHandler(driver, objectCache, processor, commit)
	queryService := query.NewService(store)
	rpcService := rpc.NewService(queryService, h)

	grpcServer := grpc.NewServer()
	rpc.RegisterIndexerServer(grpcServer, rpcService)

	handler := router.New(router.Options{
		Submit:  submitHandler,
		RPC:     http.HandlerFunc(grpcServer.ServeHTTP),
		Version: Version,
	})

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", listenAddr).Msg("serving HTTP/RPC ingress")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		errCh <- runCheckpointPipeline(ctx, sch, processor, commit)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("fatal pipeline error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()

	return nil
}

// runCheckpointPipeline drives the checkpoint-stream reader (spec §4.4),
// processing and committing checkpoints one at a time in strictly
// ascending sequence order, until ctx is cancelled or the source/processor/
// committer reports an unrecoverable error (spec §7 "Pipeline errors
// bubble to the pipeline task and terminate that pipeline").
func runCheckpointPipeline(ctx context.Context, sch *schema.Schema, processor *checkpoint.Processor, commit *committer.Committer) error {
	start := cfg.StartCheckpoint
	if start == 0 {
		start = sch.StartCheckpoint
	}

	var source checkpoint.Source = checkpointsource.NewPoller(cfg.SuiRPCURL, start)
	logger := log.WithComponent("checkpoint-pipeline")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		cp, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		batches, err := processor.Process(ctx, *cp)
		if err != nil {
			return err
		}
		if err := commit.Commit(ctx, cp.Sequence, batches); err != nil {
			return err
		}
		logger.Debug().Uint64("sequence", cp.Sequence).Int("rows", len(batches)).Msg("checkpoint indexed")
	}
}
