/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go-ext/component/storage/mongodb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/spf13/cobra"
	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
	"github.com/zquans/equeue/pkg/broker/event"
	"github.com/zquans/equeue/pkg/broker/queueservice"
	"github.com/zquans/equeue/pkg/observability/metrics"
	"github.com/zquans/equeue/pkg/pubsub/mempubsub"
	"github.com/zquans/equeue/pkg/store/messagestore"
	"github.com/zquans/equeue/pkg/store/offsetstore"
	"github.com/zquans/equeue/pkg/store/queuestore"
	"github.com/zquans/equeue/pkg/taskmgr"
)

var logger = log.New("equeue-server")

const (
	mongoDBConnectMaxRetries = 10
	mongoDBConnectRetryDelay = time.Second
)

// GetStartCmd returns the Cobra start command.
func GetStartCmd() *cobra.Command {
	startCmd := createStartCmd()

	createFlags(startCmd)

	return startCmd
}

func createStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start equeue broker",
		Long:  "Start the equeue message broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getStartCmdParameters(cmd)
			if err != nil {
				return err
			}

			return startServer(parameters)
		},
	}
}

func startServer(parameters *serverParameters) error {
	setLogLevels(logger, parameters.logSpec)

	storageProvider, err := createStorageProvider(parameters)
	if err != nil {
		return err
	}

	queueStore, err := queuestore.New(storageProvider, parameters.broker.QueueChunkConfig.BasePath)
	if err != nil {
		return fmt.Errorf("create queue store: %w", err)
	}

	offsetManager, err := offsetstore.New(storageProvider)
	if err != nil {
		return fmt.Errorf("create offset store: %w", err)
	}

	messageStore := messagestore.New(messagestore.WithBatchLoadSupport())

	pubSub := mempubsub.New(mempubsub.DefaultConfig())

	taskMgr := taskmgr.New()

	queueService := queueservice.New(parameters.broker, queueStore, messageStore, offsetManager, taskMgr,
		queueservice.WithEventPublisher(event.NewPublisher(pubSub)),
		queueservice.WithMetrics(metrics.Get()))

	taskMgr.Start()

	if err := queueService.Start(); err != nil {
		taskMgr.Stop()

		return fmt.Errorf("start queue service: %w", err)
	}

	logger.Info("Started equeue broker",
		logfields.WithBasePath(parameters.broker.QueueChunkConfig.BasePath))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-interrupt

	logger.Info("Shutting down equeue broker ...")

	queueService.Stop()
	taskMgr.Stop()

	if err := pubSub.Close(); err != nil {
		logger.Warn("Error closing publisher/subscriber", log.WithError(err))
	}

	logger.Info("... equeue broker shut down.")

	return nil
}

func createStorageProvider(parameters *serverParameters) (storage.Provider, error) {
	if strings.EqualFold(parameters.databaseType, databaseTypeMemOption) {
		return mem.NewProvider(), nil
	}

	var provider *mongodb.Provider

	err := backoff.Retry(func() error {
		var err error

		provider, err = mongodb.NewProvider(parameters.databaseURL)
		if err != nil {
			return err
		}

		return provider.Ping()
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(mongoDBConnectRetryDelay), mongoDBConnectMaxRetries))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB [%s]: %w", parameters.databaseURL, err)
	}

	return provider, nil
}
