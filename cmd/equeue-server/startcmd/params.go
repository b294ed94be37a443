/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zquans/equeue/internal/pkg/cmdutil"
	"github.com/zquans/equeue/pkg/config"
)

const (
	basePathFlagName  = "chunk-base-path"
	basePathEnvKey    = "EQUEUE_CHUNK_BASE_PATH"
	basePathFlagUsage = "The filesystem root holding the <basePath>/<topic>/<queueId> chunk directory layout. " +
		commonEnvVarUsageText + basePathEnvKey

	databaseTypeFlagName  = "database-type"
	databaseTypeEnvKey    = "EQUEUE_DATABASE_TYPE"
	databaseTypeFlagUsage = "The type of database to use for queue metadata and consumer offsets. " +
		"Supported options: mem, mongodb. Defaults to mem. " + commonEnvVarUsageText + databaseTypeEnvKey

	databaseURLFlagName  = "database-url"
	databaseURLEnvKey    = "EQUEUE_DATABASE_URL"
	databaseURLFlagUsage = "The URL of the database. Not needed if using mem. " +
		commonEnvVarUsageText + databaseURLEnvKey

	topicMaxQueueCountFlagName  = "topic-max-queue-count"
	topicMaxQueueCountEnvKey    = "EQUEUE_TOPIC_MAX_QUEUE_COUNT"
	topicMaxQueueCountFlagUsage = "The upper bound on the number of queues per topic. " +
		commonEnvVarUsageText + topicMaxQueueCountEnvKey

	topicDefaultQueueCountFlagName  = "topic-default-queue-count"
	topicDefaultQueueCountEnvKey    = "EQUEUE_TOPIC_DEFAULT_QUEUE_COUNT"
	topicDefaultQueueCountFlagUsage = "The number of queues created when a topic is auto-created. " +
		commonEnvVarUsageText + topicDefaultQueueCountEnvKey

	autoCreateTopicFlagName  = "auto-create-topic"
	autoCreateTopicEnvKey    = "EQUEUE_AUTO_CREATE_TOPIC"
	autoCreateTopicFlagUsage = "Create an unknown topic on demand when a producer or consumer first uses it. " +
		"Defaults to true. " + commonEnvVarUsageText + autoCreateTopicEnvKey

	reclaimIntervalFlagName  = "remove-consumed-queue-index-interval"
	reclaimIntervalEnvKey    = "EQUEUE_REMOVE_CONSUMED_QUEUE_INDEX_INTERVAL"
	reclaimIntervalFlagUsage = "The tick period of the consumed-index reclamation task. " +
		commonEnvVarUsageText + reclaimIntervalEnvKey

	evictIntervalFlagName  = "remove-exceed-max-cache-queue-index-interval"
	evictIntervalEnvKey    = "EQUEUE_REMOVE_EXCEED_MAX_CACHE_QUEUE_INDEX_INTERVAL"
	evictIntervalFlagUsage = "The tick period of the exceed-cache eviction task. " +
		commonEnvVarUsageText + evictIntervalEnvKey

	maxCacheSizeFlagName  = "queue-index-max-cache-size"
	maxCacheSizeEnvKey    = "EQUEUE_QUEUE_INDEX_MAX_CACHE_SIZE"
	maxCacheSizeFlagUsage = "The ceiling on the aggregate number of resident queue index entries. " +
		commonEnvVarUsageText + maxCacheSizeEnvKey

	commonEnvVarUsageText = "Alternatively, this can be set with the following environment variable: "
)

const (
	databaseTypeMemOption     = "mem"
	databaseTypeMongoDBOption = "mongodb"
)

type serverParameters struct {
	broker       *config.Broker
	databaseType string
	databaseURL  string
	logSpec      string
}

func getStartCmdParameters(cmd *cobra.Command) (*serverParameters, error) {
	basePath, err := cmdutil.GetUserSetVarFromString(cmd, basePathFlagName, basePathEnvKey, false)
	if err != nil {
		return nil, err
	}

	databaseType := cmdutil.GetUserSetOptionalVarFromString(cmd, databaseTypeFlagName, databaseTypeEnvKey)
	if databaseType == "" {
		databaseType = databaseTypeMemOption
	}

	if !strings.EqualFold(databaseType, databaseTypeMemOption) &&
		!strings.EqualFold(databaseType, databaseTypeMongoDBOption) {
		return nil, fmt.Errorf("unsupported database type: %s", databaseType)
	}

	databaseURL := cmdutil.GetUserSetOptionalVarFromString(cmd, databaseURLFlagName, databaseURLEnvKey)

	if strings.EqualFold(databaseType, databaseTypeMongoDBOption) && databaseURL == "" {
		return nil, fmt.Errorf("%s is required when using %s", databaseURLFlagName, databaseTypeMongoDBOption)
	}

	broker := config.NewBroker(basePath)

	broker.TopicMaxQueueCount, err = cmdutil.GetInt(cmd, topicMaxQueueCountFlagName,
		topicMaxQueueCountEnvKey, config.DefaultTopicMaxQueueCount)
	if err != nil {
		return nil, err
	}

	broker.TopicDefaultQueueCount, err = cmdutil.GetInt(cmd, topicDefaultQueueCountFlagName,
		topicDefaultQueueCountEnvKey, config.DefaultTopicDefaultQueueCount)
	if err != nil {
		return nil, err
	}

	broker.AutoCreateTopic, err = cmdutil.GetBool(cmd, autoCreateTopicFlagName, autoCreateTopicEnvKey, true)
	if err != nil {
		return nil, err
	}

	broker.RemoveConsumedQueueIndexInterval, err = cmdutil.GetDuration(cmd, reclaimIntervalFlagName,
		reclaimIntervalEnvKey, config.DefaultRemoveConsumedQueueIndexInterval)
	if err != nil {
		return nil, err
	}

	broker.RemoveExceedMaxCacheQueueIndexInterval, err = cmdutil.GetDuration(cmd, evictIntervalFlagName,
		evictIntervalEnvKey, config.DefaultRemoveExceedMaxCacheQueueIndexInterval)
	if err != nil {
		return nil, err
	}

	broker.QueueIndexMaxCacheSize, err = cmdutil.GetInt64(cmd, maxCacheSizeFlagName,
		maxCacheSizeEnvKey, config.DefaultQueueIndexMaxCacheSize)
	if err != nil {
		return nil, err
	}

	if broker.TopicMaxQueueCount <= 0 {
		return nil, fmt.Errorf("%s must be positive", topicMaxQueueCountFlagName)
	}

	if broker.TopicDefaultQueueCount <= 0 || broker.TopicDefaultQueueCount > broker.TopicMaxQueueCount {
		return nil, fmt.Errorf("%s must be between 1 and %d", topicDefaultQueueCountFlagName,
			broker.TopicMaxQueueCount)
	}

	if broker.RemoveConsumedQueueIndexInterval <= 0 ||
		broker.RemoveExceedMaxCacheQueueIndexInterval <= 0 {
		return nil, fmt.Errorf("maintenance intervals must be positive")
	}

	return &serverParameters{
		broker:       broker,
		databaseType: strings.ToLower(databaseType),
		databaseURL:  databaseURL,
		logSpec:      cmdutil.GetUserSetOptionalVarFromString(cmd, logLevelFlagName, logLevelEnvKey),
	}, nil
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(basePathFlagName, "", "", basePathFlagUsage)
	startCmd.Flags().StringP(databaseTypeFlagName, "", "", databaseTypeFlagUsage)
	startCmd.Flags().StringP(databaseURLFlagName, "", "", databaseURLFlagUsage)
	startCmd.Flags().StringP(topicMaxQueueCountFlagName, "", "", topicMaxQueueCountFlagUsage)
	startCmd.Flags().StringP(topicDefaultQueueCountFlagName, "", "", topicDefaultQueueCountFlagUsage)
	startCmd.Flags().StringP(autoCreateTopicFlagName, "", "", autoCreateTopicFlagUsage)
	startCmd.Flags().StringP(reclaimIntervalFlagName, "", "", reclaimIntervalFlagUsage)
	startCmd.Flags().StringP(evictIntervalFlagName, "", "", evictIntervalFlagUsage)
	startCmd.Flags().StringP(maxCacheSizeFlagName, "", "", maxCacheSizeFlagUsage)
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
}
