/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queueservice

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	logfields "github.com/zquans/equeue/internal/pkg/log"
	"github.com/zquans/equeue/pkg/broker/queue"
)

// loadExistingQueues repopulates the registry from the on-disk chunk directory
// tree. The layout is <basePath>/<topic>/<queueId>; the queue ID directory name
// must be a decimal integer. A malformed queue directory is a startup fault.
func (s *Service) loadExistingQueues() error {
	basePath := s.cfg.QueueChunkConfig.BasePath

	if basePath == "" {
		return fmt.Errorf("queue chunk base path is not set")
	}

	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return fmt.Errorf("create queue chunk base path [%s]: %w", basePath, err)
	}

	topicDirs, err := readDirNames(basePath)
	if err != nil {
		return err
	}

	for _, topic := range topicDirs {
		queueDirs, err := readDirNames(filepath.Join(basePath, topic))
		if err != nil {
			return err
		}

		for _, name := range queueDirs {
			queueID, err := strconv.Atoi(name)
			if err != nil {
				return fmt.Errorf("malformed queue directory [%s]: %w",
					filepath.Join(basePath, topic, name), err)
			}

			q := queue.New(topic, queueID, basePath)

			if err := q.Load(); err != nil {
				return err
			}

			if !s.registry.TryPut(q) {
				return fmt.Errorf("duplicate queue [%s] found at startup", q.Key())
			}

			logger.Debug("Loaded existing queue", logfields.WithTopic(topic),
				logfields.WithQueueID(queueID), logfields.WithCurrentOffset(q.CurrentOffset()))
		}
	}

	return nil
}

// readDirNames returns the names of the subdirectories of the given directory,
// sorted by case-insensitive ordinal order. Regular files are skipped.
func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory [%s]: %w", dir, err)
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	return names, nil
}
