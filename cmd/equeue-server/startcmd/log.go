/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"fmt"

	"github.com/trustbloc/logutil-go/pkg/log"
)

const (
	// logLevelFlagName is the flag name used for setting the default log level.
	logLevelFlagName = "log-level"
	// logLevelEnvKey is the env var name used for setting the default log level.
	logLevelEnvKey = "EQUEUE_LOG_LEVEL"
	// logLevelFlagUsage is the usage text for the log level flag.
	logLevelFlagUsage = "Sets logging levels for individual modules as well as the default level. " +
		"The format of the string is as follows: module1=level1:module2=level2:defaultLevel. " +
		"Supported levels are: ERROR, WARNING, INFO, DEBUG. " +
		"Example: queue-service=INFO:task-manager=WARNING:DEBUG. " +
		"Defaults to info if not set. Setting to debug may adversely impact performance. " +
		commonEnvVarUsageText + logLevelEnvKey
)

const logSpecErrorMsg = `Invalid log spec. It needs to be in the following format: "ModuleName1=Level1` +
	`:ModuleName2=Level2:ModuleNameN=LevelN:AllOtherModuleDefaultLevel"
Valid log levels: error,warn,info,debug
Error: %s`

// setLogLevels sets the log levels for individual modules as well as the default level.
func setLogLevels(logger *log.Log, logSpec string) {
	if logSpec == "" {
		return
	}

	if err := log.SetSpec(logSpec); err != nil {
		logger.Warn(fmt.Sprintf(logSpecErrorMsg, err.Error()))

		log.SetDefaultLevel(log.INFO)
	}
}
