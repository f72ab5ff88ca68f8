package handlers

import (
	"bytes"
	"testing"
)

// saveAndRestoreFactories saves all factory variables and restores them after the test.
func saveAndRestoreFactories(t *testing.T) *bytes.Buffer {
	t.Helper()

	origLoadEnvFile := loadEnvFile
	origLoadConfig := loadConfig
	origLocalHostname := localHostname
	origCheckNode := checkNode
	origOpenLog := openLog
	origNewRunner := newRunner
	origLoadCheckpoint := loadCheckpoint
	origNewStages := newStages
	origRunTUI := runTUI
	origStdout := stdout
	origNewPreparer := newPreparer
	origFileExists := fileExists
	origConfirmOverwrite := confirmOverwrite
	origRunWizard := runWizard
	origWriteConfig := writeConfig
	origReadKubeconfig := readKubeconfig
	origNewNodeLister := newNodeLister
	origNewReleaseReader := newReleaseReader

	t.Cleanup(func() {
		loadEnvFile = origLoadEnvFile
		loadConfig = origLoadConfig
		localHostname = origLocalHostname
		checkNode = origCheckNode
		openLog = origOpenLog
		newRunner = origNewRunner
		loadCheckpoint = origLoadCheckpoint
		newStages = origNewStages
		runTUI = origRunTUI
		stdout = origStdout
		newPreparer = origNewPreparer
		fileExists = origFileExists
		confirmOverwrite = origConfirmOverwrite
		runWizard = origRunWizard
		writeConfig = origWriteConfig
		readKubeconfig = origReadKubeconfig
		newNodeLister = origNewNodeLister
		newReleaseReader = origNewReleaseReader
	})

	out := &bytes.Buffer{}
	stdout = out
	return out
}
