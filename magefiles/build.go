//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the testbed binary for the host platform.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/adamant", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Cross-compiles the testbed binary for Windows, the only platform with a
// native renderer backend.
func (Build) Windows() error {
	if _, err := executeCmd("go",
		withArgs("build", "-o", "bin/adamant.exe", "."),
		withEnv("GOOS=windows", "GOARCH=amd64"),
		withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the whole test suite.
func (Build) Test() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}
