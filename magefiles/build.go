//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for nexus.
//
//	mage build    Compile the nexus binary to bin/
//	mage test     Run every test with the race detector
//	mage cover    Write coverage.out and print the per-function summary
//	mage lint     Run golangci-lint
//	mage seed     Build, then initialize and seed a store in .nexus-db
//	mage clean    Remove build artifacts and the local store
//	mage install  Install nexus to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "nexus"
	binaryDir  = "bin"
	cmdDir     = "./cmd/nexus"
	localStore = ".nexus-db"
	localConf  = ".nexus"
)

// Build compiles the nexus binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Seed initializes a local store under .nexus-db with config in .nexus.
func Seed() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName),
		"--config-dir", localConf, "--data-dir", localStore, "init")
}

// Clean removes build artifacts and the local store.
func Clean() error {
	for _, dir := range []string{binaryDir, localStore} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
