// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package assets

import (
	"path/filepath"
	"runtime"
)

// GetPathToAssetsDir returns the absolute path of the directory holding this
// file, so tests in any package can share the fixtures kept under it
func GetPathToAssetsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filename)
}

// AssetsRootDir is the absolute path to `assets/`
var AssetsRootDir = GetPathToAssetsDir()

// ConfigFixture returns the path of a named HCL fixture under assets/test/config
func ConfigFixture(name string) string {
	return filepath.Join(AssetsRootDir, "test", "config", name)
}
