// Package testsupport provides fixtures shared by package tests: temp-dir
// configs, stub binaries, SRT writers, and a recording command runner.
package testsupport
