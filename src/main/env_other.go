//go:build !windows

package main

func enableDPIAwareness() {}

func logMonitorConfiguration() { logDisplays() }
