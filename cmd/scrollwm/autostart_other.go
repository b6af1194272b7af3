//go:build !windows

package main

import "fmt"

func enableAutostart(string) error {
	return fmt.Errorf("autostart registration is only available on Windows")
}

func disableAutostart() error {
	return fmt.Errorf("autostart registration is only available on Windows")
}
