package main

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"

	"github.com/xob0t/PixelVault/pkg/config"
)

// resolvePassword returns the -password flag, then $PIXELVAULT_PASSWORD,
// then a terminal prompt. With confirm set the prompt asks twice.
func resolvePassword(flagValue string, confirm bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(config.EnvPassword); env != "" {
		return env, nil
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return "", err
	}
	if !confirm {
		return string(password), nil
	}

	again, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if string(password) != string(again) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password), nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// STDIN is piped, fall back to the controlling terminal.
		tty, err := os.Open("/dev/tty")
		if err != nil {
			if runtime.GOOS == "windows" {
				return nil, fmt.Errorf("password must be set via -password or %s when STDIN is piped", config.EnvPassword)
			}
			return nil, fmt.Errorf("cannot read password: STDIN is piped and /dev/tty is not available, set %s", config.EnvPassword)
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return password, nil
}
