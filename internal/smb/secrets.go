package smb

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const keyringService = "horcruxd-smb"

// StorePassword saves a user's SMB password to the OS keyring, keyed by
// username, so it can be replayed into smbpasswd non-interactively without
// ever touching disk in plaintext.
func StorePassword(username, password string) error {
	return keyring.Set(keyringService, username, password)
}

// LookupPassword retrieves a previously stored password, returning ok=false
// if none is set.
func LookupPassword(username string) (string, bool) {
	val, err := keyring.Get(keyringService, username)
	if err != nil {
		return "", false
	}
	return val, true
}

// ForgetPassword removes a stored password, e.g. after the user is deleted.
func ForgetPassword(username string) error {
	return keyring.Delete(keyringService, username)
}

// PromptPassword reads a password from the controlling terminal without
// echoing it, for interactive CLI use.
func PromptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
