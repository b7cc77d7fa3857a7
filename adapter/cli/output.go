package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/spf13/cobra"
)

// Render prints v as indented JSON when --json is set and calls text
// otherwise.
func Render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// SetJSONOutput overrides --json.
func SetJSONOutput(on bool) {
	jsonOutput = on
}

// ParseAddress parses an address argument named name.
func ParseAddress(name, raw string) (sharedDomain.Address, error) {
	if raw == "" {
		return sharedDomain.ZeroAddress, nil
	}
	addr, err := sharedDomain.ParseAddress(raw)
	if err != nil {
		return sharedDomain.ZeroAddress, fmt.Errorf("invalid %s: %w", name, err)
	}
	return addr, nil
}

// ParseHash parses a hash argument named name.
func ParseHash(name, raw string) (sharedDomain.Hash, error) {
	if raw == "" {
		return sharedDomain.ZeroHash, nil
	}
	hash, err := sharedDomain.ParseHash(raw)
	if err != nil {
		return sharedDomain.ZeroHash, fmt.Errorf("invalid %s: %w", name, err)
	}
	return hash, nil
}

// ParseAmount parses a decimal token amount argument named name.
func ParseAmount(name, raw string) (sharedDomain.Amount, error) {
	if raw == "" {
		return sharedDomain.ZeroAmount, nil
	}
	amount, err := sharedDomain.ParseAmount(raw)
	if err != nil {
		return sharedDomain.ZeroAmount, fmt.Errorf("invalid %s: %w", name, err)
	}
	return amount, nil
}

// FormatTimestamp renders a unix timestamp with its UTC time.
func FormatTimestamp(ts sharedDomain.Timestamp) string {
	return strconv.FormatUint(uint64(ts), 10) + " (" + ts.Time().UTC().Format("2006-01-02 15:04:05") + " UTC)"
}

// Exit codes by failure class.
const (
	ExitError        = 1
	ExitNotFound     = 3
	ExitUnauthorized = 4
	ExitRejected     = 5
	ExitInvalid      = 6
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, sharedDomain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, sharedDomain.ErrUnauthorized):
		return ExitUnauthorized
	case errors.Is(err, sharedDomain.ErrAlreadyTerminated),
		errors.Is(err, sharedDomain.ErrNotDue),
		errors.Is(err, sharedDomain.ErrExpired),
		errors.Is(err, sharedDomain.ErrInvalidCompensation),
		errors.Is(err, sharedDomain.ErrTransferFailed):
		return ExitRejected
	case errors.Is(err, sharedDomain.ErrInvalidParameters):
		return ExitInvalid
	}
	return ExitError
}
