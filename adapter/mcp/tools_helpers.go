package mcp

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

var errNoStorage = errors.New("router requires a storage connection")

// resolveCaller returns raw when given and the server's default caller
// otherwise.
func resolveCaller(app *cli.App, raw string) (sharedDomain.Address, error) {
	if raw != "" {
		return parseAddress("caller", raw)
	}
	if app.Caller.IsZero() {
		return sharedDomain.ZeroAddress, errors.New("caller is required")
	}
	return app.Caller, nil
}

func parseAddress(name, value string) (sharedDomain.Address, error) {
	if value == "" {
		return sharedDomain.ZeroAddress, fmt.Errorf("%s is required", name)
	}
	addr, err := sharedDomain.ParseAddress(value)
	if err != nil {
		return sharedDomain.ZeroAddress, fmt.Errorf("invalid %s: %w", name, err)
	}
	return addr, nil
}

func parseOptionalAddress(name, value string) (sharedDomain.Address, error) {
	if value == "" {
		return sharedDomain.ZeroAddress, nil
	}
	return parseAddress(name, value)
}

func parseHash(name, value string) (sharedDomain.Hash, error) {
	if value == "" {
		return sharedDomain.ZeroHash, fmt.Errorf("%s is required", name)
	}
	hash, err := sharedDomain.ParseHash(value)
	if err != nil {
		return sharedDomain.ZeroHash, fmt.Errorf("invalid %s: %w", name, err)
	}
	return hash, nil
}

func parseOptionalHash(name, value string) (sharedDomain.Hash, error) {
	if value == "" {
		return sharedDomain.ZeroHash, nil
	}
	return parseHash(name, value)
}

func parseAmount(name, value string) (sharedDomain.Amount, error) {
	if value == "" {
		return sharedDomain.ZeroAmount, nil
	}
	amount, err := sharedDomain.ParseAmount(value)
	if err != nil {
		return sharedDomain.ZeroAmount, fmt.Errorf("invalid %s: %w", name, err)
	}
	return amount, nil
}
