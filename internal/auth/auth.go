// Package auth resolves the Jira API token used by the upstream transports.
// Several providers are tried in order and the first token found wins.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// TokenEnvVar is the environment variable EnvProvider reads.
const TokenEnvVar = "JIRA_API_TOKEN"

// TokenProvider defines the interface for obtaining a Jira API token.
// Implementations may use different sources (credential helpers, environment variables, etc).
type TokenProvider interface {
	GetToken() (string, error)
}

// CommandProvider obtains tokens by running a credential helper, e.g. `pass show jira`.
// The first line of its standard output is the token.
type CommandProvider struct {
	Command string
}

// GetToken runs the configured command through the shell-free argv split of Command.
// Returns an error if no command is configured, the binary is missing, or it fails.
func (c *CommandProvider) GetToken() (string, error) {
	args := strings.Fields(c.Command)
	if len(args) == 0 {
		return "", errors.New("no credential command configured")
	}

	cmd := exec.Command(args[0], args[1:]...)
	output, err := cmd.Output()
	if err != nil {
		// Check if it's an exec error (binary not found)
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return "", fmt.Errorf("credential command %q not found in PATH", args[0])
		}
		return "", fmt.Errorf("credential command failed: %w", err)
	}

	token, _, _ := strings.Cut(string(output), "\n")
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("credential command returned empty token")
	}
	return token, nil
}

// EnvProvider obtains tokens from the JIRA_API_TOKEN environment variable.
type EnvProvider struct{}

// GetToken reads the JIRA_API_TOKEN environment variable.
// Returns an error if the variable is not set or is empty.
func (e *EnvProvider) GetToken() (string, error) {
	token := strings.TrimSpace(os.Getenv(TokenEnvVar))
	if token == "" {
		return "", errors.New(TokenEnvVar + " environment variable not set or empty")
	}
	return token, nil
}

// StaticProvider returns a token taken from configuration.
type StaticProvider struct {
	Token string
}

// GetToken returns the configured token, or an error when it is empty.
func (s *StaticProvider) GetToken() (string, error) {
	if strings.TrimSpace(s.Token) == "" {
		return "", errors.New("no api token in config")
	}
	return strings.TrimSpace(s.Token), nil
}

// DefaultProviders is the lookup order used when the caller has no preference:
// the configured token, then the environment, then the credential helper.
func DefaultProviders(configToken, command string) []TokenProvider {
	providers := []TokenProvider{&StaticProvider{Token: configToken}, &EnvProvider{}}
	if command != "" {
		providers = append(providers, &CommandProvider{Command: command})
	}
	return providers
}

// GetToken asks each provider in turn and returns the first token obtained.
// If every provider fails, the returned error lists each failure and how to fix it.
func GetToken(providers ...TokenProvider) (string, error) {
	if len(providers) == 0 {
		return "", errors.New("no token providers configured")
	}

	failures := make([]string, 0, len(providers))
	for _, p := range providers {
		token, err := p.GetToken()
		if err == nil {
			return token, nil
		}
		failures = append(failures, err.Error())
	}

	return "", fmt.Errorf(
		"failed to obtain Jira API token (%s).\n"+
			"Please either:\n"+
			"  1. Set the %s environment variable with an API token, or\n"+
			"  2. Set jira.api_token in the config file, or\n"+
			"  3. Set jira.token_command to a credential helper such as 'pass show jira'",
		strings.Join(failures, "; "), TokenEnvVar,
	)
}
