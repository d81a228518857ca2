package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/codescribe/internal/config"
)

// ClientFactory builds an installation-scoped GitHub client. The worker
// calls it once per job, scoped to that job's installation id; clients are
// not shared across jobs.
type ClientFactory func(ctx context.Context, installationID int64) (Client, error)

// NewInstallationClientFactory returns a ClientFactory that authenticates as
// the configured GitHub App and mints a short-lived installation token per
// call.
func NewInstallationClientFactory(cfg *config.Config, logger *slog.Logger) ClientFactory {
	return func(ctx context.Context, installationID int64) (Client, error) {
		return createInstallationClient(ctx, cfg, installationID, logger)
	}
}

func createInstallationClient(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (Client, error) {
	logger.Info("creating GitHub installation client", "installation_id", installationID)

	privateKey, err := os.ReadFile(cfg.GitHub.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", cfg.GitHub.PrivateKeyPath, err)
	}

	// The apps transport signs a JWT as the App itself, which is only good
	// for App-level endpoints such as minting installation tokens.
	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, cfg.GitHub.AppID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	appClient := github.NewClient(&http.Client{Transport: appTransport})

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token for installation ID %d: %w", installationID, err)
	}
	if token.GetToken() == "" {
		return nil, fmt.Errorf("received an empty installation token")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.GetToken()})
	tc := oauth2.NewClient(ctx, ts)
	installationClient := github.NewClient(tc)

	return NewGitHubClient(installationClient, logger), nil
}
