package discord

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/logger"
	"github.com/keshon/botport/pkg/retrylimit"
)

// CommandAPI is the REST call used to publish guild commands.
type CommandAPI interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Credentials identify the application and the guild commands go to.
type Credentials struct {
	Token    string
	ClientID string
	GuildID  string
}

func (c Credentials) missing() []string {
	var out []string
	if c.Token == "" {
		out = append(out, "TOKEN")
	}
	if c.ClientID == "" {
		out = append(out, "CLIENT_ID")
	}
	if c.GuildID == "" {
		out = append(out, "GUILD_ID")
	}
	return out
}

// Publisher bulk-overwrites the guild's commands when their definitions
// changed since the last publish.
type Publisher struct {
	api     CommandAPI
	creds   Credentials
	cache   *HashCache
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config
	log     logger.Logger
}

func NewPublisher(api CommandAPI, creds Credentials, cache *HashCache, log logger.Logger) *Publisher {
	if cache == nil {
		cache, _ = OpenHashCache("")
	}
	p := &Publisher{
		api:     api,
		creds:   creds,
		cache:   cache,
		limiter: retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		retry:   retrylimit.DefaultConfig(),
		log:     log,
	}
	p.retry.Status = restStatus
	p.retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		p.log.Warn("Retrying command registration", "attempt", attempt, "wait", wait, "error", err)
	}
	return p
}

// Publish reports whether a request was sent. Missing credentials and an
// empty command set are logged and skipped.
func (p *Publisher) Publish(ctx context.Context, defs []*discordgo.ApplicationCommand) (bool, error) {
	if missing := p.creds.missing(); len(missing) > 0 {
		p.log.Error("Missing required environment variables for command registration", "missing", missing)
		return false, nil
	}
	if len(defs) == 0 {
		p.log.Warn("No commands to register")
		return false, nil
	}

	hash := hashDefinitions(defs)
	if p.cache.Get(p.creds.GuildID) == hash {
		p.log.Info("Slash commands unchanged, skipping registration", "guild", p.creds.GuildID, "count", len(defs))
		return false, nil
	}

	p.log.Info("Registering slash commands", "guild", p.creds.GuildID, "count", len(defs))
	err := retrylimit.Do(ctx, p.limiter, p.retry, func() error {
		_, err := p.api.ApplicationCommandBulkOverwrite(p.creds.ClientID, p.creds.GuildID, defs, discordgo.WithContext(ctx))
		if err != nil && !retryable(err) {
			return retrylimit.Fatal(err)
		}
		return err
	})
	if err != nil {
		p.log.Error("Failed to register slash commands", "guild", p.creds.GuildID, "error", err)
		p.hint(err)
		return true, err
	}

	if err := p.cache.Put(p.creds.GuildID, hash); err != nil {
		p.log.Warn("Failed to save command cache", "error", err)
	}
	p.log.Success("Successfully registered slash commands", "guild", p.creds.GuildID, "count", len(defs))
	return true, nil
}

func (p *Publisher) hint(err error) {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return
	}
	switch {
	case rest.Message != nil && rest.Message.Code == discordgo.ErrCodeMissingAccess:
		p.log.Debug("Missing access: invite the bot with the applications.commands scope")
	case rest.Message != nil && rest.Message.Code == discordgo.ErrCodeMissingPermissions:
		p.log.Debug("Missing permissions: check the bot's role in the guild")
	case rest.Response != nil && rest.Response.StatusCode == http.StatusUnauthorized:
		p.log.Debug("Unauthorized: check that TOKEN is valid")
	}
}

func restStatus(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return 0
}

// retryable is true for rate limits, server errors and transport errors.
func retryable(err error) bool {
	status := restStatus(err)
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}
