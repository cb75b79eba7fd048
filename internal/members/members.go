// Package members copies every member of every joined guild into the users
// table. Guild member lists are fetched concurrently; rows are written in
// guild order.
package members

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/keshon/botport/internal/errclass"
	"github.com/keshon/botport/internal/logger"
	"github.com/keshon/botport/internal/storage"
)

const progressEvery = 100

type Guild struct {
	ID   string
	Name string
}

type Member struct {
	UserID   string
	Tag      string
	RoleIDs  []string
	JoinedAt time.Time
}

// Source lists the cached guilds and fetches their members.
type Source interface {
	Guilds() []Guild
	Members(ctx context.Context, guildID string) ([]Member, error)
}

// Store persists one member row.
type Store interface {
	UpsertMember(ctx context.Context, m storage.Member) error
}

// Summary counts what one run did.
type Summary struct {
	Guilds    int
	Processed int
	Members   int
	Saved     int
	Halted    bool
}

type Registrar struct {
	source     Source
	store      Store
	classifier *errclass.Classifier
	log        logger.Logger
	workers    int
	exit       func(code int)
}

type Option func(*Registrar)

// WithWorkers bounds the concurrent guild fetches.
func WithWorkers(n int) Option {
	return func(r *Registrar) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithExit replaces the function called with status 1 on a critical error.
func WithExit(fn func(code int)) Option {
	return func(r *Registrar) { r.exit = fn }
}

// New returns a registrar. Without WithExit a critical error only stops the
// run.
func New(source Source, store Store, classifier *errclass.Classifier, log logger.Logger, opts ...Option) *Registrar {
	r := &Registrar{
		source:     source,
		store:      store,
		classifier: classifier,
		log:        log,
		workers:    4,
		exit:       func(int) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type fetched struct {
	members []Member
	err     error
}

// Run registers every member of every guild.
func (r *Registrar) Run(ctx context.Context) Summary {
	guilds := r.source.Guilds()
	sum := Summary{Guilds: len(guilds)}
	r.log.Info("Starting member registration", "servers", len(guilds))
	if len(guilds) == 0 {
		r.log.Warn("Bot is not in any servers - no members to register")
		return sum
	}

	results := r.fetchAll(ctx, guilds)

	for i, g := range guilds {
		res := results[i]
		if res.err != nil {
			if r.critical(res.err, fmt.Sprintf("Fetching members from guild %s (%s)", g.Name, g.ID)) {
				r.log.Error("Critical error during member fetching - stopping bot")
				r.exit(1)
				sum.Halted = true
				return sum
			}
			r.log.Warn("Failed to process server, continuing with other servers", "guild", g.Name)
			continue
		}

		sum.Members += len(res.members)
		r.log.Debug("Found members", "guild", g.Name, "count", len(res.members))
		saved, halted := r.saveGuild(ctx, g, res.members)
		sum.Saved += saved
		if halted {
			sum.Halted = true
			return sum
		}
		sum.Processed++
		r.log.Success("Registered members", "guild", g.Name, "count", saved)
	}

	if sum.Saved > 0 {
		r.log.Success("Member registration complete",
			"members", sum.Saved,
			"servers", fmt.Sprintf("%d/%d", sum.Processed, sum.Guilds))
	} else {
		r.log.Warn("No members were registered - check database connectivity and bot permissions")
		r.log.Info("Make sure the bot has 'View Server Members' permission in your Discord server")
	}
	return sum
}

func (r *Registrar) fetchAll(ctx context.Context, guilds []Guild) []fetched {
	results := make([]fetched, len(guilds))
	wp := workerpool.New(r.workers)
	for i, g := range guilds {
		wp.Submit(func() {
			r.log.Debug("Fetching members from server", "guild", g.Name, "id", g.ID)
			members, err := r.source.Members(ctx, g.ID)
			results[i] = fetched{members: members, err: err}
		})
	}
	wp.StopWait()
	return results
}

func (r *Registrar) saveGuild(ctx context.Context, g Guild, members []Member) (saved int, halted bool) {
	for _, m := range members {
		err := r.store.UpsertMember(ctx, storage.Member{
			UserID:       m.UserID,
			Username:     m.Tag,
			Roles:        strings.Join(m.RoleIDs, ","),
			JoinedServer: storage.FormatJoined(m.JoinedAt),
		})
		if err != nil {
			if r.critical(err, fmt.Sprintf("Saving member %s (%s)", m.Tag, m.UserID)) {
				r.log.Error("Critical database error detected - stopping bot to prevent data corruption")
				r.exit(1)
				return saved, true
			}
			r.log.Warn("Skipping member due to error, continuing", "member", m.Tag)
			continue
		}
		saved++
		if saved%progressEvery == 0 {
			r.log.Debug("Processed members", "guild", g.Name, "progress", fmt.Sprintf("%d/%d", saved, len(members)))
		}
	}
	return saved, false
}

func (r *Registrar) critical(err error, where string) bool {
	return r.classifier.HandleAndCheckCritical(r.log, err, where)
}
