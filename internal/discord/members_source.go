package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/members"
)

const memberPage = 1000

// MemberAPI pages through a guild's member list.
type MemberAPI interface {
	GuildMembers(guildID, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// MemberSource lists the guilds in the session state and fetches their
// members over REST.
type MemberSource struct {
	api   MemberAPI
	state *discordgo.State
}

func NewMemberSource(api MemberAPI, state *discordgo.State) *MemberSource {
	return &MemberSource{api: api, state: state}
}

func (s *MemberSource) Guilds() []members.Guild {
	if s.state == nil {
		return nil
	}
	s.state.RLock()
	defer s.state.RUnlock()
	out := make([]members.Guild, 0, len(s.state.Guilds))
	for _, g := range s.state.Guilds {
		out = append(out, members.Guild{ID: g.ID, Name: g.Name})
	}
	return out
}

func (s *MemberSource) Members(ctx context.Context, guildID string) ([]members.Member, error) {
	var (
		out   []members.Member
		after string
	)
	for {
		page, err := s.api.GuildMembers(guildID, after, memberPage, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			out = append(out, members.Member{
				UserID:   m.User.ID,
				Tag:      userTag(m.User),
				RoleIDs:  m.Roles,
				JoinedAt: m.JoinedAt,
			})
			after = m.User.ID
		}
		if len(page) < memberPage {
			return out, nil
		}
	}
}
