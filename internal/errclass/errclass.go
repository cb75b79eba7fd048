// Package errclass maps errors from the database, the network and Discord to
// a human-readable explanation with a severity. Critical errors halt batch
// work such as member registration.
package errclass

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/keshon/botport/internal/guard"
	"github.com/keshon/botport/internal/logger"
)

type Kind int

const (
	Unknown Kind = iota
	ConnRefused
	AccessDenied
	BadDatabase
	NoSuchTable
	DiscordAPI
	MissingPermissions
	HostNotFound
	Timeout
)

var kindNames = map[Kind]string{
	Unknown:            "UNKNOWN_ERROR",
	ConnRefused:        "ECONNREFUSED",
	AccessDenied:       "ER_ACCESS_DENIED_ERROR",
	BadDatabase:        "ER_BAD_DB_ERROR",
	NoSuchTable:        "ER_NO_SUCH_TABLE",
	DiscordAPI:         "DISCORD_API_ERROR",
	MissingPermissions: "MISSING_PERMISSIONS",
	HostNotFound:       "ENOTFOUND",
	Timeout:            "ETIMEDOUT",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return kindNames[Unknown]
}

type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
)

// Explanation is what an operator sees for a classified error.
type Explanation struct {
	Title       string
	Description string
	Solution    string
	Severity    Severity
}

func defaults() map[Kind]Explanation {
	return map[Kind]Explanation{
		Unknown: {
			Title:       "Unknown Error",
			Description: "An unexpected error occurred. This might be a temporary issue.",
			Solution:    "Check the console for more details. If the problem persists, contact support.",
			Severity:    Medium,
		},
		ConnRefused: {
			Title:       "Database Connection Failed",
			Description: "The bot cannot connect to the database server. This usually means the database is not running or the connection settings are incorrect.",
			Solution:    "Check if your database server is running and verify your connection settings in the .env file (host, port, username, password).",
			Severity:    Critical,
		},
		AccessDenied: {
			Title:       "Database Access Denied",
			Description: "The database credentials are incorrect or the user doesn't have permission to access the database.",
			Solution:    "Verify your database username and password in the .env file. Make sure the user has proper permissions.",
			Severity:    Critical,
		},
		BadDatabase: {
			Title:       "Database Does Not Exist",
			Description: "The specified database name doesn't exist on the server.",
			Solution:    "Create the database or check if the database name in your .env file is correct.",
			Severity:    Critical,
		},
		NoSuchTable: {
			Title:       "Database Table Missing",
			Description: "A required table is missing from the database.",
			Solution:    "Run the database migration scripts to create the required tables, or check if the table name is correct.",
			Severity:    High,
		},
		DiscordAPI: {
			Title:       "Discord API Error",
			Description: "There was an error communicating with Discord's servers.",
			Solution:    "Check your bot token and permissions. If the issue persists, Discord's API might be experiencing issues.",
			Severity:    Medium,
		},
		MissingPermissions: {
			Title:       "Bot Missing Permissions",
			Description: "The bot doesn't have the required permissions to perform this action.",
			Solution:    "Check the bot's role permissions in your Discord server settings.",
			Severity:    Medium,
		},
		HostNotFound: {
			Title:       "Network Connection Error",
			Description: "Cannot resolve the hostname. This could be a network connectivity issue.",
			Solution:    "Check your internet connection and verify the server hostname is correct.",
			Severity:    High,
		},
		Timeout: {
			Title:       "Connection Timeout",
			Description: "The connection to the server timed out.",
			Solution:    "Check your network connection and server availability. The server might be overloaded.",
			Severity:    Medium,
		},
	}
}

type pattern struct {
	substr string
	kind   Kind
}

// Message fragments tried, in order, when no typed match applies.
var defaultPatterns = []pattern{
	{"ECONNREFUSED", ConnRefused},
	{"connection refused", ConnRefused},
	{"Access denied", AccessDenied},
	{"password authentication failed", AccessDenied},
	{"Unknown database", BadDatabase},
	{"doesn't exist", NoSuchTable},
	{"no such table", NoSuchTable},
	{"Missing Permissions", MissingPermissions},
	{"no such host", HostNotFound},
	{"ENOTFOUND", HostNotFound},
	{"ETIMEDOUT", Timeout},
}

// Classifier is configured once by New and read-only afterwards, so it is
// safe for concurrent use.
type Classifier struct {
	table    map[Kind]Explanation
	patterns []pattern
}

type Option func(*Classifier)

// WithExplanation replaces the explanation of kind.
func WithExplanation(kind Kind, e Explanation) Option {
	return func(c *Classifier) { c.table[kind] = e }
}

// WithPattern classifies messages containing substr as kind. Added patterns
// are tried before the built-in ones.
func WithPattern(substr string, kind Kind) Option {
	return func(c *Classifier) {
		c.patterns = append([]pattern{{substr, kind}}, c.patterns...)
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{
		table:    defaults(),
		patterns: append([]pattern(nil), defaultPatterns...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the kind of err and its explanation.
func (c *Classifier) Classify(err error) (Kind, Explanation) {
	kind := c.kind(err)
	if e, ok := c.table[kind]; ok {
		return kind, e
	}
	return kind, c.table[Unknown]
}

// IsCritical reports whether err classifies as critical.
func (c *Classifier) IsCritical(err error) bool {
	_, e := c.Classify(err)
	return e.Severity == Critical
}

func (c *Classifier) kind(err error) Kind {
	if err == nil {
		return Unknown
	}
	if k, ok := typed(err); ok {
		return k
	}
	msg := err.Error()
	for _, p := range c.patterns {
		if strings.Contains(msg, p.substr) {
			return p.kind
		}
	}
	return Unknown
}

func typed(err error) (Kind, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "28P01", "28000":
			return AccessDenied, true
		case "3D000":
			return BadDatabase, true
		case "42P01":
			return NoSuchTable, true
		}
	}

	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() & 0xff {
		case sqlite3.SQLITE_AUTH, sqlite3.SQLITE_PERM:
			return AccessDenied, true
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB:
			return BadDatabase, true
		}
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeMissingPermissions {
			return MissingPermissions, true
		}
		return DiscordAPI, true
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ConnRefused, true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return HostNotFound, true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return Timeout, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout, true
	}
	return Unknown, false
}

// Report logs the explanation of err. Technical details are added for
// critical errors and in debug mode.
func (c *Classifier) Report(log logger.Logger, err error, where string) Explanation {
	kind, e := c.Classify(err)
	log.Error(e.Title,
		"context", where,
		"description", e.Description,
		"solution", e.Solution,
		"severity", strings.ToUpper(string(e.Severity)))

	if !log.DebugEnabled() && e.Severity != Critical {
		return e
	}
	details := []any{"code", kind.String(), "error", err}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		details = append(details, "sql_state", string(pqErr.Code), "detail", pqErr.Detail)
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		details = append(details, "errno", sqlErr.Code())
	}
	log.Error("Technical details", details...)
	if log.DebugEnabled() {
		if stack := guard.Stack(err); stack != "" {
			log.Debug("Full error details", "stack", stack)
		}
	}
	return e
}

// HandleAndCheckCritical reports err and returns whether it is critical.
func (c *Classifier) HandleAndCheckCritical(log logger.Logger, err error, where string) bool {
	return c.Report(log, err, where).Severity == Critical
}
