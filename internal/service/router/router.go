// Package router answers administrative questions. Entities extracted from the
// message select one lookup from a fixed, ordered rule table; the lookup
// result is rendered as a chat reply.
package router

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"dormbot/internal/log"
	"dormbot/internal/metrics"
	"dormbot/internal/models"
	"dormbot/internal/service/directory"
	"dormbot/internal/service/nlu"
)

// Rule names, also used as metric and log labels.
const (
	RuleFullName   = "full_name"
	RuleFirstName  = "first_name"
	RuleLastName   = "last_name"
	RuleIdentifier = "identifier"
	RuleRoomNumber = "room_number"
	RuleStartDate  = "start_date"
	RuleEndDate    = "end_date"
	RuleStatus     = "status"
	RuleNoEntities = "no_entities"
	RuleFallback   = "fallback"
	RuleNLUError   = "nlu_error"
)

const (
	MoreSpecificReply  = "I need a little more detail to help you. Please be more specific."
	NotUnderstoodReply = "Sorry, I could not understand your request. Please try rephrasing it."
)

// Directory is the read side the router looks things up in.
type Directory interface {
	FindUsersByName(ctx context.Context, first, last string) ([]directory.Resident, error)
	GetUser(ctx context.Context, id string) (*directory.Resident, error)
	FindRoomsByNumber(ctx context.Context, number string) ([]models.Room, error)
	CurrentTenants(ctx context.Context, roomID string) ([]directory.TenancyDetail, error)
	FindTenancyByDate(ctx context.Context, field directory.DateField, day time.Time) (*directory.TenancyDetail, error)
	FindTenancyByStatus(ctx context.Context, status string) (*directory.TenancyDetail, error)
}

// entitySet holds the first non-empty value seen for each entity type.
type entitySet map[models.EntityType]string

func newEntitySet(entities []models.Entity) entitySet {
	set := make(entitySet, len(entities))
	for _, e := range entities {
		if _, seen := set[e.Type]; seen || e.Value == "" {
			continue
		}
		set[e.Type] = e.Value
	}
	return set
}

func (s entitySet) has(types ...models.EntityType) bool {
	return lo.EveryBy(types, func(t models.EntityType) bool {
		_, ok := s[t]
		return ok
	})
}

type rule struct {
	name    string
	matches func(entitySet) bool
	handle  func(context.Context, entitySet) (string, error)
}

// Result is a rendered reply and the rule that produced it.
type Result struct {
	Text string
	Rule string
}

type Router struct {
	nlu     nlu.Extractor
	dir     Directory
	metrics *metrics.Metrics
	rules   []rule
}

func New(extractor nlu.Extractor, dir Directory, m *metrics.Metrics) *Router {
	r := &Router{nlu: extractor, dir: dir, metrics: m}
	r.rules = r.ruleTable()
	return r
}

// ruleTable lists the lookups in precedence order; the first match wins.
func (r *Router) ruleTable() []rule {
	return []rule{
		{
			name:    RuleFullName,
			matches: func(s entitySet) bool { return s.has(models.EntityFirstName, models.EntityLastName) },
			handle:  r.byFullName,
		},
		{
			name:    RuleFirstName,
			matches: func(s entitySet) bool { return s.has(models.EntityFirstName) },
			handle:  r.byFirstName,
		},
		{
			name:    RuleLastName,
			matches: func(s entitySet) bool { return s.has(models.EntityLastName) },
			handle:  r.byLastName,
		},
		{
			name:    RuleIdentifier,
			matches: func(s entitySet) bool { return s.has(models.EntityIdentifier) },
			handle:  r.byIdentifier,
		},
		{
			name:    RuleRoomNumber,
			matches: func(s entitySet) bool { return s.has(models.EntityRoomNumber) },
			handle:  r.byRoomNumber,
		},
		{
			name:    RuleStartDate,
			matches: func(s entitySet) bool { return s.has(models.EntityStartDate) },
			handle: func(ctx context.Context, s entitySet) (string, error) {
				return r.byDate(ctx, directory.StartDate, s[models.EntityStartDate])
			},
		},
		{
			name:    RuleEndDate,
			matches: func(s entitySet) bool { return s.has(models.EntityEndDate) },
			handle: func(ctx context.Context, s entitySet) (string, error) {
				return r.byDate(ctx, directory.EndDate, s[models.EntityEndDate])
			},
		},
		{
			name:    RuleStatus,
			matches: func(s entitySet) bool { return s.has(models.EntityStatus) },
			handle:  r.byStatus,
		},
		{
			name:    RuleNoEntities,
			matches: func(s entitySet) bool { return len(s) == 0 },
			handle: func(context.Context, entitySet) (string, error) {
				return MoreSpecificReply, nil
			},
		},
		{
			name:    RuleFallback,
			matches: func(entitySet) bool { return true },
			handle: func(context.Context, entitySet) (string, error) {
				return NotUnderstoodReply, nil
			},
		},
	}
}

// Reply extracts entities from message and renders the answer of the first
// matching rule. NLU failures degrade to NotUnderstoodReply; only directory
// failures are returned as errors.
func (r *Router) Reply(ctx context.Context, message string) (Result, error) {
	logger := log.Ctx(ctx)

	entities, err := r.nlu.Extract(ctx, message)
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldRule, RuleNLUError).
			Str("nlu_result", nlu.Result(entities, err)).
			Msg("entity extraction failed")
		r.metrics.ObserveRule(RuleNLUError)
		return Result{Text: NotUnderstoodReply, Rule: RuleNLUError}, nil
	}

	set := newEntitySet(entities)
	for _, rl := range r.rules {
		if !rl.matches(set) {
			continue
		}
		evt := logger.Info()
		if rl.name == RuleNoEntities {
			evt = evt.Str("nlu_result", "empty")
		}
		evt.Str(log.FieldRule, rl.name).
			Int(log.FieldEntities, len(entities)).
			Msg("routing admin query")
		r.metrics.ObserveRule(rl.name)

		text, err := rl.handle(ctx, set)
		if err != nil {
			return Result{Rule: rl.name}, err
		}
		return Result{Text: text, Rule: rl.name}, nil
	}
	// The fallback rule always matches.
	return Result{Text: NotUnderstoodReply, Rule: RuleFallback}, errors.New("no routing rule matched")
}
