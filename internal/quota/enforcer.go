package quota

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kdufoot/kdufoot/internal/cache"
	"github.com/kdufoot/kdufoot/internal/permissions"
	"github.com/kdufoot/kdufoot/pkg/logger"
	"github.com/kdufoot/kdufoot/pkg/metrics"
)

var (
	// ErrQuotaExceeded is matched by every *ExceededError.
	ErrQuotaExceeded = errors.New("quota: limit exceeded")
	// ErrNoLimit is returned when adjusting a permission that has no rule.
	ErrNoLimit = errors.New("quota: permission has no limit")
)

// ExceededError reports the counter state that caused a rejection.
type ExceededError struct {
	Permission permissions.Permission
	Used       int64
	Limit      int64
	ResetsAt   time.Time
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota: %s used %d of %d until %s", e.Permission, e.Used, e.Limit, e.ResetsAt.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrQuotaExceeded) hold.
func (e *ExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// Usage is a snapshot of one subject's counter for one permission.
type Usage struct {
	Permission permissions.Permission `json:"permission"`
	Unlimited  bool                   `json:"unlimited"`
	Period     Period                 `json:"period,omitempty"`
	Used       int64                  `json:"used"`
	Limit      int64                  `json:"limit,omitempty"`
	Remaining  int64                  `json:"remaining"`
	ResetsAt   *time.Time             `json:"resets_at,omitempty"`
}

// Option customises an Enforcer.
type Option func(*Enforcer)

// WithClock overrides the time source used to pick periods.
func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger used for store failures.
func WithLogger(log *zap.Logger) Option {
	return func(e *Enforcer) {
		if log != nil {
			e.log = log
		}
	}
}

// Enforcer tracks per-subject usage of rate limited permissions in a cache.Store.
type Enforcer struct {
	store cache.Store
	rules map[permissions.Permission]Rule
	now   func() time.Time
	log   *zap.Logger
}

// NewEnforcer validates rules and binds them to store.
func NewEnforcer(store cache.Store, rules []Rule, opts ...Option) (*Enforcer, error) {
	if store == nil {
		return nil, errors.New("quota: store is required")
	}

	e := &Enforcer{
		store: store,
		rules: make(map[permissions.Permission]Rule, len(rules)),
		now:   time.Now,
		log:   logger.WithModule("quota"),
	}
	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
		if _, dup := e.rules[rule.Permission]; dup {
			return nil, fmt.Errorf("quota: duplicate rule for %s", rule.Permission)
		}
		e.rules[rule.Permission] = rule
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Rule returns the rule registered for permission.
func (e *Enforcer) Rule(permission permissions.Permission) (Rule, bool) {
	rule, ok := e.rules[permission]
	return rule, ok
}

// Rules lists every rule ordered by permission.
func (e *Enforcer) Rules() []Rule {
	out := make([]Rule, 0, len(e.rules))
	for _, rule := range e.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Permission < out[j].Permission })
	return out
}

// Status reports the current usage without consuming anything.
func (e *Enforcer) Status(ctx context.Context, subject string, permission permissions.Permission) (Usage, error) {
	rule, ok, err := e.lookup(subject, permission)
	if err != nil {
		return Usage{}, err
	}
	if !ok {
		return Usage{Permission: permission, Unlimited: true}, nil
	}

	now := e.now()
	raw, found, err := e.store.Get(ctx, Key(subject, permission, rule.Period, now))
	if err != nil {
		return Usage{}, fmt.Errorf("quota: read counter: %w", err)
	}

	var used int64
	if found {
		used, err = strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			return Usage{}, fmt.Errorf("quota: corrupt counter for %s: %w", permission, err)
		}
	}
	return rule.usage(used, now), nil
}

// Consume records one use of permission. When the new count exceeds the limit it
// returns the usage together with an *ExceededError.
func (e *Enforcer) Consume(ctx context.Context, subject string, permission permissions.Permission) (Usage, error) {
	rule, ok, err := e.lookup(subject, permission)
	if err != nil {
		return Usage{}, err
	}
	if !ok {
		metrics.QuotaConsumptions.WithLabelValues(string(permission), "unlimited").Inc()
		return Usage{Permission: permission, Unlimited: true}, nil
	}

	now := e.now()
	_, resetsAt := rule.Period.window(now)
	count, _, err := e.store.IncrementWithTTL(ctx, Key(subject, permission, rule.Period, now), resetsAt.Sub(now))
	if err != nil {
		metrics.QuotaConsumptions.WithLabelValues(string(permission), "error").Inc()
		e.log.Error("quota counter increment failed",
			zap.String("subject", subject),
			zap.String("permission", string(permission)),
			zap.Error(err),
		)
		return Usage{}, fmt.Errorf("quota: increment counter: %w", err)
	}

	usage := rule.usage(count, now)
	if count > rule.Limit {
		metrics.QuotaConsumptions.WithLabelValues(string(permission), "exceeded").Inc()
		return usage, &ExceededError{
			Permission: permission,
			Used:       usage.Used,
			Limit:      rule.Limit,
			ResetsAt:   resetsAt,
		}
	}

	metrics.QuotaConsumptions.WithLabelValues(string(permission), "consumed").Inc()
	return usage, nil
}

// Adjust overwrites the current period's counter, for support staff crediting
// back uses. used is capped at the limit; zero clears the counter.
func (e *Enforcer) Adjust(ctx context.Context, subject string, permission permissions.Permission, used int64) (Usage, error) {
	if used < 0 {
		return Usage{}, errors.New("quota: usage cannot be negative")
	}
	rule, ok, err := e.lookup(subject, permission)
	if err != nil {
		return Usage{}, err
	}
	if !ok {
		return Usage{}, fmt.Errorf("%w: %s", ErrNoLimit, permission)
	}

	now := e.now()
	key := Key(subject, permission, rule.Period, now)
	used = min(used, rule.Limit)
	if used == 0 {
		if err := e.store.Delete(ctx, key); err != nil {
			return Usage{}, fmt.Errorf("quota: clear counter: %w", err)
		}
		return rule.usage(0, now), nil
	}

	_, resetsAt := rule.Period.window(now)
	if err := e.store.Set(ctx, key, []byte(strconv.FormatInt(used, 10)), resetsAt.Sub(now)); err != nil {
		return Usage{}, fmt.Errorf("quota: write counter: %w", err)
	}
	e.log.Info("quota counter adjusted",
		zap.String("subject", subject),
		zap.String("permission", string(permission)),
		zap.Int64("used", used),
	)
	return rule.usage(used, now), nil
}

// Reset clears the current period's counter.
func (e *Enforcer) Reset(ctx context.Context, subject string, permission permissions.Permission) (Usage, error) {
	return e.Adjust(ctx, subject, permission, 0)
}

func (e *Enforcer) lookup(subject string, permission permissions.Permission) (Rule, bool, error) {
	if strings.TrimSpace(subject) == "" {
		return Rule{}, false, errors.New("quota: subject is required")
	}
	if !permissions.IsRegistered(permission) {
		return Rule{}, false, fmt.Errorf("quota: %w %q", permissions.ErrUnknownPermission, permission)
	}
	rule, ok := e.rules[permission]
	return rule, ok, nil
}

// usage clamps count to the limit; rejected attempts still bump the stored counter.
func (r Rule) usage(count int64, now time.Time) Usage {
	_, resetsAt := r.Period.window(now)
	used := min(count, r.Limit)
	return Usage{
		Permission: r.Permission,
		Period:     r.Period,
		Used:       used,
		Limit:      r.Limit,
		Remaining:  r.Limit - used,
		ResetsAt:   &resetsAt,
	}
}
