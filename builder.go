package authkit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/skillforge/authkit/exchange"
	internalaudit "github.com/skillforge/authkit/internal/audit"
	internalmetrics "github.com/skillforge/authkit/internal/metrics"
	"github.com/skillforge/authkit/permission"
	"github.com/skillforge/authkit/provider"
	"github.com/skillforge/authkit/store"
)

// Builder assembles a [Manager]. Configure it with the With* methods and
// call Build exactly once.
type Builder struct {
	config Config

	redis  *redis.Client
	store  store.Store
	client exchange.Client

	federated   []provider.Federated
	phone       provider.Phone
	resetSender provider.PasswordResetSender

	roles map[string][]string

	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New creates a Builder with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the redis client backing the session store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore supplies a session store directly, overriding WithRedis.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithBaseURL points the built-in exchange client at the backend.
func (b *Builder) WithBaseURL(url string) *Builder {
	b.config.Exchange.BaseURL = url
	return b
}

// WithExchangeClient supplies an exchange client directly, overriding
// WithBaseURL.
func (b *Builder) WithExchangeClient(c exchange.Client) *Builder {
	b.client = c
	return b
}

// WithFederatedProvider registers a federated-identity adapter. May be
// called once per provider kind.
func (b *Builder) WithFederatedProvider(p provider.Federated) *Builder {
	if p != nil {
		b.federated = append(b.federated, p)
	}
	return b
}

// WithPhoneProvider registers the phone one-time-code adapter.
func (b *Builder) WithPhoneProvider(p provider.Phone) *Builder {
	b.phone = p
	return b
}

// WithPasswordResetSender overrides the reset delegate. When unset, the
// google federated provider handles resets if registered.
func (b *Builder) WithPasswordResetSender(s provider.PasswordResetSender) *Builder {
	b.resetSender = s
	return b
}

// WithRoles installs the static role → permission table.
func (b *Builder) WithRoles(roles map[string][]string) *Builder {
	b.roles = roles
	return b
}

// WithAuditSink installs the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger installs the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles metric collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the wiring, constructs the Manager, and rehydrates it
// from the session store. Exactly one rehydration occurs per Manager.
func (b *Builder) Build(ctx context.Context) (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already built")
	}
	if err := b.config.validate(); err != nil {
		return nil, err
	}

	log := b.logger
	if log == nil {
		log = slog.Default()
	}

	st := b.store
	if st == nil {
		if b.redis == nil {
			return nil, errors.New("session store required: provide WithRedis or WithStore")
		}
		st = store.NewRedisStore(b.redis, b.config.Store.RedisPrefix)
	}

	clientID := uuid.NewString()

	client := b.client
	if client == nil {
		if b.config.Exchange.BaseURL == "" {
			return nil, errors.New("exchange client required: provide WithBaseURL or WithExchangeClient")
		}
		var err error
		client, err = exchange.NewHTTPClient(
			b.config.Exchange.BaseURL,
			exchange.WithTimeout(b.config.Exchange.Timeout),
			exchange.WithClientID(clientID),
		)
		if err != nil {
			return nil, err
		}
	}

	perms := permission.New()
	for role, grants := range b.roles {
		if err := perms.Grant(role, grants...); err != nil {
			return nil, err
		}
	}
	perms.Freeze()

	federated := make(map[provider.Kind]provider.Federated, len(b.federated))
	for _, p := range b.federated {
		if _, dup := federated[p.Kind()]; dup {
			return nil, errors.New("duplicate federated provider: " + string(p.Kind()))
		}
		federated[p.Kind()] = p
	}

	resetSender := b.resetSender
	if resetSender == nil {
		if g, ok := federated[provider.KindGoogle]; ok {
			resetSender = g
		}
	}

	m := &Manager{
		cfg:         b.config,
		log:         log,
		store:       st,
		client:      client,
		federated:   federated,
		phone:       b.phone,
		resetSender: resetSender,
		perms:       perms,
		clientID:    clientID,
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled:       b.config.Metrics.Enabled,
			EnableLatency: b.config.Metrics.EnableLatencyHistograms,
		}),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink, log),
	}

	b.built = true
	m.rehydrate(ctx)
	return m, nil
}
