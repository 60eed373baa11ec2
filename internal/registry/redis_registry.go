package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zsiec/viewport/internal/logger"
)

// RedisRegistry implements Registry using Redis as the shared store.
// Every write refreshes the record TTL, so a crashed process drops out
// of the registry one TTL after its last heartbeat.
type RedisRegistry struct {
	client *redis.Client
	logger logger.Logger
	prefix string
	ttl    time.Duration
}

// NewRedisRegistry creates a new Redis-backed registry.
func NewRedisRegistry(client *redis.Client, log logger.Logger, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisRegistry{
		client: client,
		logger: log,
		prefix: "viewport:sessions:",
		ttl:    ttl,
	}
}

// Register adds a new session to the registry.
func (r *RedisRegistry) Register(ctx context.Context, session *Session) error {
	// Check if the session already exists to preserve its creation time
	key := r.prefix + session.ID
	existingData, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var existing Session
		if err := json.Unmarshal(existingData, &existing); err == nil {
			session.CreatedAt = existing.CreatedAt
		}
	} else if err == redis.Nil {
		session.CreatedAt = time.Now()
		existingData = nil
	} else {
		return fmt.Errorf("failed to check existing session: %w", err)
	}
	session.LastHeartbeat = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if existingData == nil {
		// New session - use a Lua script for atomic SET NX + SADD so the
		// record and its membership in the live set appear together
		registerScript := redis.NewScript(`
			local key = KEYS[1]
			local live_key = KEYS[2]
			local data = ARGV[1]
			local ttl = tonumber(ARGV[2])
			local session_id = ARGV[3]
			local ok = redis.call('SET', key, data, 'PX', ttl, 'NX')
			if not ok then
				return 0
			end
			redis.call('SADD', live_key, session_id)
			return 1
		`)

		result, err := registerScript.Run(ctx, r.client,
			[]string{key, r.prefix + "live"},
			data, r.ttl.Milliseconds(), session.ID).Int()
		if err != nil {
			return fmt.Errorf("failed to register session: %w", err)
		}
		if result == 0 {
			return fmt.Errorf("session %s already exists", session.ID)
		}

		r.logger.WithFields(map[string]interface{}{
			"session_id": session.ID,
			"device":     session.DeviceSerial,
			"source":     session.Source,
		}).Info("Session registered")
	} else {
		// Existing session - refresh the record and its TTL
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		r.logger.WithFields(map[string]interface{}{
			"session_id": session.ID,
		}).Debug("Session refreshed")
	}

	return nil
}

// Unregister removes a session from the registry.
func (r *RedisRegistry) Unregister(ctx context.Context, sessionID string) error {
	key := r.prefix + sessionID

	deleted, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to unregister session: %w", err)
	}

	if deleted == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	if err := r.client.SRem(ctx, r.prefix+"live", sessionID).Err(); err != nil {
		r.logger.Warnf("Failed to remove session %s from live set: %v", sessionID, err)
	}

	r.logger.WithField("session_id", sessionID).Info("Session unregistered")

	return nil
}

// Get retrieves a session by ID.
func (r *RedisRegistry) Get(ctx context.Context, sessionID string) (*Session, error) {
	key := r.prefix + sessionID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// List returns all live sessions. Members whose record has expired are
// pruned from the live set on the way.
func (r *RedisRegistry) List(ctx context.Context) ([]*Session, error) {
	script := redis.NewScript(`
		local live_key = KEYS[1]
		local prefix = ARGV[1]
		local live = redis.call('SMEMBERS', live_key)
		local result = {}
		local to_remove = {}

		for i, id in ipairs(live) do
			local session = redis.call('GET', prefix .. id)
			if session then
				table.insert(result, session)
			else
				table.insert(to_remove, id)
			end
		end

		for i, id in ipairs(to_remove) do
			redis.call('SREM', live_key, id)
		end

		return result
	`)

	res, err := script.Run(ctx, r.client, []string{r.prefix + "live"}, r.prefix).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type from script")
	}

	sessions := make([]*Session, 0, len(values))
	for _, val := range values {
		data, ok := val.(string)
		if !ok {
			r.logger.Warn("Invalid data type in result")
			continue
		}

		var session Session
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			r.logger.WithError(err).Warn("Failed to unmarshal session")
			continue
		}

		sessions = append(sessions, &session)
	}

	return sessions, nil
}

// UpdateHeartbeat refreshes the heartbeat timestamp for a session.
func (r *RedisRegistry) UpdateHeartbeat(ctx context.Context, sessionID string) error {
	key := r.prefix + sessionID

	// Atomic read-modify-write so a concurrent full update cannot be
	// half overwritten
	script := redis.NewScript(`
		local key = KEYS[1]
		local ttl = tonumber(ARGV[1])
		local now = ARGV[2]
		local data = redis.call('GET', key)
		if not data then
			return 0
		end
		local session = cjson.decode(data)
		session.last_heartbeat = now
		redis.call('SET', key, cjson.encode(session), 'PX', ttl)
		return 1
	`)

	result, err := script.Run(ctx, r.client, []string{key},
		r.ttl.Milliseconds(), time.Now().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	return nil
}

// UpdateStatus updates the lifecycle status of a session.
func (r *RedisRegistry) UpdateStatus(ctx context.Context, sessionID string, status SessionStatus) error {
	key := r.prefix + sessionID

	script := redis.NewScript(`
		local key = KEYS[1]
		local ttl = tonumber(ARGV[1])
		local status = ARGV[2]
		local now = ARGV[3]
		local data = redis.call('GET', key)
		if not data then
			return 0
		end
		local session = cjson.decode(data)
		session.status = status
		session.last_heartbeat = now
		redis.call('SET', key, cjson.encode(session), 'PX', ttl)
		return 1
	`)

	result, err := script.Run(ctx, r.client, []string{key},
		r.ttl.Milliseconds(), string(status), time.Now().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	r.logger.WithFields(map[string]interface{}{
		"session_id": sessionID,
		"status":     status,
	}).Debug("Session status updated")

	return nil
}

// UpdateStats updates the frame counters for a session.
func (r *RedisRegistry) UpdateStats(ctx context.Context, sessionID string, stats *SessionStats) error {
	key := r.prefix + sessionID

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Counter fields live at the top level of the session record
	script := redis.NewScript(`
		local key = KEYS[1]
		local ttl = tonumber(ARGV[1])
		local stats_json = ARGV[2]
		local now = ARGV[3]
		local data = redis.call('GET', key)
		if not data then
			return 0
		end
		local session = cjson.decode(data)
		local stats = cjson.decode(stats_json)
		session.frames_rendered = stats.FramesRendered
		session.frames_skipped = stats.FramesSkipped
		session.last_heartbeat = now
		redis.call('SET', key, cjson.encode(session), 'PX', ttl)
		return 1
	`)

	result, err := script.Run(ctx, r.client, []string{key},
		r.ttl.Milliseconds(), string(statsJSON), time.Now().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	return nil
}

// Update replaces an existing session record.
func (r *RedisRegistry) Update(ctx context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	key := r.prefix + session.ID

	session.LastHeartbeat = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// XX keeps an unregistered or expired session from reappearing as a
	// ghost record
	ok, err := r.client.SetXX(ctx, key, data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s: %w", session.ID, ErrSessionNotFound)
	}

	r.logger.WithField("session_id", session.ID).Debug("Session updated")
	return nil
}

// Close closes the Redis client connection.
func (r *RedisRegistry) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

var _ Registry = (*RedisRegistry)(nil)
