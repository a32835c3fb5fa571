package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/2beens/jogtracker/internal/telemetry/tracing"
	"github.com/2beens/jogtracker/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "jogtracker-session||"
	tokensSetKey     = "jogtracker-sessions"

	fieldAccessToken = "access_token"
	fieldUserID      = "user_id"
	fieldCreatedAt   = "created_at"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session binds a local session token to the access token of the remote jog
// service. The access token never leaves the service.
type Session struct {
	Token       string
	AccessToken string
	UserID      string
	CreatedAt   time.Time
}

// Service keeps login sessions in redis, one hash per session token.
type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewAuthService(
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) Login(ctx context.Context, accessToken, userID string, createdAt time.Time) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if accessToken == "" || userID == "" {
		return "", errors.New("access token and user id are required")
	}

	token, err := as.RandStringFunc(35)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	sessionKey := sessionKeyPrefix + token
	cmdHSet := as.redisClient.HSet(ctx, sessionKey,
		fieldAccessToken, accessToken,
		fieldUserID, userID,
		fieldCreatedAt, createdAt.Unix(),
	)
	if err := cmdHSet.Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	if err := as.redisClient.Expire(ctx, sessionKey, as.ttl).Err(); err != nil {
		return "", fmt.Errorf("set session ttl: %w", err)
	}

	// add token to list of sessions
	cmdSAdd := as.redisClient.SAdd(ctx, tokensSetKey, token)
	if err := cmdSAdd.Err(); err != nil {
		return "", fmt.Errorf("register session: %w", err)
	}

	return token, nil
}

// Get returns the session for token, ErrSessionNotFound if there is none,
// and ErrSessionExpired if it outlived the TTL.
func (as *Service) Get(ctx context.Context, token string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if token == "" {
		return nil, ErrSessionNotFound
	}

	cmd := as.redisClient.HGetAll(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	values := cmd.Val()
	if len(values) == 0 || values[fieldAccessToken] == "" {
		return nil, ErrSessionNotFound
	}

	createdAtUnix, err := strconv.ParseInt(values[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse session created at: %w", err)
	}

	session := &Session{
		Token:       token,
		AccessToken: values[fieldAccessToken],
		UserID:      values[fieldUserID],
		CreatedAt:   time.Unix(createdAtUnix, 0),
	}
	if time.Since(session.CreatedAt) > as.ttl {
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Logout removes the session, and reports whether it existed.
func (as *Service) Logout(ctx context.Context, token string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.logout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cmdDel := as.redisClient.Del(ctx, sessionKeyPrefix+token)
	if err := cmdDel.Err(); err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}

	// remove token from the list of sessions
	cmdSRem := as.redisClient.SRem(ctx, tokensSetKey, token)
	if err := cmdSRem.Err(); err != nil {
		return false, fmt.Errorf("unregister session: %w", err)
	}

	return cmdDel.Val() > 0, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old.
// It returns the tokens it removed.
func (as *Service) ScanAndClean(ctx context.Context) []string {
	cmd := as.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return nil
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return nil
	}

	log.Infof("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		cmd := as.redisClient.HGet(ctx, sessionKey, fieldCreatedAt)
		if err := cmd.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				// session hash already expired in redis
				toRemove = append(toRemove, token)
				continue
			}
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		createdAt := time.Unix(createdAtUnix, 0)
		if time.Since(createdAt) > as.ttl {
			log.Warnf("=>\twill clean the session with token: %s", token)
			toRemove = append(toRemove, token)
		}
	}

	var removed []string
	for _, token := range toRemove {
		sessionKey := sessionKeyPrefix + token
		if err := as.redisClient.Del(ctx, sessionKey).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}

		// remove token from the list of sessions
		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
		removed = append(removed, token)
	}

	return removed
}
