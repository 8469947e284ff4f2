// Package auth implements sign-up, password sign-in, and the single stored
// session of the local backend. Accounts live in the users table with
// bcrypt password hashes; each sign-up also writes a profiles row.
package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/internal/realtime"
	"github.com/mesh-intelligence/nexus/internal/tablestore"
	"github.com/mesh-intelligence/nexus/pkg/ids"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	letterPattern = regexp.MustCompile(`[A-Za-z]`)
	digitPattern  = regexp.MustCompile(`\d`)
)

const minPasswordLength = 8

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword reports whether password has at least eight UTF-16 code
// units including a letter and a digit.
func ValidPassword(password string) bool {
	return len(utf16.Encode([]rune(password))) >= minPasswordLength &&
		letterPattern.MatchString(password) &&
		digitPattern.MatchString(password)
}

// Options configures a Service.
type Options struct {
	Store    *tablestore.Store
	Realtime *realtime.Registry
	IDs      types.IDGenerator

	// Mutex serializes writes to the users and profiles tables. Share it
	// with the query engine.
	Mutex *sync.Mutex

	// Secret signs access tokens. A random secret is generated when empty.
	Secret       []byte
	TokenTTL     time.Duration
	PasswordCost int
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Service is the local implementation of types.Auth.
type Service struct {
	store  *tablestore.Store
	rt     *realtime.Registry
	ids    types.IDGenerator
	mu     *sync.Mutex
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	log    *zap.Logger
	subs   *SubscriberList
}

var _ types.Auth = (*Service)(nil)

// New returns a Service for opts.
func New(opts Options) (*Service, error) {
	s := &Service{
		store:  opts.Store,
		rt:     opts.Realtime,
		ids:    opts.IDs,
		mu:     opts.Mutex,
		secret: opts.Secret,
		ttl:    opts.TokenTTL,
		cost:   opts.PasswordCost,
		now:    opts.Clock,
		log:    opts.Logger,
		subs:   &SubscriberList{},
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.ids == nil {
		s.ids = ids.Token{}
	}
	if s.mu == nil {
		s.mu = &sync.Mutex{}
	}
	if s.rt == nil {
		s.rt = realtime.NewRegistry(s.log)
	}
	if s.ttl <= 0 {
		s.ttl = types.DefaultTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if len(s.secret) == 0 {
		s.secret = make([]byte, 32)
		if _, err := rand.Read(s.secret); err != nil {
			return nil, fmt.Errorf("generating token secret: %w", err)
		}
	}
	return s, nil
}

// Subscribers returns the auth state subscriber list.
func (s *Service) Subscribers() *SubscriberList {
	return s.subs
}

// SignUp validates params, then creates the account and its profile. It
// does not sign the user in.
func (s *Service) SignUp(ctx context.Context, params types.SignUpParams) (*types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	exists := findByEmail(s.store.GetTable(types.TableUsers), params.Email) >= 0
	s.mu.Unlock()
	if exists {
		return nil, types.ErrDuplicateEmail
	}
	if !ValidEmail(params.Email) {
		return nil, types.ErrInvalidEmail
	}
	if !ValidPassword(params.Password) {
		return nil, types.ErrWeakPassword
	}

	hash, err := HashPassword(params.Password, s.cost)
	if err != nil {
		return nil, err
	}
	user := &types.User{
		ID:           s.ids.NewID(),
		Email:        params.Email,
		UserMetadata: signUpMetadata(params),
	}
	userRec, err := tablestore.Normalize(UserRecord(user, hash))
	if err != nil {
		return nil, err
	}
	user = userFromRecord(userRec)
	profile, err := tablestore.Normalize(ProfileRecord(user))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	users := s.store.GetTable(types.TableUsers)
	if findByEmail(users, params.Email) >= 0 {
		s.mu.Unlock()
		return nil, types.ErrDuplicateEmail
	}
	err = s.store.SetTable(types.TableUsers, append(users, userRec))
	if err == nil {
		err = s.store.SetTable(types.TableProfiles, append(s.store.GetTable(types.TableProfiles), profile))
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", zap.String("id", user.ID), zap.String("email", user.Email))
	if err := s.notifyProfile(profile); err != nil {
		return nil, err
	}
	return user, nil
}

// signUpMetadata fills role, access rights, and avatar defaults into the
// caller's metadata.
func signUpMetadata(params types.SignUpParams) types.UserMetadata {
	meta := make(types.UserMetadata, len(params.Data)+3)
	for k, v := range params.Data {
		meta[k] = v
	}
	if !types.IsStaffRole(meta.Role()) {
		meta[types.MetaRole] = types.DefaultStaffRole
	}
	if len(meta.AccessRights()) == 0 {
		meta[types.MetaAccessRights] = slices.Clone(types.DefaultStaffAccessRights)
	}
	if meta.String(types.MetaAvatarURL) == "" {
		meta[types.MetaAvatarURL] = types.AvatarURL(meta.FullName(), params.Email)
	}
	return meta
}

func (s *Service) notifyProfile(profile types.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("realtime handler panicked", zap.String("table", string(types.TableProfiles)), zap.Any("panic", r))
			err = types.Errorf(types.KindHandlerPanic, fmt.Sprintf("realtime handler panicked: %v", r))
		}
	}()
	s.rt.NotifyInsert(types.TableProfiles, profile)
	return nil
}

// SignInWithPassword checks creds against the users table and stores a
// new session.
func (s *Service) SignInWithPassword(ctx context.Context, creds types.Credentials) (*types.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	users := s.store.GetTable(types.TableUsers)
	s.mu.Unlock()

	i := findCredentials(users, creds)
	if i < 0 {
		s.log.Debug("sign-in rejected", zap.String("email", creds.Email))
		return nil, types.ErrInvalidCredentials
	}
	user := userFromRecord(users[i])

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	sess := &types.Session{AccessToken: token, User: user}
	if err := s.store.SetSession(sess); err != nil {
		return nil, err
	}

	s.log.Info("user signed in", zap.String("id", user.ID))
	if err := s.notify(types.AuthSignedIn, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SignOut clears the stored session.
func (s *Service) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.ClearSession(); err != nil {
		return err
	}
	return s.notify(types.AuthSignedOut, nil)
}

// GetSession returns the stored session or nil.
func (s *Service) GetSession() *types.Session {
	return s.store.Session()
}

// GetUser returns the signed-in user or nil.
func (s *Service) GetUser() *types.User {
	sess := s.store.Session()
	if sess == nil {
		return nil
	}
	return sess.User
}

// OnAuthStateChange registers cb for sign-in and sign-out events.
func (s *Service) OnAuthStateChange(cb types.AuthStateFunc) types.Subscription {
	return s.subs.Add(cb)
}

func (s *Service) notify(event types.AuthEvent, sess *types.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("auth subscriber panicked", zap.String("event", string(event)), zap.Any("panic", r))
			err = types.Errorf(types.KindHandlerPanic, fmt.Sprintf("auth subscriber panicked: %v", r))
		}
	}()
	s.subs.Notify(event, sess)
	return nil
}

// Admin returns the user-management surface.
func (s *Service) Admin() types.AdminAuth {
	return admin{s}
}

type admin struct{ s *Service }

// UpdateUserByID merges attrs onto the user with id. Metadata keys merge
// one level deep; a new password is re-hashed. The profiles row is left
// as it is.
func (a admin) UpdateUserByID(ctx context.Context, id string, attrs types.AdminUserAttributes) (*types.User, error) {
	s := a.s
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var hash string
	if attrs.Password != "" {
		h, err := HashPassword(attrs.Password, s.cost)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	patch, err := tablestore.Normalize(types.Record(attrs.UserMetadata))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.store.GetTable(types.TableUsers)
	i := findByID(users, id)
	if i < 0 {
		return nil, types.ErrUserNotFound
	}

	rec := users[i].Clone()
	if attrs.Email != "" {
		rec[FieldEmail] = attrs.Email
	}
	if hash != "" {
		rec[FieldPasswordHash] = hash
	}
	meta, _ := rec[FieldUserMetadata].(map[string]any)
	rec[FieldUserMetadata] = map[string]any(types.Record(meta).Merge(patch))
	users[i] = rec

	if err := s.store.SetTable(types.TableUsers, users); err != nil {
		return nil, err
	}
	s.log.Info("user updated", zap.String("id", id))
	return userFromRecord(rec), nil
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) issueToken(u *types.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: u.Email,
		Role:  u.UserMetadata.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// verifyToken checks token's signature and expiry and returns its subject.
func (s *Service) verifyToken(token string) (string, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("verifying access token: %w", err)
	}
	if !parsed.Valid {
		return "", fmt.Errorf("verifying access token: invalid")
	}
	return claims.Subject, nil
}
