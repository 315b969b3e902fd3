package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/identra/identra/internal/domain"
)

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID       map[string]domain.User
	byEmail    map[string]domain.User
	byUsername map[string]domain.User

	getByIDErr    error
	getByEmailErr error
	createErr     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:       map[string]domain.User{},
		byEmail:    map[string]domain.User{},
		byUsername: map[string]domain.User{},
	}
}

func (f *fakeUserRepo) add(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	if u.Username != "" {
		f.byUsername[u.Username] = u
	}
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	if u.Username != "" {
		f.byUsername[u.Username] = u
	}
	return u, nil
}

type fakeRefreshRepo struct {
	mu sync.Mutex

	byHash map[string]domain.RefreshRecord

	insertErr    error
	getByHashErr error
	touched      []string
	revoked      []string
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{byHash: map[string]domain.RefreshRecord{}}
}

func (f *fakeRefreshRepo) Insert(ctx context.Context, rec domain.RefreshRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return f.insertErr
	}
	f.byHash[rec.TokenHash] = rec
	return nil
}

func (f *fakeRefreshRepo) GetByHash(ctx context.Context, hash string) (domain.RefreshRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByHashErr != nil {
		return domain.RefreshRecord{}, f.getByHashErr
	}
	rec, ok := f.byHash[hash]
	if !ok {
		return domain.RefreshRecord{}, domain.ErrRefreshTokenInvalid()
	}
	return rec, nil
}

func (f *fakeRefreshRepo) MarkRevoked(ctx context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec, ok := f.byHash[hash]; ok {
		rec.Revoked = true
		f.byHash[hash] = rec
	}
	f.revoked = append(f.revoked, hash)
	return nil
}

func (f *fakeRefreshRepo) Touch(ctx context.Context, hash string, when time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.touched = append(f.touched, hash)
	return nil
}

type fakeCodeRepo struct {
	mu sync.Mutex

	byCode map[string]domain.AuthCode

	insertErr    error
	getByCodeErr error
	markUsedFn   func(code string) (bool, error)
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{byCode: map[string]domain.AuthCode{}}
}

func (f *fakeCodeRepo) Insert(ctx context.Context, c domain.AuthCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return f.insertErr
	}
	f.byCode[c.Code] = c
	return nil
}

func (f *fakeCodeRepo) GetByCode(ctx context.Context, code string) (domain.AuthCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByCodeErr != nil {
		return domain.AuthCode{}, f.getByCodeErr
	}
	c, ok := f.byCode[code]
	if !ok {
		return domain.AuthCode{}, domain.ErrInvalidGrant(domain.GrantReasonUnknownCode)
	}
	return c, nil
}

func (f *fakeCodeRepo) MarkUsed(ctx context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markUsedFn != nil {
		return f.markUsedFn(code)
	}
	c, ok := f.byCode[code]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	f.byCode[code] = c
	return true, nil
}

type fakeClientRepo struct {
	byClientID map[string]domain.Client

	getErr error
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{byClientID: map[string]domain.Client{}}
}

func (f *fakeClientRepo) GetByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	if f.getErr != nil {
		return domain.Client{}, f.getErr
	}
	c, ok := f.byClientID[clientID]
	if !ok {
		return domain.Client{}, domain.ErrUnknownClient()
	}
	return c, nil
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error

	compares int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	h.compares++
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

// fakeCodec signs recognizable tokens and parses them back. Access tokens
// carry verified-email state so the authorize flow can be exercised.
type fakeCodec struct {
	signAccessErr  error
	signRefreshErr error
	signIDErr      error

	verifyAccessFn  func(token string) (AccessClaims, error)
	verifyRefreshFn func(token string) (RefreshClaims, error)
}

func (c *fakeCodec) SignAccess(u domain.User, ttl time.Duration) (string, error) {
	if c.signAccessErr != nil {
		return "", c.signAccessErr
	}
	tok := "access:" + u.ID
	if !u.EmailVerified {
		tok += ":unverified"
	}
	return tok, nil
}

func (c *fakeCodec) SignRefresh(userID, tokenID string, ttl time.Duration) (string, error) {
	if c.signRefreshErr != nil {
		return "", c.signRefreshErr
	}
	return "refresh:" + userID + ":" + tokenID, nil
}

func (c *fakeCodec) SignID(u domain.User, ttl time.Duration) (string, error) {
	if c.signIDErr != nil {
		return "", c.signIDErr
	}
	return "id:" + u.ID, nil
}

func (c *fakeCodec) VerifyAccess(token string) (AccessClaims, error) {
	if c.verifyAccessFn != nil {
		return c.verifyAccessFn(token)
	}
	rest, ok := strings.CutPrefix(token, "access:")
	if !ok {
		return AccessClaims{}, domain.ErrTokenInvalid()
	}
	uid, tail, _ := strings.Cut(rest, ":")
	return AccessClaims{
		UserID:        uid,
		EmailVerified: tail != "unverified",
		ExpiresAt:     time.Now().Add(time.Hour),
	}, nil
}

func (c *fakeCodec) VerifyRefresh(token string) (RefreshClaims, error) {
	if c.verifyRefreshFn != nil {
		return c.verifyRefreshFn(token)
	}
	rest, ok := strings.CutPrefix(token, "refresh:")
	if !ok {
		return RefreshClaims{}, domain.ErrRefreshTokenInvalid()
	}
	uid, tid, ok := strings.Cut(rest, ":")
	if !ok {
		return RefreshClaims{}, domain.ErrRefreshTokenInvalid()
	}
	return RefreshClaims{
		UserID:    uid,
		TokenID:   tid,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

type fakePublisher struct {
	registered []UserRegisteredEvent
	logins     []UserLoggedInEvent
	issued     []TokensIssuedEvent
	revoked    []SessionRevokedEvent
}

func (p *fakePublisher) PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error {
	p.registered = append(p.registered, evt)
	return nil
}

func (p *fakePublisher) PublishUserLoggedIn(ctx context.Context, evt UserLoggedInEvent) error {
	p.logins = append(p.logins, evt)
	return nil
}

func (p *fakePublisher) PublishTokensIssued(ctx context.Context, evt TokensIssuedEvent) error {
	p.issued = append(p.issued, evt)
	return nil
}

func (p *fakePublisher) PublishSessionRevoked(ctx context.Context, evt SessionRevokedEvent) error {
	p.revoked = append(p.revoked, evt)
	return nil
}

/*
Service factory for tests
*/

type testPorts struct {
	users   *fakeUserRepo
	refresh *fakeRefreshRepo
	codes   *fakeCodeRepo
	clients *fakeClientRepo
	hasher  *fakeHasher
	codec   *fakeCodec
	pub     *fakePublisher
}

func newSvcForTest(t *testing.T, cfg Config) (*Service, *testPorts) {
	t.Helper()

	p := &testPorts{
		users:   newFakeUserRepo(),
		refresh: newFakeRefreshRepo(),
		codes:   newFakeCodeRepo(),
		clients: newFakeClientRepo(),
		hasher:  &fakeHasher{},
		codec:   &fakeCodec{},
		pub:     &fakePublisher{},
	}

	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}

	svc := NewService(p.users, p.refresh, p.codes, p.clients, p.hasher, p.codec, p.pub, cfg)
	if svc == nil {
		t.Fatalf("svc is nil")
	}
	return svc, p
}

/*
Small assertions
*/

func domainCode(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}

func requireGrantReason(t *testing.T, err error, want string) {
	t.Helper()
	requireDomainCode(t, err, "invalid_grant")
	if got := domain.Reason(err); got != want {
		t.Fatalf("expected grant reason %q, got %q", want, got)
	}
}
