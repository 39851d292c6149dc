package login

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/codelane/codelane/internal/auth/chatgpt"
	"github.com/codelane/codelane/internal/credstore"
)

// fakeLauncher scripts the helper boundary. echoState makes it return the
// state it finds in the authorize URL, the way a well-behaved helper echoes
// the provider's redirect.
type fakeLauncher struct {
	code      string
	state     string
	echoState bool
	err       error
	blockCtx  bool

	launched bool
	seenURL  string
}

func (l *fakeLauncher) Launch(ctx context.Context, authorizeURL string) (*HelperResult, error) {
	l.launched = true
	l.seenURL = authorizeURL
	if l.blockCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if l.err != nil {
		return nil, l.err
	}
	state := l.state
	if l.echoState {
		parsed, err := url.Parse(authorizeURL)
		if err != nil {
			return nil, err
		}
		state = parsed.Query().Get("state")
	}
	return &HelperResult{Code: l.code, State: state}, nil
}

type fakeExchanger struct {
	resp *chatgpt.TokenResponse
	err  error

	called   bool
	seenCode string
}

func (e *fakeExchanger) ExchangeCode(ctx context.Context, code, verifier string) (*chatgpt.TokenResponse, error) {
	e.called = true
	e.seenCode = code
	if e.err != nil {
		return nil, e.err
	}
	return e.resp, nil
}

type failingStore struct{}

func (failingStore) Write(cred *credstore.Credential) error {
	return fmt.Errorf("disk full")
}

func newTestStore(t *testing.T) *credstore.Store {
	t.Helper()
	return credstore.NewStore(filepath.Join(t.TempDir(), "auth.json"))
}

func TestFlowSuccess(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	launcher := &fakeLauncher{code: "abc", echoState: true}
	exchanger := &fakeExchanger{resp: &chatgpt.TokenResponse{
		AccessToken:  "at",
		RefreshToken: "rt",
		IDToken:      "idt",
		Email:        "user@example.com",
		PlanType:     "plus",
		Expire:       time.Now().Add(time.Hour).Format(time.RFC3339),
	}}

	flow := &Flow{Helper: launcher, Exchanger: exchanger, Store: store}
	outcome := flow.Run(context.Background())

	if !outcome.Succeeded() {
		t.Fatalf("outcome = %+v, want success", outcome)
	}
	if outcome.Email != "user@example.com" {
		t.Errorf("email = %q, want user@example.com", outcome.Email)
	}
	if outcome.Plan != "plus" {
		t.Errorf("plan = %q, want plus", outcome.Plan)
	}
	if exchanger.seenCode != "abc" {
		t.Errorf("exchanged code = %q, want abc", exchanger.seenCode)
	}
	if !store.Exists() {
		t.Error("credential file missing after successful login")
	}

	cred, err := store.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cred.Tokens == nil || cred.Tokens.Email != "user@example.com" {
		t.Errorf("persisted credential = %+v, want tokens with email", cred)
	}
	if cred.LastRefresh == "" {
		t.Error("persisted credential has no last_refresh")
	}
}

func TestFlowSuccessWithoutIdentityClaims(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	flow := &Flow{
		Helper:    &fakeLauncher{code: "abc", echoState: true},
		Exchanger: &fakeExchanger{resp: &chatgpt.TokenResponse{AccessToken: "at"}},
		Store:     store,
	}

	outcome := flow.Run(context.Background())
	if !outcome.Succeeded() {
		t.Fatalf("outcome = %+v, want success despite missing claims", outcome)
	}
	if outcome.Email != "" || outcome.Plan != "" {
		t.Errorf("identity summary = %q/%q, want empty", outcome.Email, outcome.Plan)
	}
}

func TestFlowAborted(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	exchanger := &fakeExchanger{}
	flow := &Flow{
		Helper:    &fakeLauncher{err: WrapError(ErrAborted, nil)},
		Exchanger: exchanger,
		Store:     store,
	}

	outcome := flow.Run(context.Background())
	if !outcome.Aborted() {
		t.Fatalf("outcome = %+v, want aborted", outcome)
	}
	if exchanger.called {
		t.Error("token exchange must not run after an abort")
	}
	if store.Exists() {
		t.Error("credential file written on abort")
	}
}

func TestFlowStateMismatch(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	exchanger := &fakeExchanger{resp: &chatgpt.TokenResponse{AccessToken: "at"}}
	flow := &Flow{
		Helper:    &fakeLauncher{code: "abc", state: "WRONG"},
		Exchanger: exchanger,
		Store:     store,
	}

	outcome := flow.Run(context.Background())
	if outcome.Err == nil || outcome.Err.Kind != KindStateMismatch {
		t.Fatalf("outcome = %+v, want state mismatch", outcome)
	}
	if exchanger.called {
		t.Error("a state mismatch must reject the code before any exchange")
	}
	if store.Exists() {
		t.Error("credential file written on state mismatch")
	}
}

func TestFlowExchangeRejected(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	flow := &Flow{
		Helper:    &fakeLauncher{code: "abc", echoState: true},
		Exchanger: &fakeExchanger{err: &chatgpt.StatusError{StatusCode: 500}},
		Store:     store,
	}

	outcome := flow.Run(context.Background())
	if outcome.Err == nil || outcome.Err.Kind != KindTokenExchangeFailed {
		t.Fatalf("outcome = %+v, want token exchange failure", outcome)
	}
	if store.Exists() {
		t.Error("credential file written after failed exchange")
	}
}

func TestFlowExchangeTransportError(t *testing.T) {
	t.Parallel()

	flow := &Flow{
		Helper:    &fakeLauncher{code: "abc", echoState: true},
		Exchanger: &fakeExchanger{err: fmt.Errorf("token exchange request failed: %w", errors.New("connection refused"))},
		Store:     newTestStore(t),
	}

	outcome := flow.Run(context.Background())
	if outcome.Err == nil || outcome.Err.Kind != KindNetwork {
		t.Fatalf("outcome = %+v, want network failure", outcome)
	}
}

func TestFlowUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	exchanger := &fakeExchanger{}
	launcher := &fakeLauncher{err: WrapError(ErrUnsupportedOS, errors.New("no helper for plan9"))}
	flow := &Flow{Helper: launcher, Exchanger: exchanger, Store: newTestStore(t)}

	outcome := flow.Run(context.Background())
	if outcome.Err == nil || outcome.Err.Kind != KindUnsupportedOS {
		t.Fatalf("outcome = %+v, want unsupported platform", outcome)
	}
	if exchanger.called {
		t.Error("no network call may happen on an unsupported platform")
	}
}

func TestFlowInvalidHelperResponse(t *testing.T) {
	t.Parallel()

	flow := &Flow{
		Helper:    &fakeLauncher{err: WrapError(ErrInvalidHelperResponse, errors.New("unexpected field token"))},
		Exchanger: &fakeExchanger{},
		Store:     newTestStore(t),
	}

	outcome := flow.Run(context.Background())
	if outcome.Err == nil || outcome.Err.Kind != KindInvalidHelperResponse {
		t.Fatalf("outcome = %+v, want invalid helper response", outcome)
	}
}

func TestFlowPersistFailure(t *testing.T) {
	t.Parallel()

	flow := &Flow{
		Helper:    &fakeLauncher{code: "abc", echoState: true},
		Exchanger: &fakeExchanger{resp: &chatgpt.TokenResponse{AccessToken: "at"}},
		Store:     failingStore{},
	}

	outcome := flow.Run(context.Background())
	if outcome.Err == nil || outcome.Err.Kind != KindIO {
		t.Fatalf("outcome = %+v, want io failure", outcome)
	}
}

func TestFlowHelperTimeout(t *testing.T) {
	t.Parallel()

	flow := &Flow{
		Helper:        &fakeLauncher{blockCtx: true},
		Exchanger:     &fakeExchanger{},
		Store:         newTestStore(t),
		HelperTimeout: 20 * time.Millisecond,
	}

	outcome := flow.Run(context.Background())
	if !outcome.Aborted() {
		t.Fatalf("outcome = %+v, want abort on timeout", outcome)
	}
}

func TestFlowStateDiffersPerAttempt(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{code: "abc", echoState: true}
	flow := &Flow{
		Helper:    launcher,
		Exchanger: &fakeExchanger{resp: &chatgpt.TokenResponse{AccessToken: "at"}},
		Store:     newTestStore(t),
	}

	if outcome := flow.Run(context.Background()); !outcome.Succeeded() {
		t.Fatalf("first attempt failed: %+v", outcome)
	}
	firstURL := launcher.seenURL

	if outcome := flow.Run(context.Background()); !outcome.Succeeded() {
		t.Fatalf("second attempt failed: %+v", outcome)
	}

	firstState := queryParam(t, firstURL, "state")
	secondState := queryParam(t, launcher.seenURL, "state")
	if firstState == secondState {
		t.Error("state reused across independent attempts")
	}
	if queryParam(t, firstURL, "code_challenge") == queryParam(t, launcher.seenURL, "code_challenge") {
		t.Error("PKCE challenge reused across independent attempts")
	}
}

func queryParam(t *testing.T, rawURL, key string) string {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %q: %v", rawURL, err)
	}
	value := parsed.Query().Get(key)
	if value == "" {
		t.Fatalf("url %q missing %s", rawURL, key)
	}
	return value
}
