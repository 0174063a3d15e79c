package verify

import (
	"context"
	"testing"

	"github.com/rolegate/internal/domain"
	"github.com/rolegate/internal/infrastructure/identity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Create(ctx context.Context, subjectID, communityID string) (string, error) {
	args := m.Called(ctx, subjectID, communityID)
	return args.String(0), args.Error(1)
}
func (m *mockSessions) Redeem(ctx context.Context, subjectID, secret string) (string, error) {
	args := m.Called(ctx, subjectID, secret)
	return args.String(0), args.Error(1)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Get(communityID string) domain.CommunitySettings {
	args := m.Called(communityID)
	return args.Get(0).(domain.CommunitySettings)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}
func (m *mockProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}
func (m *mockProvider) FetchIdentity(ctx context.Context, accessToken string) (*identity.Identity, error) {
	args := m.Called(ctx, accessToken)
	if p, _ := args.Get(0).(*identity.Identity); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPlatform struct{ mock.Mock }

func (m *mockPlatform) GrantRole(ctx context.Context, communityID, subjectID, roleID string) error {
	return m.Called(ctx, communityID, subjectID, roleID).Error(0)
}
func (m *mockPlatform) LookupRole(communityID, roleID string) bool {
	return m.Called(communityID, roleID).Bool(0)
}
func (m *mockPlatform) CommunityName(communityID string) string {
	return m.Called(communityID).String(0)
}
func (m *mockPlatform) SendDirectMessage(ctx context.Context, subjectID, title, body string, color int) error {
	return m.Called(ctx, subjectID, title, body, color).Error(0)
}

type mockAlerter struct{ mock.Mock }

func (m *mockAlerter) Alert(ctx context.Context, subject, message string) error {
	return m.Called(ctx, subject, message).Error(0)
}

// --- helpers ---

type fixture struct {
	sessions *mockSessions
	settings *mockSettings
	provider *mockProvider
	platform *mockPlatform
	alerts   *mockAlerter
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		sessions: &mockSessions{},
		settings: &mockSettings{},
		provider: &mockProvider{},
		platform: &mockPlatform{},
		alerts:   &mockAlerter{},
	}
	f.svc = NewService(Deps{
		Sessions: f.sessions,
		Settings: f.settings,
		Provider: f.provider,
		Platform: f.platform,
		Alerts:   f.alerts,
		Logger:   zerolog.Nop(),
	})
	return f
}

func configuredSettings() domain.CommunitySettings {
	s := domain.DefaultSettings("7")
	s.RoleID = "role-1"
	return s
}

// --- BeginVerification ---

func TestBeginVerification_BuildsAuthURL(t *testing.T) {
	f := newFixture()
	f.sessions.On("Create", mock.Anything, "42", "7").Return("abc", nil)
	f.provider.On("AuthCodeURL", "42:7:abc").Return("https://provider/auth?state=42:7:abc")

	link, err := f.svc.BeginVerification(context.Background(), "42", "7")
	require.NoError(t, err)
	assert.Equal(t, "https://provider/auth?state=42:7:abc", link)
	f.sessions.AssertExpectations(t)
}

// --- CompleteVerification ---

func TestCompleteVerification_Success(t *testing.T) {
	f := newFixture()
	f.sessions.On("Redeem", mock.Anything, "42", "abc").Return("7", nil)
	f.provider.On("ExchangeCode", mock.Anything, "code-1").Return("tok-1", nil)
	f.provider.On("FetchIdentity", mock.Anything, "tok-1").
		Return(&identity.Identity{ID: "42", DisplayName: "Alice"}, nil)
	f.settings.On("Get", "7").Return(configuredSettings())
	f.platform.On("LookupRole", "7", "role-1").Return(true)
	f.platform.On("GrantRole", mock.Anything, "7", "42", "role-1").Return(nil)
	f.platform.On("CommunityName", "7").Return("Gophers")
	f.platform.On("SendDirectMessage", mock.Anything, "42",
		"Verified", "Welcome Alice, you are now verified on Gophers!", mock.Anything).Return(nil)

	res, err := f.svc.CompleteVerification(context.Background(), "code-1", "42:7:abc")
	require.NoError(t, err)
	assert.Equal(t, "42", res.SubjectID)
	assert.Equal(t, "7", res.CommunityID)
	assert.NotEmpty(t, res.AttemptID)
	f.platform.AssertExpectations(t)
}

func TestCompleteVerification_MalformedState(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CompleteVerification(context.Background(), "code-1", "only-one-field")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	f.sessions.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteVerification_RejectedBeforeProviderCall(t *testing.T) {
	f := newFixture()
	f.sessions.On("Redeem", mock.Anything, "42", "abc").Return("", domain.ErrNotFound)

	_, err := f.svc.CompleteVerification(context.Background(), "code-1", "42:7:abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	// No provider call is spent on a rejected session.
	f.provider.AssertNotCalled(t, "ExchangeCode", mock.Anything, mock.Anything)
}

func TestCompleteVerification_SecretMismatchAlerts(t *testing.T) {
	f := newFixture()
	f.sessions.On("Redeem", mock.Anything, "42", "forged").Return("", domain.ErrSecretMismatch)
	f.alerts.On("Alert", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CompleteVerification(context.Background(), "code-1", "42:7:forged")
	assert.ErrorIs(t, err, domain.ErrSecretMismatch)
	f.alerts.AssertNumberOfCalls(t, "Alert", 1)
}

func TestCompleteVerification_ExchangeFailure(t *testing.T) {
	f := newFixture()
	f.sessions.On("Redeem", mock.Anything, "42", "abc").Return("7", nil)
	f.provider.On("ExchangeCode", mock.Anything, "bad-code").Return("", domain.ErrUpstream)

	_, err := f.svc.CompleteVerification(context.Background(), "bad-code", "42:7:abc")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	f.platform.AssertNotCalled(t, "GrantRole",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteVerification_IdentityMismatch(t *testing.T) {
	f := newFixture()
	f.sessions.On("Redeem", mock.Anything, "42", "abc").Return("7", nil)
	f.provider.On("ExchangeCode", mock.Anything, "code-1").Return("tok-1", nil)
	f.provider.On("FetchIdentity", mock.Anything, "tok-1").
		Return(&identity.Identity{ID: "99", DisplayName: "Mallory"}, nil)
	f.alerts.On("Alert", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CompleteVerification(context.Background(), "code-1", "42:7:abc")
	assert.ErrorIs(t, err, domain.ErrIdentityMismatch)
	f.platform.AssertNotCalled(t, "GrantRole",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.alerts.AssertNumberOfCalls(t, "Alert", 1)
}

func TestCompleteVerification_NoRoleConfigured(t *testing.T) {
	f := newFixture()
	f.sessions.On("Redeem", mock.Anything, "42", "abc").Return("7", nil)
	f.provider.On("ExchangeCode", mock.Anything, "code-1").Return("tok-1", nil)
	f.provider.On("FetchIdentity", mock.Anything, "tok-1").
		Return(&identity.Identity{ID: "42", DisplayName: "Alice"}, nil)
	f.settings.On("Get", "7").Return(domain.DefaultSettings("7"))

	_, err := f.svc.CompleteVerification(context.Background(), "code-1", "42:7:abc")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	f.platform.AssertNotCalled(t, "GrantRole",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteVerification_RoleDeleted(t *testing.T) {
	f := newFixture()
	f.sessions.On("Redeem", mock.Anything, "42", "abc").Return("7", nil)
	f.provider.On("ExchangeCode", mock.Anything, "code-1").Return("tok-1", nil)
	f.provider.On("FetchIdentity", mock.Anything, "tok-1").
		Return(&identity.Identity{ID: "42", DisplayName: "Alice"}, nil)
	f.settings.On("Get", "7").Return(configuredSettings())
	f.platform.On("LookupRole", "7", "role-1").Return(false)

	_, err := f.svc.CompleteVerification(context.Background(), "code-1", "42:7:abc")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestCompleteVerification_DMFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.sessions.On("Redeem", mock.Anything, "42", "abc").Return("7", nil)
	f.provider.On("ExchangeCode", mock.Anything, "code-1").Return("tok-1", nil)
	f.provider.On("FetchIdentity", mock.Anything, "tok-1").
		Return(&identity.Identity{ID: "42", DisplayName: "Alice"}, nil)
	f.settings.On("Get", "7").Return(configuredSettings())
	f.platform.On("LookupRole", "7", "role-1").Return(true)
	f.platform.On("GrantRole", mock.Anything, "7", "42", "role-1").Return(nil)
	f.platform.On("CommunityName", "7").Return("")
	f.platform.On("SendDirectMessage", mock.Anything, "42",
		mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrUpstream)

	res, err := f.svc.CompleteVerification(context.Background(), "code-1", "42:7:abc")
	require.NoError(t, err, "dm failure is logged, not escalated")
	assert.Equal(t, "42", res.SubjectID)
}
