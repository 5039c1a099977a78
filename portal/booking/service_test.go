package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaveworks/common/logging"

	"github.com/objexa/service/common"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/booking"
	"github.com/objexa/service/portal/confirm"
	"github.com/objexa/service/portal/flow"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/identity/mock_identity"
	"github.com/objexa/service/portal/leads"
	"github.com/objexa/service/portal/leads/dbtest"
	"github.com/objexa/service/portal/sessions"
	"github.com/objexa/service/portal/verify"
)

var ctx = context.Background()

type fakeSender struct {
	demos []confirm.DemoConfirmation
	err   error
}

func (f *fakeSender) DemoConfirmation(_ context.Context, c confirm.DemoConfirmation) error {
	f.demos = append(f.demos, c)
	return f.err
}

func (f *fakeSender) PasswordResetConfirmation(context.Context, confirm.ResetConfirmation) error {
	return nil
}

type fakePublisher struct {
	published []*leads.Lead
}

func (f *fakePublisher) Publish(lead *leads.Lead) error {
	f.published = append(f.published, lead)
	return nil
}

type failingDB struct {
	leads.DB
}

func (failingDB) InsertLead(context.Context, *leads.Lead) error {
	return errors.New("duplicate key value violates unique constraint")
}

type recordingDB struct {
	leads.DB
	tokens []string
}

func (r *recordingDB) InsertLead(ctx context.Context, lead *leads.Lead) error {
	token, _ := common.BearerToken(ctx)
	r.tokens = append(r.tokens, token)
	return r.DB.InsertLead(ctx, lead)
}

type fixture struct {
	ctrl      *gomock.Controller
	api       *mock_identity.MockAPI
	db        leads.DB
	registry  *verify.Registry
	sender    *fakeSender
	publisher *fakePublisher
	service   *booking.Service
}

func setup(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	api := mock_identity.NewMockAPI(ctrl)
	db := dbtest.Setup(t)
	registry := verify.NewRegistry(verify.Config{Interval: time.Hour, MaxAttempts: 60, ResendCooldown: time.Second}, verify.RealClock, api, "", logging.Global())
	bootstrap := flow.NewBootstrapper(api, flow.Config{CacheSize: 8, CacheTTL: time.Minute}, logging.Global())
	sender := &fakeSender{}
	publisher := &fakePublisher{}
	service := booking.NewService(db, bootstrap, registry, sender, nil, publisher, nil, logging.Global())
	return &fixture{ctrl: ctrl, api: api, db: db, registry: registry, sender: sender, publisher: publisher, service: service}
}

func (f *fixture) finish(t *testing.T) {
	f.registry.Stop()
	dbtest.Cleanup(t, f.db)
	f.ctrl.Finish()
}

func signedIn() *identity.Session {
	return &identity.Session{AccessToken: "token", ExpiresAt: time.Now().Add(time.Hour).Unix()}
}

func demoForm() portal.DemoForm {
	return portal.DemoForm{
		Name:         "Jane <b>Doe</b>",
		Email:        " jane@clinic.com ",
		Phone:        "(415) 555-2671",
		PracticeName: "Bright Smiles",
	}
}

func expectUser(f *fixture) {
	f.api.EXPECT().GetUser(gomock.Any(), "token").Return(&portal.User{
		ID:       "user-1",
		Email:    "jane@clinic.com",
		Metadata: portal.Metadata{PracticeName: "Bright Smiles", PracticeType: "dental"},
	}, nil).AnyTimes()
}

func TestSubmit(t *testing.T) {
	f := setup(t)
	defer f.finish(t)
	expectUser(f)

	v := &sessions.Visitor{ID: "visitor-1", DemoDraft: &portal.DemoForm{Name: "old"}}
	res, err := f.service.Submit(ctx, v, signedIn(), demoForm())
	require.NoError(t, err)
	assert.Equal(t, portal.MessageDemoBooked, res.Message)
	assert.Empty(t, res.Notice)
	assert.Nil(t, v.DemoDraft)

	stored, err := f.db.ListLeads(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Jane Doe", stored[0].Name)
	assert.Equal(t, "jane@clinic.com", stored[0].Email)
	assert.NotEmpty(t, stored[0].ID)

	assert.Equal(t, []confirm.DemoConfirmation{{
		Name:         "Jane Doe",
		Email:        "jane@clinic.com",
		Phone:        "(415) 555-2671",
		PracticeName: "Bright Smiles",
	}}, f.sender.demos)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, stored[0].ID, f.publisher.published[0].ID)
}

func TestSubmitInsertsAsUser(t *testing.T) {
	f := setup(t)
	defer f.finish(t)
	expectUser(f)
	db := &recordingDB{DB: f.db}
	f.service.DB = db

	_, err := f.service.Submit(ctx, &sessions.Visitor{ID: "visitor-1"}, signedIn(), demoForm())
	require.NoError(t, err)
	assert.Equal(t, []string{"token"}, db.tokens)
	_, ok := common.BearerToken(ctx)
	assert.False(t, ok)
}

func TestSubmitSignedOutKeepsDraft(t *testing.T) {
	f := setup(t)
	defer f.finish(t)

	v := &sessions.Visitor{ID: "visitor-1"}
	res, err := f.service.Submit(ctx, v, nil, demoForm())
	require.NoError(t, err)
	assert.Equal(t, "auth.html?mode=register&redirect=demo", res.Location)
	require.NotNil(t, v.DemoDraft)
	assert.Equal(t, "Bright Smiles", v.DemoDraft.PracticeName)

	stored, err := f.db.ListLeads(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSubmitInvalidEmail(t *testing.T) {
	f := setup(t)
	defer f.finish(t)
	expectUser(f)

	form := demoForm()
	form.Email = "jane@clinic"
	_, err := f.service.Submit(ctx, &sessions.Visitor{ID: "visitor-1"}, signedIn(), form)
	assert.Equal(t, portal.ErrInvalidEmail, err)
	assert.Empty(t, f.sender.demos)
}

func TestSubmitConfirmationFailureStillBooks(t *testing.T) {
	f := setup(t)
	defer f.finish(t)
	expectUser(f)
	f.sender.err = errors.New("send-demo-confirmation: 500")

	res, err := f.service.Submit(ctx, &sessions.Visitor{ID: "visitor-1"}, signedIn(), demoForm())
	require.NoError(t, err)
	assert.Equal(t, portal.MessageDemoBooked, res.Message)
	assert.Equal(t, portal.MessageConfirmationFailed, res.Notice)

	stored, err := f.db.ListLeads(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitPersistenceFailure(t *testing.T) {
	f := setup(t)
	defer f.finish(t)
	expectUser(f)
	f.service.DB = failingDB{f.db}

	_, err := f.service.Submit(ctx, &sessions.Visitor{ID: "visitor-1"}, signedIn(), demoForm())
	require.Error(t, err)
	_, ok := err.(*portal.PersistenceError)
	assert.True(t, ok)
	assert.Equal(t, "Error submitting form: duplicate key value violates unique constraint", err.Error())
	assert.Empty(t, f.sender.demos)
	assert.Empty(t, f.publisher.published)
}

func TestSubmitWithoutProvider(t *testing.T) {
	f := setup(t)
	defer f.finish(t)
	f.service.Bootstrap = flow.NewBootstrapper(nil, flow.Config{}, logging.Global())

	_, err := f.service.Submit(ctx, &sessions.Visitor{ID: "visitor-1"}, signedIn(), demoForm())
	assert.Equal(t, portal.ErrConnection, err)
}

func TestRestoreDraft(t *testing.T) {
	f := setup(t)
	defer f.finish(t)
	expectUser(f)

	draft := demoForm()
	v := &sessions.Visitor{ID: "visitor-1", DemoDraft: &draft}
	got, _, err := f.service.RestoreDraft(ctx, v, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, v.DemoDraft)

	v.DemoDraft = &draft
	got, _, err = f.service.RestoreDraft(ctx, v, signedIn())
	require.NoError(t, err)
	assert.Equal(t, &draft, got)
	assert.Nil(t, v.DemoDraft)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, booking.ValidEmail("jane@clinic.com"))
	assert.False(t, booking.ValidEmail("jane@clinic"))
	assert.False(t, booking.ValidEmail("jane doe@clinic.com"))
	assert.False(t, booking.ValidEmail("jane@@clinic.com"))
}
