package leads_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"github.com/objexa/service/common"
	"github.com/objexa/service/common/dbconfig"
	"github.com/objexa/service/portal/leads"
)

const restURI = "https://project.objexa.test"

func TestREST_InsertLead(t *testing.T) {
	defer gock.Off()

	gock.New(restURI).
		Post("/rest/v1/demo_bookings").
		MatchHeader("apikey", "anon-key").
		MatchHeader("Authorization", "Bearer anon-key").
		MatchHeader("Prefer", "return=representation").
		JSON(map[string]string{"name": "Jane", "email": "jane@smile.test", "phone": "4155552671", "practice_name": "Smile"}).
		Reply(201).
		BodyString(`[{"id":"42","name":"Jane","email":"jane@smile.test","phone":"4155552671","practice_name":"Smile","created_at":"2026-10-18T09:00:00Z"}]`)

	db, err := leads.New(dbconfig.New("https://anon-key@project.objexa.test", "", ""))
	require.NoError(t, err)

	lead := &leads.Lead{Name: "Jane", Email: "jane@smile.test", Phone: "4155552671", PracticeName: "Smile"}
	require.NoError(t, db.InsertLead(ctx, lead))
	assert.Equal(t, "42", lead.ID)
	assert.Equal(t, 2026, lead.CreatedAt.Year())
	assert.True(t, gock.IsDone())
}

func TestREST_InsertLeadAsUser(t *testing.T) {
	defer gock.Off()

	gock.New(restURI).
		Post("/rest/v1/demo_bookings").
		MatchHeader("apikey", "anon-key").
		MatchHeader("Authorization", "Bearer user-token").
		Reply(201).
		BodyString(`[{"id":"43","created_at":"2026-10-18T09:00:00Z"}]`)

	db, err := leads.New(dbconfig.New("https://anon-key@project.objexa.test", "", ""))
	require.NoError(t, err)

	lead := &leads.Lead{Name: "Jane", Email: "jane@smile.test"}
	require.NoError(t, db.InsertLead(common.WithBearerToken(ctx, "user-token"), lead))
	assert.Equal(t, "43", lead.ID)
	assert.True(t, gock.IsDone())
}

func TestREST_InsertLeadRejected(t *testing.T) {
	defer gock.Off()

	gock.New(restURI).
		Post("/rest/v1/demo_bookings").
		Reply(401).
		JSON(map[string]string{"message": "permission denied for table demo_bookings"})

	db, err := leads.New(dbconfig.New("https://anon-key@project.objexa.test", "", ""))
	require.NoError(t, err)

	err = db.InsertLead(ctx, &leads.Lead{Name: "Jane"})
	require.Error(t, err)
	statusErr, ok := err.(*common.StatusError)
	require.True(t, ok)
	assert.Equal(t, 401, statusErr.Code)
}

func TestREST_ListLeads(t *testing.T) {
	defer gock.Off()

	gock.New(restURI).
		Get("/rest/v1/demo_bookings").
		MatchParam("order", "created_at.desc").
		MatchParam("offset", "50").
		Reply(200).
		BodyString(`[{"id":"1","name":"Jane"}]`)

	db, err := leads.New(dbconfig.New("https://anon-key@project.objexa.test", "", ""))
	require.NoError(t, err)

	got, err := db.ListLeads(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane", got[0].Name)
}

func TestREST_NeedsKey(t *testing.T) {
	_, err := leads.New(dbconfig.New("https://project.objexa.test", "", ""))
	assert.Error(t, err)
}
