package marketing

import (
	"encoding/json"
	"time"

	"github.com/FrenchBen/goketo"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/objexa/service/common"
)

var (
	marketoLeadsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: common.PrometheusNamespace,
		Name:      "marketo_leads_skipped",
		Help:      "Marketo leads skipped.",
	})
)

func init() {
	prometheus.MustRegister(marketoLeadsSkipped)
}

// GoketoClient is the part of *goketo.Client we use.
type GoketoClient interface {
	RefreshToken() error
	Post(resource string, data []byte) ([]byte, error)
}

// MarketoClient is a client for marketo.
type MarketoClient struct {
	client      GoketoClient
	programName string
}

// NewGoketoClient authenticates against the Marketo REST API.
func NewGoketoClient(clientID, clientSecret, clientEndpoint string) (*goketo.Client, error) {
	return goketo.NewAuthClient(clientID, clientSecret, clientEndpoint)
}

// NewMarketoClient makes a new marketo client.
func NewMarketoClient(client GoketoClient, programName string) *MarketoClient {
	return &MarketoClient{
		client:      client,
		programName: programName,
	}
}

func (*MarketoClient) name() string {
	return "marketo"
}

// {"requestId":"8a40#158ba043d2a","result":[{"status":"skipped","reasons":[{"code":"1007","message":"Multiple lead match lookup criteria"}]}],"success":true}
type marketoResponse struct {
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Errors    []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Results []struct {
		Status  string `json:"status"`
		Reasons []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"reasons"`
	} `json:"result"`
}

type marketoProspect struct {
	Email         string `json:"email"`
	FirstName     string `json:"firstName,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Company       string `json:"company,omitempty"`
	PracticeType  string `json:"Practice_Type__c,omitempty"`
	SignupSource  string `json:"Objexa_Signup_Source__c,omitempty"`
	CreatedAt     string `json:"Objexa_Created_On__c,omitempty"`
	LastAccess    string `json:"Objexa_Last_Active__c,omitempty"`
	DemoRequested string `json:"Objexa_Demo_Requested_On__c,omitempty"`
	LeadSource    string `json:"Lead_Source__c,omitempty"`
	CampaignID    string `json:"salesforceCampaignID,omitempty"`
}

func (m *marketoResponse) Error() string {
	err, _ := json.Marshal(m.Errors)
	return string(err)
}

func nilTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// BatchUpsertProspect pushes prospects into the marketing program.
func (c *MarketoClient) BatchUpsertProspect(prospects []Prospect) error {
	return c.batchUpsertProspect(prospects)
}

func (c *MarketoClient) batchUpsertProspect(prospects []Prospect) error {
	if err := c.client.RefreshToken(); err != nil {
		return err
	}

	leads := struct {
		ProgramName string            `json:"programName"`
		LookupField string            `json:"lookupField"`
		Input       []marketoProspect `json:"input"`
	}{
		ProgramName: c.programName,
		LookupField: "email",
		Input:       []marketoProspect{},
	}
	for _, p := range prospects {
		leads.Input = append(leads.Input, marketoProspect{
			Email:         p.Email,
			FirstName:     p.Name,
			Phone:         p.Phone,
			Company:       p.PracticeName,
			PracticeType:  p.PracticeType,
			SignupSource:  p.SignupSource,
			CreatedAt:     nilTime(p.CreatedAt),
			LastAccess:    nilTime(p.LastAccess),
			DemoRequested: nilTime(p.DemoRequestedAt),
			LeadSource:    p.LeadSource,
			CampaignID:    p.CampaignID,
		})
	}
	req, err := json.Marshal(leads)
	if err != nil {
		return err
	}
	log.Debugf("Marketo request: %s", string(req))
	resp, err := c.client.Post("leads/push.json", req)
	if err != nil {
		return err
	}
	log.Debugf("Marketo response: %s", string(resp))

	var marketoResponse marketoResponse
	if err := json.Unmarshal(resp, &marketoResponse); err != nil {
		return err
	}

	for _, result := range marketoResponse.Results {
		if result.Status == "skipped" {
			marketoLeadsSkipped.Add(1)
			log.Infof("Marketo skipped prospect: %v", result.Reasons)
		}
	}

	if !marketoResponse.Success {
		return &marketoResponse
	}
	return nil
}
