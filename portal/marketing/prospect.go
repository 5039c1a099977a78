package marketing

import "time"

// Prospect gathers what we know about a possible customer.
type Prospect struct {
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	PracticeName    string    `json:"practiceName"`
	PracticeType    string    `json:"practiceType"`
	SignupSource    string    `json:"signupSource"`
	CreatedAt       time.Time `json:"createdAt"`
	LastAccess      time.Time `json:"lastAccess"`
	DemoRequestedAt time.Time `json:"demoRequestedAt"`
	CampaignID      string    `json:"campaignId"`
	LeadSource      string    `json:"leadSource"`
}

// Merge merges this prospect with the provided one, creating a new prospect.
func (p1 Prospect) Merge(p2 Prospect) Prospect {
	return Prospect{
		Email:           either(p1.Email, p2.Email),
		Name:            either(p1.Name, p2.Name),
		Phone:           either(p1.Phone, p2.Phone),
		PracticeName:    either(p1.PracticeName, p2.PracticeName),
		PracticeType:    either(p1.PracticeType, p2.PracticeType),
		SignupSource:    either(p1.SignupSource, p2.SignupSource),
		CreatedAt:       latest(p1.CreatedAt, p2.CreatedAt),
		LastAccess:      latest(p1.LastAccess, p2.LastAccess),
		DemoRequestedAt: latest(p1.DemoRequestedAt, p2.DemoRequestedAt),
		CampaignID:      either(p1.CampaignID, p2.CampaignID),
		LeadSource:      either(p1.LeadSource, p2.LeadSource),
	}
}

func either(s1, s2 string) string {
	if s1 != "" {
		return s1
	}
	return s2
}

func latest(t1, t2 time.Time) time.Time {
	if t1.After(t2) {
		return t1
	}
	return t2
}
