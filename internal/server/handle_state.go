package server

import (
	"net/http"
	"time"

	"golang.org/x/text/message"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/session"
)

type ProfileResponse struct {
	Picture string `json:"picture"`
	Bio     string `json:"bio"`
}

type BotResponse struct {
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Unlocked bool    `json:"unlocked"`
	Active   bool    `json:"active"`
	Cost     float64 `json:"cost"`
	PeriodMs int64   `json:"periodMs"`
	Progress float64 `json:"progress"`
}

type OfferResponse struct {
	Type        string  `json:"type"`
	Kind        string  `json:"kind"`
	Label       string  `json:"label"`
	Cost        float64 `json:"cost"`
	CostDisplay string  `json:"costDisplay"`
	Affordable  bool    `json:"affordable"`
	Active      bool    `json:"active,omitempty"`
}

type PostResponse struct {
	ID        int64           `json:"id"`
	Text      string          `json:"text"`
	Image     string          `json:"image,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Controls  map[string]bool `json:"controls"`
}

type TerminalResponse struct {
	ElapsedMs int64  `json:"elapsedMs"`
	Elapsed   string `json:"elapsed"`
}

// StateResponse is the full view: everything the page renders.
type StateResponse struct {
	Balance             float64                `json:"balance"`
	BalanceDisplay      string                 `json:"balanceDisplay"`
	ContentCount        int                    `json:"contentCount"`
	ContentCountDisplay string                 `json:"contentCountDisplay"`
	StartedAt           time.Time              `json:"startedAt"`
	ElapsedMs           int64                  `json:"elapsedMs"`
	Profile             ProfileResponse        `json:"profile"`
	Unlocked            map[string]bool        `json:"unlocked"`
	Rates               map[string]float64     `json:"rates"`
	Bots                []BotResponse          `json:"bots"`
	AutoPosting         bool                   `json:"autoPosting"`
	Offers              []OfferResponse        `json:"offers"`
	Posts               []PostResponse         `json:"posts"`
	Notifications       []session.Notification `json:"notifications"`
	Origin              string                 `json:"origin"`
	Ended               bool                   `json:"ended"`
	Terminal            *TerminalResponse      `json:"terminal,omitempty"`
}

func newStateResponse(p *message.Printer, v session.View) StateResponse {
	st := v.State
	resp := StateResponse{
		Balance:             st.Currency,
		BalanceDisplay:      formatPoints(p, st.Currency),
		ContentCount:        st.ContentCount,
		ContentCountDisplay: formatCount(p, st.ContentCount),
		StartedAt:           st.StartedAt,
		ElapsedMs:           v.Elapsed.Milliseconds(),
		Profile:             ProfileResponse{Picture: st.ProfilePic, Bio: st.Bio},
		Unlocked:            make(map[string]bool, len(engagement.Kinds)),
		Rates:               make(map[string]float64, len(engagement.Kinds)),
		Bots:                make([]BotResponse, 0, len(engagement.Kinds)),
		AutoPosting:         st.AutoContent,
		Offers:              make([]OfferResponse, 0, len(v.Offers)),
		Posts:               make([]PostResponse, 0, len(v.Posts)),
		Notifications:       v.Notifications,
		Origin:              v.Origin.String(),
		Ended:               v.Ended,
	}
	if resp.Notifications == nil {
		resp.Notifications = []session.Notification{}
	}

	for _, k := range engagement.Kinds {
		resp.Unlocked[k.String()] = st.IsUnlocked(k)
		resp.Rates[k.String()] = st.Rates[k]
		b := st.Bots[k]
		resp.Bots = append(resp.Bots, BotResponse{
			Kind:     k.String(),
			Name:     k.BotName(),
			Unlocked: b.Unlocked,
			Active:   b.Active,
			Cost:     b.Cost,
			PeriodMs: b.Period.Milliseconds(),
			Progress: b.Progress,
		})
	}
	for _, o := range v.Offers {
		resp.Offers = append(resp.Offers, newOfferResponse(p, o))
	}
	for _, post := range v.Posts {
		controls := make(map[string]bool, len(post.Controls))
		for k, done := range post.Controls {
			controls[k.String()] = done
		}
		resp.Posts = append(resp.Posts, PostResponse{
			ID:        post.ID,
			Text:      post.Text,
			Image:     post.Image,
			CreatedAt: post.CreatedAt,
			Controls:  controls,
		})
	}
	if v.Blocked {
		resp.Terminal = &TerminalResponse{
			ElapsedMs: v.Elapsed.Milliseconds(),
			Elapsed:   session.FormatElapsed(v.Elapsed),
		}
	}
	return resp
}

func newOfferResponse(p *message.Printer, o engagement.Offer) OfferResponse {
	resp := OfferResponse{
		Type:        string(o.Type),
		Kind:        o.Kind.String(),
		Cost:        o.Cost,
		CostDisplay: formatPoints(p, o.Cost),
		Affordable:  o.Affordable,
		Active:      o.Active,
	}
	switch o.Type {
	case engagement.OfferInteraction:
		resp.Label = p.Sprintf("Unlock %ss (%s EP)", o.Kind.Title(), resp.CostDisplay)
	case engagement.OfferBotUnlock:
		resp.Label = p.Sprintf("Unlock %s (%s EP)", o.Kind.BotName(), resp.CostDisplay)
	case engagement.OfferBotToggle:
		if o.Active {
			resp.Label = "Pause " + o.Kind.BotName()
		} else {
			resp.Label = "Resume " + o.Kind.BotName()
		}
	case engagement.OfferBlock:
		resp.Label = p.Sprintf("Block Content (%s EP)", resp.CostDisplay)
	}
	return resp
}

func handleState(host *session.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newStateResponse(printerFor(r), host.Current().View()))
	}
}
