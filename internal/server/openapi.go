package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/yptox/Twitter-2/internal/session"
)

// ErrorResponse is returned for malformed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthCheckResponse struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
}

type HealthResponse struct {
	Status string                         `json:"status"`
	Checks map[string]HealthCheckResponse `json:"checks"`
}

type postKindPath struct {
	PostID int64  `path:"postID"`
	Kind   string `path:"kind" enum:"like,repost,bookmark,sponsor"`
}

type kindPath struct {
	Kind string `path:"kind" enum:"like,repost,bookmark,sponsor"`
}

type langQuery struct {
	Lang string `query:"lang" description:"Locale for display numbers, e.g. en-US or de."`
}

// operation describes one route for the reflector.
type operation struct {
	method, path, summary, description string
	req                                any
	resp                               []response
}

type response struct {
	body        any
	status      int
	contentType string
}

func respOK(body any) response     { return response{body: body, status: http.StatusOK} }
func respError(code int) response  { return response{body: ErrorResponse{}, status: code} }
func respAction(code int) response { return response{body: ActionResponse{}, status: code} }

// Both event streams carry session.Event payloads.
func respStream(ct string) response {
	return response{body: session.Event{}, status: http.StatusOK, contentType: ct}
}

func respUpgrade(ct string) response {
	return response{body: session.Event{}, status: http.StatusSwitchingProtocols, contentType: ct}
}

var operations = []operation{
	{http.MethodGet, "/healthz", "Health check", "Reports the storage backend and the running session.", nil,
		[]response{respOK(HealthResponse{}), {body: HealthResponse{}, status: http.StatusServiceUnavailable}}},
	{http.MethodGet, "/api/state", "Game view", "Balance, unlocks, bots, upgrade offers, timeline and notifications.", langQuery{},
		[]response{respOK(StateResponse{})}},
	{http.MethodPost, "/api/posts/{postID}/{kind}", "Interact with a post", "Uses one interaction control of a post and credits its EP. A like makes Nathan post again.", postKindPath{},
		[]response{respAction(http.StatusOK), respError(http.StatusBadRequest), respAction(http.StatusNotFound), respAction(http.StatusConflict)}},
	{http.MethodPost, "/api/unlocks/{kind}", "Unlock an interaction", "Buys the next interaction in the chain. Sponsor switches on automatic posting.", kindPath{},
		[]response{respAction(http.StatusOK), respAction(http.StatusBadRequest), respAction(http.StatusConflict)}},
	{http.MethodPost, "/api/bots/{kind}/unlock", "Unlock a bot", "Buys the bot for an unlocked interaction and starts it.", kindPath{},
		[]response{respAction(http.StatusOK), respError(http.StatusBadRequest), respAction(http.StatusConflict)}},
	{http.MethodPost, "/api/bots/{kind}/toggle", "Pause or resume a bot", "Flips the active flag of an owned bot. Resuming restarts its progress.", kindPath{},
		[]response{respAction(http.StatusOK), respError(http.StatusBadRequest), respAction(http.StatusConflict)}},
	{http.MethodPost, "/api/block", "Block content", "Ends the game once the balance reaches the block cost and reports the play time.", nil,
		[]response{respOK(BlockResponse{}), respAction(http.StatusConflict)}},
	{http.MethodPost, "/api/reset", "Reset", "Deletes the saved game and theme, then starts a fresh game.", nil,
		[]response{respAction(http.StatusOK)}},
	{http.MethodGet, "/api/prefs/theme", "Get theme", "Returns light unless dark was chosen.", nil,
		[]response{respOK(ThemeResponse{})}},
	{http.MethodPut, "/api/prefs/theme", "Set theme", "Stores light or dark.", ThemeRequest{},
		[]response{respOK(ThemeResponse{}), respError(http.StatusBadRequest), respError(http.StatusUnprocessableEntity), respError(http.StatusServiceUnavailable)}},
	{http.MethodGet, "/api/prefs/welcome", "Welcome dismissed", "Whether the welcome dialog was dismissed.", nil,
		[]response{respOK(WelcomeResponse{})}},
	{http.MethodPost, "/api/prefs/welcome", "Dismiss welcome", "Records that the welcome dialog was dismissed. Survives reset.", nil,
		[]response{respOK(WelcomeResponse{}), respError(http.StatusServiceUnavailable)}},
	{http.MethodGet, "/api/events", "Event stream", "Server-Sent Events, one `game` event per session change.", nil,
		[]response{respStream("text/event-stream")}},
	{http.MethodGet, "/ws/events", "Event socket", "WebSocket carrying the same events as /api/events.", nil,
		[]response{respUpgrade("application/json")}},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Twitter-2 API"
	r.Spec.Info.Version = "1.5.0"
	r.Spec.Info.WithDescription("Game state engine of Nathan's Twitter-2 clicker.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for _, resp := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if resp.contentType != "" {
				opts = append(opts, openapi.WithContentType(resp.contentType))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}
	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
