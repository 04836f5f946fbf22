package voting_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/WaffleZilla55/BesPick/internal/app/features/voting"
	activitystore "github.com/WaffleZilla55/BesPick/internal/app/store/activities"
	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/WaffleZilla55/BesPick/internal/app/system/ledger"
	"github.com/WaffleZilla55/BesPick/internal/domain/apperrors"
	"github.com/WaffleZilla55/BesPick/internal/domain/models"
	"github.com/WaffleZilla55/BesPick/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*voting.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return voting.NewHandler(db, zap.NewNop()), db
}

func seedEvent(t *testing.T, db *mongo.Database, details models.VotingDetails) models.Activity {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := activitystore.New(db).Create(ctx, models.Activity{
		Title:       "Charity vote",
		Description: "d",
		EventType:   models.EventVoting,
		Status:      models.StatusPublished,
		PublishAt:   time.Now().Add(-time.Hour).UTC(),
		Voting:      &details,
	}, "admin", time.Now())
	if err != nil {
		t.Fatalf("seed voting event: %v", err)
	}
	return created
}

func purchaseReq(t *testing.T, id string, adjustments []ledger.Adjustment) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{"adjustments": adjustments}); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/voting/"+id+"/purchase", &buf)
	req.Header.Set("Content-Type", "application/json")
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Member",
		Email: "member@example.com",
		Role:  "member",
	})
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// u1 starts at 3 votes with add/remove at $1.00/$0.50. Adding 2 and removing
// 1 lands on 4 and a $2.50 receipt; the next batch cannot remove 5.
func TestPurchaseScenario(t *testing.T) {
	handler, db := newTestHandler(t)

	event := seedEvent(t, db, models.VotingDetails{
		Participants: []models.VotingParticipant{
			{UserID: "u1", FirstName: "User", LastName: "One", Votes: 3},
		},
		AddVotePrice:    1.00,
		RemoveVotePrice: 0.50,
		LeaderboardMode: models.LeaderboardAll,
	})

	rec := httptest.NewRecorder()
	handler.Purchase(rec, purchaseReq(t, event.ID.Hex(), []ledger.Adjustment{
		{UserID: "u1", Add: 2, Remove: 1},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var receipt ledger.Receipt
	if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.VotesAdded != 2 || receipt.VotesRemoved != 1 {
		t.Errorf("receipt = %+v, want 2 added, 1 removed", receipt)
	}
	if receipt.TotalPrice != 2.50 {
		t.Errorf("TotalPrice = %v, want 2.50", receipt.TotalPrice)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	reloaded, err := activitystore.New(db).GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if got := reloaded.Voting.Participants[0].Votes; got != 4 {
		t.Errorf("u1 balance = %d, want 4", got)
	}

	// Over-remove rejects the whole batch and moves nothing.
	rec = httptest.NewRecorder()
	handler.Purchase(rec, purchaseReq(t, event.ID.Hex(), []ledger.Adjustment{
		{UserID: "u1", Remove: 5},
	}))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d for insufficient votes", rec.Code, http.StatusUnprocessableEntity)
	}
	reloaded, err = activitystore.New(db).GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if got := reloaded.Voting.Participants[0].Votes; got != 4 {
		t.Errorf("u1 balance after rejected batch = %d, want 4", got)
	}
}

func TestPurchase_UnknownParticipant(t *testing.T) {
	handler, db := newTestHandler(t)

	event := seedEvent(t, db, models.VotingDetails{
		Participants:    []models.VotingParticipant{{UserID: "u1", Votes: 1}},
		LeaderboardMode: models.LeaderboardAll,
	})

	rec := httptest.NewRecorder()
	handler.Purchase(rec, purchaseReq(t, event.ID.Hex(), []ledger.Adjustment{
		{UserID: "ghost", Add: 1},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for unknown participant", rec.Code, http.StatusBadRequest)
	}
}

func TestPurchase_NoOpSkipsWrite(t *testing.T) {
	handler, db := newTestHandler(t)

	event := seedEvent(t, db, models.VotingDetails{
		Participants:    []models.VotingParticipant{{UserID: "u1", Votes: 2}},
		LeaderboardMode: models.LeaderboardAll,
	})

	rec := httptest.NewRecorder()
	handler.Purchase(rec, purchaseReq(t, event.ID.Hex(), []ledger.Adjustment{
		{UserID: "u1", Add: 0, Remove: 0},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var receipt ledger.Receipt
	if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.VotesAdded != 0 || receipt.VotesRemoved != 0 || receipt.TotalPrice != 0 {
		t.Errorf("receipt = %+v, want all-zero for no-op batch", receipt)
	}
}

func TestPurchase_ArchivedEvent(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := seedEvent(t, db, models.VotingDetails{
		Participants:    []models.VotingParticipant{{UserID: "u1", Votes: 3}},
		LeaderboardMode: models.LeaderboardAll,
	})
	if err := activitystore.New(db).Archive(ctx, event.ID, "admin", time.Now()); err != nil {
		t.Fatalf("archive event: %v", err)
	}

	// A stale ?now= must not make the archived event writable again.
	req := purchaseReq(t, event.ID.Hex(), []ledger.Adjustment{{UserID: "u1", Add: 1}})
	q := req.URL.Query()
	q.Set("now", strconv.FormatInt(time.Now().Add(-24*time.Hour).UnixMilli(), 10))
	req.URL.RawQuery = q.Encode()

	rec := httptest.NewRecorder()
	handler.Purchase(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d for archived event", rec.Code, http.StatusUnprocessableEntity)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != apperrors.ErrVotingArchived.Error() {
		t.Errorf("error = %q, want the voting-event wording", body.Error)
	}

	reloaded, err := activitystore.New(db).GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if got := reloaded.Voting.Participants[0].Votes; got != 3 {
		t.Errorf("balance after rejected purchase = %d, want 3", got)
	}
}

func TestPurchase_NotAVotingEvent(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := activitystore.New(db).Create(ctx, models.Activity{
		Title:       "Announcement",
		Description: "d",
		EventType:   models.EventAnnouncement,
		Status:      models.StatusPublished,
		PublishAt:   time.Now().Add(-time.Hour).UTC(),
	}, "admin", time.Now())
	if err != nil {
		t.Fatalf("seed activity: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.Purchase(rec, purchaseReq(t, created.ID.Hex(), []ledger.Adjustment{
		{UserID: "u1", Add: 1},
	}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestBuildLeaderboard_Modes(t *testing.T) {
	participants := []models.VotingParticipant{
		{UserID: "u1", FirstName: "Amy", LastName: "A", Group: "Eng", Portfolio: "Web", Votes: 3},
		{UserID: "u2", FirstName: "Bob", LastName: "B", Group: "Eng", Portfolio: "Infra", Votes: 2},
		{UserID: "u3", FirstName: "Cal", LastName: "C", Group: "Sales", Votes: 5},
		{UserID: "u4", FirstName: "Dee", LastName: "D", Votes: 1},
	}

	all := voting.BuildLeaderboard(participants, models.LeaderboardAll)
	if len(all) != 4 {
		t.Fatalf("all mode rows = %d, want 4", len(all))
	}
	if all[0].Label != "Cal C" || all[0].Votes != 5 {
		t.Errorf("top row = %+v, want Cal C with 5", all[0])
	}

	byGroup := voting.BuildLeaderboard(participants, models.LeaderboardGroup)
	if len(byGroup) != 3 {
		t.Fatalf("group mode rows = %d, want Eng, Sales, Ungrouped", len(byGroup))
	}
	totals := map[string]int{}
	for _, row := range byGroup {
		totals[row.Label] = row.Votes
	}
	if totals["Eng"] != 5 || totals["Sales"] != 5 || totals["Ungrouped"] != 1 {
		t.Errorf("group totals = %v", totals)
	}

	byPortfolio := voting.BuildLeaderboard(participants, models.LeaderboardGroupPortfolio)
	if len(byPortfolio) != 4 {
		t.Fatalf("group_portfolio rows = %d, want 4", len(byPortfolio))
	}
	found := false
	for _, row := range byPortfolio {
		if row.Label == "Eng / Web" && row.Votes == 3 {
			found = true
		}
	}
	if !found {
		t.Error("expected an Eng / Web row with 3 votes")
	}
}

func TestShow_IncludesLeaderboard(t *testing.T) {
	handler, db := newTestHandler(t)

	event := seedEvent(t, db, models.VotingDetails{
		Participants: []models.VotingParticipant{
			{UserID: "u1", FirstName: "User", LastName: "One", Votes: 2},
			{UserID: "u2", FirstName: "User", LastName: "Two", Votes: 7},
		},
		AddVotePrice:    1,
		LeaderboardMode: models.LeaderboardAll,
	})

	req := httptest.NewRequest("GET", "/api/voting/"+event.ID.Hex(), nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Name: "User One", Role: "member"})
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", event.ID.Hex())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.Show(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var view voting.EventView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(view.Leaderboard) != 2 {
		t.Fatalf("leaderboard rows = %d, want 2", len(view.Leaderboard))
	}
	if view.Leaderboard[0].Label != "User Two" {
		t.Errorf("top row = %+v, want User Two first", view.Leaderboard[0])
	}
}
