package group_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-social/internal/config"
	"go-social/internal/features/group"
	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestApp(f *fixture) *fiber.App {
	cfg := &config.Config{SkipAuth: true, MaxImageSizeMB: 1}
	app := fiber.New()
	api := group.NewGroupApi(
		group.NewGroupController(f.groupSvc, cfg, zap.NewNop()),
		group.NewMembershipController(f.memberSvc, zap.NewNop()),
		cfg,
	)
	api.Setup(app)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, actor primitive.ObjectID, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if !actor.IsZero() {
		req.Header.Set(middleware.DevUserHeader, actor.Hex())
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestGroupRoutesStatusCodes(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)
	public := f.seed(false, f.alice)
	private := f.seed(true)
	missing := primitive.NewObjectID()

	tests := []struct {
		name      string
		method    string
		path      string
		actor     primitive.ObjectID
		body      string
		wantCode  int
		wantError string
	}{
		{"no acting user", http.MethodGet, "/api/groups", primitive.NilObjectID, "", fiber.StatusUnauthorized, "Invalid user ID"},
		{"bad group id", http.MethodGet, "/api/groups/nope", f.alice, "", fiber.StatusBadRequest, "Invalid group ID format"},
		{"unknown group", http.MethodGet, "/api/groups/" + missing.Hex(), f.alice, "", fiber.StatusNotFound, "Group not found"},
		{"bad user id", http.MethodGet, "/api/groups/creator/nope", f.alice, "", fiber.StatusBadRequest, "Invalid user ID format"},
		{"missing name", http.MethodPost, "/api/groups", f.alice, `{"description":"x"}`, fiber.StatusBadRequest, "Group name is required"},
		{"update by non-creator", http.MethodPut, "/api/groups/" + public.Hex(), f.alice, `{"name":"mine"}`, fiber.StatusForbidden, "Only the group creator can update this group"},
		{"delete by non-creator", http.MethodDelete, "/api/groups/" + public.Hex(), f.alice, "", fiber.StatusForbidden, "Only the group creator can delete this group"},
		{"join twice", http.MethodPost, "/api/groups/" + public.Hex() + "/join", f.alice, "", fiber.StatusBadRequest, "You are already a member of this group"},
		{"join private", http.MethodPost, "/api/groups/" + private.Hex() + "/join", f.bob, "", fiber.StatusForbidden, ""},
		{"approve bad user id", http.MethodPost, "/api/groups/" + private.Hex() + "/approve", f.creator, `{"user_id":"x"}`, fiber.StatusBadRequest, "Invalid user ID format"},
		{"approve without request", http.MethodPost, "/api/groups/" + private.Hex() + "/approve", f.creator, `{"user_id":"` + f.bob.Hex() + `"}`, fiber.StatusBadRequest, "No pending request from this user"},
		{"remove creator", http.MethodDelete, "/api/groups/" + public.Hex() + "/members/" + f.creator.Hex(), f.creator, "", fiber.StatusBadRequest, "Group creator cannot be removed. Transfer ownership first."},
		{"remove by non-creator", http.MethodDelete, "/api/groups/" + public.Hex() + "/members/" + f.alice.Hex(), f.alice, "", fiber.StatusForbidden, "Only the group creator can remove members"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, tt.method, tt.path, tt.actor, tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %v)", code, tt.wantCode, body)
			}
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
		})
	}
}

func TestCreateGroupRoute(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)

	code, body := do(t, app, http.MethodPost, "/api/groups", f.alice, `{"name":"Runners","is_private":true}`)
	if code != fiber.StatusCreated {
		t.Fatalf("status = %d, body %v", code, body)
	}
	if body["name"] != "Runners" || body["is_private"] != true || body["member_count"] != float64(1) {
		t.Errorf("body = %v", body)
	}

	code, body = do(t, app, http.MethodPost, "/api/groups", f.bob, `{"name":"RUNNERS"}`)
	if code != fiber.StatusBadRequest || body["error"] != "A group with this name already exists" {
		t.Errorf("duplicate: status = %d, body = %v", code, body)
	}
}

func TestPrivateMembersForbiddenFlag(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)
	private := f.seed(true)

	code, body := do(t, app, http.MethodGet, "/api/groups/"+private.Hex()+"/members", f.bob, "")
	if code != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", code)
	}
	if body["is_private"] != true || body["error"] != "Cannot view members of private group" {
		t.Errorf("body = %v", body)
	}
}

func TestRemoveMemberRoute(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)
	id := f.seed(false, f.alice)

	code, body := do(t, app, http.MethodDelete, "/api/groups/"+id.Hex()+"/members/"+f.alice.Hex(), f.creator, "")
	if code != fiber.StatusOK {
		t.Fatalf("status = %d, body %v", code, body)
	}
	if body["removed_member_id"] != f.alice.Hex() {
		t.Errorf("removed_member_id = %v", body["removed_member_id"])
	}
	assertCount(t, f.groups.Get(id))
}

func TestExportMembersRoute(t *testing.T) {
	f := newFixture()
	app := newTestApp(f)
	id := f.seed(false)

	req := httptest.NewRequest(http.MethodGet, "/api/groups/"+id.Hex()+"/members/export", nil)
	req.Header.Set(middleware.DevUserHeader, f.creator.Hex())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}
