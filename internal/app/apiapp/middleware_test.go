package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	adminauthsvc "github.com/DevAniketIT/Playbharat/internal/services/adminauth"
)

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	mw := AuthMiddleware(adminauthsvc.NewTokenManager("secret", time.Hour), nil)

	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/users/1", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	mw := AuthMiddleware(adminauthsvc.NewTokenManager("secret", time.Hour), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAuthMiddlewareAttachesIdentity(t *testing.T) {
	tokens := adminauthsvc.NewTokenManager("secret", time.Hour)
	token, _, err := tokens.Issue(42, "mod_desk", enums.RoleModerator)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	mw := AuthMiddleware(tokens, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/users/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	var seen adminauthsvc.Identity
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = adminauthsvc.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if seen.AdminID != 42 || seen.Role != enums.RoleModerator {
		t.Fatalf("identity = %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(enums.RoleAdmin, enums.RoleOwner)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name string
		role enums.Role
		want int
	}{
		{"admin allowed", enums.RoleAdmin, http.StatusNoContent},
		{"owner allowed", enums.RoleOwner, http.StatusNoContent},
		{"moderator forbidden", enums.RoleModerator, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/audit/archive", nil)
			req = req.WithContext(adminauthsvc.WithIdentity(req.Context(), adminauthsvc.Identity{
				AdminID: 1, Role: tc.role,
			}))
			rr := httptest.NewRecorder()
			mw(next).ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}

	t.Run("no identity", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/audit/archive", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rr.Code)
		}
	})
}
