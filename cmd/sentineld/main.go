// Command sentineld runs a small demo host for the authcore package: a
// landing page, the full auth flow, and a session-guarded dashboard,
// backed by a sqlite user store.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	ac "github.com/sentinelai/authcore"
	"github.com/sentinelai/authcore/oauth2"
	gormstore "github.com/sentinelai/authcore/stores/gorm"
)

func envOr(name, defaultValue string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	addr := envOr("SENTINELD_ADDR", ":8080")
	dsn := envOr("SENTINELD_DB", "sentineld.db")
	baseURL := envOr("SENTINELD_BASE_URL", "http://localhost"+addr)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("error opening database: ", err)
	}
	store, err := gormstore.NewUserStore(db)
	if err != nil {
		log.Fatal("error migrating database: ", err)
	}

	sessions := ac.NewSessionManager("AetherGuard")
	flashes := &ac.SessionFlashSink{Manager: sessions.Manager}

	// Client IDs and secrets come from the OAUTH2_GOOGLE_* and
	// OAUTH2_GITHUB_* env vars; an unset pair leaves that provider
	// disabled rather than broken.
	flow := &ac.AuthFlow{
		Store:    store,
		Sessions: sessions,
		Flash:    flashes,
		Providers: map[string]*oauth2.Provider{
			"google": oauth2.NewGoogle("", "", baseURL+"/auth/google/callback"),
			"github": oauth2.NewGithub("", "", baseURL+"/auth/github/callback"),
		},
	}

	guard := &ac.Guard{Sessions: sessions, LoginURL: "/login"}

	router := mux.NewRouter()
	flow.Routes(router)
	router.HandleFunc("/", showLanding).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	router.Handle("/dashboard", guard.EnsureUser(showDashboard(sessions, flashes, store))).Methods(http.MethodGet)

	slog.Info("starting sentineld", "addr", addr, "db", dsn)
	if err := http.ListenAndServe(addr, sessions.LoadAndSave(router)); err != nil {
		log.Fatal(err)
	}
}

func showLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>AetherGuard</title></head>
<body>
<h1>AetherGuard</h1>
<p><a href="/login">Sign in</a> or <a href="/login?tab=register">create an account</a>.</p>
</body>
</html>`)
}

func showDashboard(sessions *ac.SessionManager, flashes *ac.SessionFlashSink, store ac.UserStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		record := sessions.Current(r)
		if record == nil {
			// EnsureUser let a token-only caller through; the dashboard
			// needs the full session snapshot.
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		total, err := store.CountUsers(r.Context())
		if err != nil {
			slog.Warn("error counting users", "err", err)
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<!DOCTYPE html>\n<html>\n<head><title>Dashboard</title></head>\n<body>\n")
		for _, f := range flashes.PopAll(r) {
			fmt.Fprintf(w, "<p class=%q>%s</p>\n", f.Severity, f.Message)
		}
		fmt.Fprintf(w, "<h1>Welcome, %s</h1>\n", record.DisplayName)
		fmt.Fprintf(w, "<img src=%q alt=\"avatar\" width=\"48\">\n", record.AvatarURL)
		fmt.Fprintf(w, "<p>Signed in as %s</p>\n", record.Email)
		fmt.Fprintf(w, "<p>%d registered users</p>\n", total)
		fmt.Fprint(w, "<a href=\"/logout\">Log out</a>\n</body>\n</html>")
	})
}
