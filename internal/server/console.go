package server

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"

	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/session"
)

// homePageTemplate is the HTML for the server console home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Bite Me Server</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
    .error { color: #cc0000; }
  </style>
</head>
<body>
  <h1>Bite Me Server</h1>
  <p class="meta">Server health, connected clients, and restaurants.</p>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    <p>Database: {{if index .Health.Checks "database"}}<span class="stat">OK</span>{{else}}<span class="error">Failed</span>{{end}}</p>
    <p>Timestamp: {{.Health.Timestamp}}</p>
  </section>

  <section>
    <h2>Connected clients</h2>
    {{if not .Sessions}}
    <p>No clients connected.</p>
    {{else}}
    <p>Active sessions: <span class="stat">{{len .Sessions}}</span></p>
    <table>
      <thead>
        <tr><th>User</th><th>Role</th><th>Host</th><th>Address</th><th>Login time</th></tr>
      </thead>
      <tbody>
        {{range .Sessions}}
        <tr>
          <td>{{.Identity}}</td>
          <td>{{.Role}}</td>
          <td>{{.HostName}}</td>
          <td>{{.NetworkAddr}}</td>
          <td>{{.LoginTime.Format "2006-01-02 15:04:05"}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>

  <section>
    <h2>Restaurants</h2>
    {{if .RestaurantsError}}
    <p class="error">Could not load restaurants: {{.RestaurantsError}}</p>
    {{else if not .Restaurants}}
    <p>No restaurants registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Id</th><th>Name</th><th>Branch</th><th>Address</th><th>Phone</th></tr>
      </thead>
      <tbody>
        {{range .Restaurants}}
        <tr>
          <td>{{.ID}}</td>
          <td>{{.Name}}</td>
          <td>{{.Branch}}</td>
          <td>{{.Address}}</td>
          <td>{{.Phone}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Health           *healthOutput
	Sessions         []session.Session
	Restaurants      []model.Restaurant
	RestaurantsError string
}

// handleHome returns an HTTP handler for the server console home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		sessions := s.sessions.Sessions()
		sort.Slice(sessions, func(i, j int) bool { return sessions[i].Identity < sessions[j].Identity })

		data := homeData{
			Health:   s.health(ctx),
			Sessions: sessions,
		}

		restaurants, err := s.repo.Restaurants(ctx)
		if err != nil {
			data.RestaurantsError = err.Error()
		} else {
			data.Restaurants = restaurants
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
