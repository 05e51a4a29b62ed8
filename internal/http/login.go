package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/agentgate/agentgate/internal/auth"
	"github.com/agentgate/agentgate/internal/metrics"
)

// LoginHandler serves the browser login page used by the authorize flow.
type LoginHandler struct {
	authSvc  *auth.Service
	sessions *auth.SessionService
	csrf     *auth.CSRFService
	logger   *slog.Logger
	template *template.Template
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(authSvc *auth.Service, sessions *auth.SessionService, csrf *auth.CSRFService, logger *slog.Logger) *LoginHandler {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl := template.Must(template.New("login").Parse(loginTemplate))
	return &LoginHandler{
		authSvc:  authSvc,
		sessions: sessions,
		csrf:     csrf,
		logger:   logger,
		template: tmpl,
	}
}

// LoginPage handles GET /login - displays the login form.
func (h *LoginHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	// Already logged in, skip the form
	if _, err := h.sessions.GetSessionFromRequest(r.Context(), r); err == nil {
		returnURL := r.URL.Query().Get("return_url")
		if !isValidReturnURL(returnURL) {
			returnURL = "/"
		}
		http.Redirect(w, r, returnURL, http.StatusFound)
		return
	}

	csrfToken, err := h.csrf.GenerateToken(w)
	if err != nil {
		h.logger.Error("failed to generate CSRF token", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := loginPageData{
		CSRFToken: csrfToken,
		ReturnURL: r.URL.Query().Get("return_url"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, data); err != nil {
		h.logger.Error("failed to render login page", "error", err)
	}
}

// Login handles POST /login - processes the login form.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, "Invalid form data", r.FormValue("return_url"))
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	returnURL := r.FormValue("return_url")

	if username == "" || password == "" {
		h.renderLoginError(w, "Username and password are required", returnURL)
		return
	}

	if err := h.csrf.ValidateToken(r); err != nil {
		h.logger.Info("CSRF validation failed", "error", err)
		h.renderLoginError(w, "Invalid request. Please try again.", returnURL)
		return
	}

	user, err := h.authSvc.Authenticate(ctx, username, password)
	if err != nil {
		h.logger.Info("login failed", "username", username, "error", err)
		metrics.RecordLoginAttempt("failure")
		h.renderLoginError(w, "Invalid username or password", returnURL)
		return
	}

	var oldToken string
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		oldToken = cookie.Value
	}
	_, sessionToken, err := h.sessions.RotateSession(ctx, oldToken, user.ID, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		h.logger.Error("failed to create session", "error", err, "user_id", user.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.sessions.SetSessionCookie(w, sessionToken)
	h.csrf.ClearToken(w)
	metrics.RecordLoginAttempt("success")

	if !isValidReturnURL(returnURL) {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusFound)
}

// Logout handles GET/POST /logout - terminates the session.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessions.GetSessionFromRequest(r.Context(), r); err == nil {
		if err := h.sessions.DeleteSession(r.Context(), session.ID); err != nil {
			h.logger.Error("logout error", "error", err)
		}
	}
	h.sessions.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *LoginHandler) renderLoginError(w http.ResponseWriter, errMsg, returnURL string) {
	csrfToken, _ := h.csrf.GenerateToken(w)

	data := loginPageData{
		CSRFToken: csrfToken,
		ReturnURL: returnURL,
		Error:     errMsg,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	if err := h.template.Execute(w, data); err != nil {
		h.logger.Error("failed to render login page", "error", err)
	}
}

// isValidReturnURL validates the return URL to prevent open redirect.
func isValidReturnURL(returnURL string) bool {
	if returnURL == "" {
		return false
	}

	u, err := url.Parse(returnURL)
	if err != nil {
		return false
	}

	// Only allow relative URLs (no scheme or host)
	return u.Scheme == "" && u.Host == ""
}

type loginPageData struct {
	CSRFToken string
	ReturnURL string
	Error     string
}

const loginTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Sign In - AgentGate</title>
    <style>
        * {
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            background: #f5f5f5;
            margin: 0;
            padding: 20px;
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
        }
        .login-container {
            background: white;
            padding: 40px;
            border-radius: 8px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
            width: 100%;
            max-width: 400px;
        }
        h1 {
            margin: 0 0 30px 0;
            font-size: 24px;
            font-weight: 600;
            text-align: center;
            color: #333;
        }
        .form-group {
            margin-bottom: 20px;
        }
        label {
            display: block;
            margin-bottom: 8px;
            font-weight: 500;
            color: #555;
        }
        input[type="text"],
        input[type="password"] {
            width: 100%;
            padding: 12px;
            border: 1px solid #ddd;
            border-radius: 4px;
            font-size: 16px;
            transition: border-color 0.2s;
        }
        input[type="text"]:focus,
        input[type="password"]:focus {
            outline: none;
            border-color: #007bff;
        }
        button {
            width: 100%;
            padding: 12px;
            background: #007bff;
            color: white;
            border: none;
            border-radius: 4px;
            font-size: 16px;
            font-weight: 500;
            cursor: pointer;
            transition: background 0.2s;
        }
        button:hover {
            background: #0056b3;
        }
        .error {
            background: #fee;
            color: #c00;
            padding: 12px;
            border-radius: 4px;
            margin-bottom: 20px;
            font-size: 14px;
        }
    </style>
</head>
<body>
    <div class="login-container">
        <h1>Sign In</h1>
        {{if .Error}}
        <div class="error">{{.Error}}</div>
        {{end}}
        <form method="POST" action="/login">
            <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
            {{if .ReturnURL}}
            <input type="hidden" name="return_url" value="{{.ReturnURL}}">
            {{end}}
            <div class="form-group">
                <label for="username">Username</label>
                <input type="text" id="username" name="username" required autofocus>
            </div>
            <div class="form-group">
                <label for="password">Password</label>
                <input type="password" id="password" name="password" required>
            </div>
            <button type="submit">Sign In</button>
        </form>
    </div>
</body>
</html>`
