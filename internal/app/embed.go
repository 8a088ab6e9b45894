package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/Adda-Baaj/gink-client/internal/cli"
	"github.com/Adda-Baaj/gink-client/internal/config"
	"github.com/Adda-Baaj/gink-client/internal/logger"
	"github.com/Adda-Baaj/gink-client/pkg/gink"
)

// EmbedURL obtains a token with the configured username and password and
// returns the portal auto-login URL that opens the redirect page.
func EmbedURL(ctx context.Context, client *gink.Client, cfg *config.Config) (string, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return "", cli.Exitf(cli.ExitUsage, "configuration missing 'username' and 'password' combination")
	}

	gw, err := Authenticate(ctx, client, cfg.Username, cfg.Password)
	if err != nil {
		return "", err
	}
	if gw.Token == "" {
		return "", cli.Exitf(cli.ExitGateway, "Error: no token retrieved on gateway")
	}

	redirect := cfg.Redirect
	if redirect == "" {
		redirect = "live.html"
	}
	return portalURL(cfg.PortalURL, gw.Token, redirect), nil
}

func portalURL(portal, token, redirect string) string {
	sep := "?"
	if strings.Contains(portal, "?") {
		sep = "&"
	}
	return portal + sep + "token=" + url.QueryEscape(token) + "&redirect=" + url.QueryEscape(redirect)
}

// failureText is the message of err followed by the body the service sent
// with a failed call, if any.
func failureText(err error) string {
	msg := err.Error() + "\n"
	var call *cli.CallError
	if errors.As(err, &call) && call.Result.HasBody() {
		msg += string(call.Result.Body)
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
	}
	return msg
}

// EmbedHandler answers every request with a temporary redirect to a freshly
// authenticated portal URL. Failures are reported as plain text with a 500.
// Requests take turns on client, which must not be used concurrently.
func EmbedHandler(client *gink.Client, cfg *config.Config, log logger.Logger) http.Handler {
	if log == nil {
		log = &logger.NopLogger{}
	}
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		target, err := EmbedURL(r.Context(), client, cfg)
		mu.Unlock()
		if err != nil {
			log.ErrorObj("embed redirect failed", "error", err.Error())
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, failureText(err))
			return
		}
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	})
}
