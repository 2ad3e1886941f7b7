package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/otphub/internal/pkg/config"
)

const maintenanceRetryAfterSeconds = 60

// maintenanceRule blocks one route pattern. An empty method blocks every
// method and a trailing "/*" blocks the whole subtree.
type maintenanceRule struct {
	method string
	path   string
	prefix bool
}

func (m maintenanceRule) match(method, route string) bool {
	if m.method != "" && m.method != method {
		return false
	}
	if m.prefix {
		return route == m.path || strings.HasPrefix(route, m.path+"/")
	}
	return route == m.path
}

// parseMaintenanceRule reads "/v1/otp/verify", "POST /v1/otp/request" or "/v1/otp/*".
func parseMaintenanceRule(v string) (maintenanceRule, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return maintenanceRule{}, false
	}

	var rule maintenanceRule
	if method, path, found := strings.Cut(v, " "); found {
		rule.method = strings.ToUpper(method)
		v = strings.TrimSpace(path)
	}
	if strings.HasSuffix(v, "/*") {
		rule.prefix = true
		v = strings.TrimSuffix(v, "/*")
	}
	rule.path = v

	return rule, strings.HasPrefix(v, "/") || (rule.prefix && v == "")
}

func middlewareMaintenance(cfg config.Config) Middleware {
	var rules []maintenanceRule
	if cfg != nil {
		for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
			if rule, ok := parseMaintenanceRule(endpoint); ok {
				rules = append(rules, rule)
			}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(rules) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			for _, rule := range rules {
				if rule.match(r.Method, route) {
					w.Header().Set("Retry-After", strconv.Itoa(maintenanceRetryAfterSeconds))
					writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
