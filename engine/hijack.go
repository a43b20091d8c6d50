package engine

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to protocol resource types. Scripts are
// never blocked.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// trackerHosts are ad, analytics and social-widget hosts whose requests
// never contribute text.
var trackerHosts = map[string]struct{}{}

func init() {
	for _, h := range []string{
		"doubleclick.net", "googlesyndication.com", "googleadservices.com",
		"google-analytics.com", "googletagmanager.com", "googletagservices.com",
		"connect.facebook.net", "adnxs.com", "adsrvr.org", "amazon-adsystem.com",
		"criteo.com", "criteo.net", "outbrain.com", "taboola.com", "moatads.com",
		"pubmatic.com", "rubiconproject.com", "scorecardresearch.com", "quantserve.com",
		"hotjar.com", "chartbeat.com", "chartbeat.net", "media.net", "openx.net",
		"casalemedia.com", "demdex.net", "krxd.net", "sharethis.com", "addthis.com",
		"consensu.org", "cookielaw.org", "onetrust.com",
	} {
		trackerHosts[h] = struct{}{}
	}
}

// isTrackerHost checks host and each of its parent domains.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := trackerHosts[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
	return false
}

// setupHijack installs a request interceptor that fails requests for the
// blocked resource types and, when blockAds is set, for tracker hosts.
// It returns nil when there is nothing to block; otherwise the caller must
// Stop the router.
func setupHijack(page *rod.Page, blockedTypes []string, blockAds bool) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	if len(blocked) == 0 && !blockAds {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if _, ok := blocked[h.Request.Type()]; ok {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if blockAds {
			if u, err := url.Parse(h.Request.URL().String()); err == nil && isTrackerHost(u.Hostname()) {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()
	return router
}
