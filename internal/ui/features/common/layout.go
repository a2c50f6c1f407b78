package common

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// PageData describes a full dashboard page.
type PageData struct {
	Title       string
	CurrentPath string
	IsDev       bool

	// UpdatesURL is the long-lived SSE endpoint opened on load.
	UpdatesURL string
}

// openStream is the datastar expression keeping url open while the tab is
// hidden.
func openStream(url string) string {
	return "@get('" + url + "', {openWhenHidden: true})"
}
