package engine

// DriverOptions are shared by every browser driver.
type DriverOptions struct {
	Headless             bool
	NoSandbox            bool
	Stealth              bool
	BlockAds             bool
	BlockedResourceTypes []string

	// Chromium picks the library for chrome and edge: "rod", "chromedp",
	// or "" for rod on chrome and chromedp on edge.
	Chromium string
}

// NewDrivers returns the driver for each browser family.
func NewDrivers(opts DriverOptions) map[BrowserType]Driver {
	rodDriver := &RodDriver{
		Headless:             opts.Headless,
		NoSandbox:            opts.NoSandbox,
		Stealth:              opts.Stealth,
		BlockAds:             opts.BlockAds,
		BlockedResourceTypes: opts.BlockedResourceTypes,
	}
	cdpDriver := &ChromedpDriver{Headless: opts.Headless, NoSandbox: opts.NoSandbox}

	drivers := map[BrowserType]Driver{
		BrowserChrome:  rodDriver,
		BrowserEdge:    cdpDriver,
		BrowserFirefox: &PlaywrightDriver{Headless: opts.Headless},
	}
	switch opts.Chromium {
	case "rod":
		drivers[BrowserEdge] = rodDriver
	case "chromedp":
		drivers[BrowserChrome] = cdpDriver
	}
	return drivers
}
