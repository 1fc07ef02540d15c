package cloud

import "fmt"

// APIBaseURL returns the REST endpoint for a region. Mainland China runs on
// its own top-level domain.
func APIBaseURL(region string) string {
	if region == "cn" {
		return "https://cn-apia.coolkit.cn"
	}
	return fmt.Sprintf("https://%s-apia.coolkit.cc", region)
}

// DispatchBaseURL returns the WebSocket dispatch endpoint for a region.
func DispatchBaseURL(region string) string {
	if region == "cn" {
		return "https://cn-dispa.coolkit.cn"
	}
	return fmt.Sprintf("https://%s-dispa.coolkit.cc", region)
}
