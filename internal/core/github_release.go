package core

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type releaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type gitHubReleaseResponse struct {
	TagName string         `json:"tag_name"`
	Assets  []releaseAsset `json:"assets"`
}

// matchAsset picks the first asset, in the order the release lists them,
// whose lower-cased name matches pattern and that has a download URL.
func matchAsset(assets []releaseAsset, pattern string) (releaseAsset, bool) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return releaseAsset{}, false
	}

	for _, asset := range assets {
		if strings.TrimSpace(asset.BrowserDownloadURL) == "" {
			continue
		}
		ok, err := doublestar.Match(pattern, strings.ToLower(strings.TrimSpace(asset.Name)))
		if err == nil && ok {
			return asset, true
		}
	}
	return releaseAsset{}, false
}

func normalizeVersion(version string) string {
	v := strings.TrimSpace(strings.ToLower(version))
	v = strings.TrimPrefix(v, "version")
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	return strings.TrimSpace(v)
}
